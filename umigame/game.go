// Package umigame implements the "sea-turtle soup" lateral-thinking game: a
// generated puzzle with a hidden reason and a graded hint ladder, where
// players ask yes/no questions judged by the generative backend.
package umigame

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"

	"github.com/google/uuid"

	"github.com/hazuki-dev/yomiko/llm"
)

// HintCount is the fixed size of the hint ladder. Generation fills the first
// three slots; unfilled slots stay empty.
const HintCount = 5

// FallbackVerdict is returned when the judge's reply matches no known token.
const FallbackVerdict = "失敗しました。もう一度質問してください。"

// verdictTokens is the ordered classification ladder. The おおむね compounds
// must precede their bare substrings or every "おおむねはい" would
// misclassify as "はい".
var verdictTokens = []string{
	"正解",
	"おおむねはい",
	"おおむねいいえ",
	"はい",
	"いいえ",
	"わからない",
}

var (
	problemTmpl = template.Must(template.New("problem").Parse(problemPromptTemplate))
	answerTmpl  = template.Must(template.New("answer").Parse(answerPromptTemplate))

	tagPatterns = map[string]*regexp.Regexp{
		"problem": regexp.MustCompile(`(?s)<problem>(.*?)</problem>`),
		"reason":  regexp.MustCompile(`(?s)<reason>(.*?)</reason>`),
		"hint1":   regexp.MustCompile(`(?s)<hint1>(.*?)</hint1>`),
		"hint2":   regexp.MustCompile(`(?s)<hint2>(.*?)</hint2>`),
		"hint3":   regexp.MustCompile(`(?s)<hint3>(.*?)</hint3>`),
	}
)

// Session is one running game. Safe for concurrent use: interaction handlers
// run on separate goroutines, so every access to the puzzle state is guarded.
type Session struct {
	ID        string
	generator llm.Generator

	mu            sync.Mutex
	Topic         string
	Problem       string
	Reason        string
	Hints         [HintCount]string
	hintsRevealed int
}

// NewSession creates an empty session backed by the given generator.
func NewSession(generator llm.Generator) *Session {
	return &Session{
		ID:        uuid.NewString(),
		generator: generator,
	}
}

// GenerateProblem asks the backend for a puzzle about topic and parses the
// tagged reply. Missing tags degrade to empty strings rather than failing;
// only a transport-level error is returned. The problem text is returned for
// presentation.
func (s *Session) GenerateProblem(ctx context.Context, topic string) (string, error) {
	var prompt bytes.Buffer
	if err := problemTmpl.Execute(&prompt, struct{ Topic string }{topic}); err != nil {
		return "", fmt.Errorf("failed to build problem prompt: %w", err)
	}

	reply, err := s.generator.Generate(ctx, prompt.String())
	if err != nil {
		return "", fmt.Errorf("problem generation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Topic = topic
	s.Problem = extractTag(reply, "problem")
	s.Reason = extractTag(reply, "reason")
	s.Hints = [HintCount]string{}
	s.Hints[0] = extractTag(reply, "hint1")
	s.Hints[1] = extractTag(reply, "hint2")
	s.Hints[2] = extractTag(reply, "hint3")
	s.hintsRevealed = 0
	return s.Problem, nil
}

// extractTag pulls the trimmed contents of a tagged field, or "" when the
// tag is absent or malformed.
func extractTag(reply, tag string) string {
	match := tagPatterns[tag].FindStringSubmatch(reply)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// AnswerQuestion judges one player question against the hidden reason. The
// backend's free-text reply is classified by substring match over the fixed
// token ladder; unrecognized replies map to FallbackVerdict. Only "正解" is
// correct.
func (s *Session) AnswerQuestion(ctx context.Context, question string) (bool, string, error) {
	s.mu.Lock()
	data := struct{ Problem, Reason, Question string }{s.Problem, s.Reason, question}
	s.mu.Unlock()

	var prompt bytes.Buffer
	if err := answerTmpl.Execute(&prompt, data); err != nil {
		return false, "", fmt.Errorf("failed to build answer prompt: %w", err)
	}

	reply, err := s.generator.Generate(ctx, prompt.String())
	if err != nil {
		return false, "", fmt.Errorf("answer judging failed: %w", err)
	}

	verdict := Classify(reply)
	return verdict == "正解", verdict, nil
}

// Classify maps a judge reply onto the verdict ladder.
func Classify(reply string) string {
	for _, token := range verdictTokens {
		if strings.Contains(reply, token) {
			return token
		}
	}
	return FallbackVerdict
}

// Hint reveals the next unrevealed hint, in ladder order. ok is false when
// no filled hint remains.
func (s *Session) Hint() (hint string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.hintsRevealed < HintCount {
		h := s.Hints[s.hintsRevealed]
		s.hintsRevealed++
		if h != "" {
			return h, true
		}
	}
	return "", false
}

// Reveal returns the hidden reason, ending the puzzle.
func (s *Session) Reveal() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Reason
}
