package umigame

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGenerator returns canned replies in order.
type scriptedGenerator struct {
	replies []string
	err     error
	calls   int
	prompts []string
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	reply := g.replies[g.calls%len(g.replies)]
	g.calls++
	return reply, nil
}

func TestGenerateProblem_Parsing(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		"<problem>テスト問題文</problem>\n" +
			"<reason>テスト理由文</reason>\n" +
			"<hint1>テストヒント1</hint1>\n" +
			"<hint2>テストヒント2</hint2>\n" +
			"<hint3>テストヒント3</hint3>\n",
	}}

	s := NewSession(gen)
	problem, err := s.GenerateProblem(context.Background(), "テストお題")
	require.NoError(t, err)

	assert.Equal(t, "テスト問題文", problem)
	assert.Equal(t, "テスト問題文", s.Problem)
	assert.Equal(t, "テスト理由文", s.Reason)
	assert.Equal(t, "テストヒント1", s.Hints[0])
	assert.Equal(t, "テストヒント2", s.Hints[1])
	assert.Equal(t, "テストヒント3", s.Hints[2])
	assert.Equal(t, "", s.Hints[3])
	assert.Equal(t, "", s.Hints[4])
	assert.Contains(t, gen.prompts[0], "テストお題")
}

func TestGenerateProblem_MissingTagsDegrade(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{
		"<problem>問題だけ</problem>まとまりのない出力",
	}}

	s := NewSession(gen)
	problem, err := s.GenerateProblem(context.Background(), "お題")
	require.NoError(t, err)

	assert.Equal(t, "問題だけ", problem)
	assert.Equal(t, "", s.Reason)
	for i := 0; i < HintCount; i++ {
		assert.Equal(t, "", s.Hints[i])
	}
}

func TestGenerateProblem_BackendError(t *testing.T) {
	gen := &scriptedGenerator{err: errors.New("backend down")}
	s := NewSession(gen)
	_, err := s.GenerateProblem(context.Background(), "お題")
	assert.Error(t, err)
}

func TestAnswerQuestion_Classification(t *testing.T) {
	cases := []struct {
		reply   string
		correct bool
		verdict string
	}{
		{"正解です。", true, "正解"},
		{"おおむねはい", false, "おおむねはい"},
		{"おおむねいいえ", false, "おおむねいいえ"},
		{"はい", false, "はい"},
		{"いいえ", false, "いいえ"},
		{"わからない", false, "わからない"},
		{"予期せぬ回答です。", false, FallbackVerdict},
	}

	for _, tc := range cases {
		gen := &scriptedGenerator{replies: []string{tc.reply}}
		s := NewSession(gen)
		s.Problem = "テスト問題"
		s.Reason = "テスト理由"

		correct, verdict, err := s.AnswerQuestion(context.Background(), "テスト質問")
		require.NoError(t, err, "reply %q", tc.reply)
		assert.Equal(t, tc.correct, correct, "reply %q", tc.reply)
		assert.Equal(t, tc.verdict, verdict, "reply %q", tc.reply)
	}
}

func TestAnswerQuestion_PromptCarriesState(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"はい"}}
	s := NewSession(gen)
	s.Problem = "ある男がスープを飲んだ"
	s.Reason = "それはウミガメのスープだった"

	_, _, err := s.AnswerQuestion(context.Background(), "男は船乗りですか")
	require.NoError(t, err)

	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "ある男がスープを飲んだ")
	assert.Contains(t, prompt, "それはウミガメのスープだった")
	assert.Contains(t, prompt, "男は船乗りですか")
}

func TestClassify_CompoundsBeforeSubstrings(t *testing.T) {
	// おおむねはい contains はい; the compound must win.
	assert.Equal(t, "おおむねはい", Classify("おおむねはいだと思います"))
	assert.Equal(t, "おおむねいいえ", Classify("おおむねいいえ"))
}

func TestHintLadder(t *testing.T) {
	s := NewSession(&scriptedGenerator{})
	s.Hints = [HintCount]string{"h1", "h2", "h3", "", ""}

	for _, want := range []string{"h1", "h2", "h3"} {
		hint, ok := s.Hint()
		require.True(t, ok)
		assert.Equal(t, want, hint)
	}
	_, ok := s.Hint()
	assert.False(t, ok)
}

// Interaction handlers run concurrently, so simultaneous hint requests must
// not double-reveal or corrupt the ladder position.
func TestHint_ConcurrentCalls(t *testing.T) {
	s := NewSession(&scriptedGenerator{})
	s.Hints = [HintCount]string{"h1", "h2", "h3", "h4", "h5"}

	var mu sync.Mutex
	revealed := map[string]int{}
	var wg sync.WaitGroup
	for i := 0; i < 2*HintCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if hint, ok := s.Hint(); ok {
				mu.Lock()
				revealed[hint]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Len(t, revealed, HintCount)
	for hint, n := range revealed {
		assert.Equal(t, 1, n, "hint %q revealed %d times", hint, n)
	}
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager(&scriptedGenerator{})

	_, ok := m.Get("g")
	assert.False(t, ok)

	first := m.Start("g")
	got, ok := m.Get("g")
	require.True(t, ok)
	assert.Same(t, first, got)

	// Starting again replaces the session.
	second := m.Start("g")
	assert.NotEqual(t, first.ID, second.ID)

	m.End("g")
	_, ok = m.Get("g")
	assert.False(t, ok)
}
