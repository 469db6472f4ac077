// Package dispatch turns qualifying channel messages into playback
// utterances: it filters by guild settings, rewrites the text into something
// worth hearing, resolves the effective voice, and appends to the guild's
// playback queue. Nothing here blocks on I/O; synthesis and playback happen
// in the queue's worker.
package dispatch

import (
	"regexp"
	"strings"

	"github.com/hazuki-dev/yomiko/playback"
	"github.com/hazuki-dev/yomiko/settings"
)

// maxUtteranceRunes caps how much of a long message gets read aloud.
const maxUtteranceRunes = 120

// truncationSuffix is appended when a message is cut at the cap.
const truncationSuffix = "、以下省略"

// urlPlaceholder replaces links, which are noise when synthesized.
const urlPlaceholder = "URL省略"

var (
	urlPattern         = regexp.MustCompile(`https?://\S+`)
	customEmojiPattern = regexp.MustCompile(`<a?:([0-9A-Za-z_]+):\d+>`)
	mentionPattern     = regexp.MustCompile(`<(@[!&]?|#)\d+>`)
)

// Message is one inbound text event from the platform gateway.
type Message struct {
	GuildID   string
	UserID    string
	ChannelID string
	Text      string
	Bot       bool
}

// Enqueuer is the playback queue surface the dispatcher needs.
type Enqueuer interface {
	Enqueue(guildID string, u playback.Utterance)
}

// Dispatcher wires the settings store to the playback queue.
type Dispatcher struct {
	settings *settings.Store
	queue    Enqueuer
}

// New creates a Dispatcher.
func New(store *settings.Store, queue Enqueuer) *Dispatcher {
	return &Dispatcher{settings: store, queue: queue}
}

// HandleMessage processes one inbound message, returning true when an
// utterance was enqueued.
func (d *Dispatcher) HandleMessage(msg Message) bool {
	if msg.Bot || msg.GuildID == "" {
		return false
	}

	gs := d.settings.Guild(msg.GuildID)
	if !gs.Enabled {
		return false
	}
	if gs.TargetChannelID != "" && msg.ChannelID != gs.TargetChannelID {
		return false
	}

	text := ApplyDictionary(msg.Text, gs.Dictionary)
	text = Normalize(text)
	if text == "" {
		return false
	}

	voiceID, speed := d.settings.EffectiveVoice(msg.GuildID, msg.UserID)
	d.queue.Enqueue(msg.GuildID, playback.Utterance{
		Text:    text,
		VoiceID: voiceID,
		Speed:   speed,
	})
	return true
}

// ApplyDictionary applies the guild's substitutions in insertion order, each
// entry once per message.
func ApplyDictionary(text string, dictionary []settings.DictionaryEntry) string {
	for _, entry := range dictionary {
		text = strings.ReplaceAll(text, entry.Raw, entry.Replacement)
	}
	return text
}

// Normalize rewrites message markup into speakable text: custom emoji become
// their names, mentions are dropped, URLs collapse to a placeholder, and the
// result is trimmed and capped.
func Normalize(text string) string {
	text = customEmojiPattern.ReplaceAllString(text, "$1")
	text = mentionPattern.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, urlPlaceholder)
	text = strings.TrimSpace(text)

	runes := []rune(text)
	if len(runes) > maxUtteranceRunes {
		text = string(runes[:maxUtteranceRunes]) + truncationSuffix
	}
	return text
}
