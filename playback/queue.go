// Package playback implements the per-guild read-aloud pipeline: an ordered
// queue of pending utterances per guild, drained by at most one worker
// goroutine per guild. Utterances are synthesized and played strictly in
// arrival order; one guild's backlog or failures never affect another's.
package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrNoVoiceConnection is returned by a Player when the guild has no active
// voice connection. The worker responds by discarding the remainder of the
// current drain pass.
var ErrNoVoiceConnection = errors.New("playback: no voice connection")

// Utterance is one unit of text scheduled for synthesis and playback.
// Immutable once enqueued.
type Utterance struct {
	Text    string
	VoiceID string
	Speed   float64
}

// Synthesizer converts an utterance into an audio payload.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voiceID string, speed float64) ([]byte, error)
}

// Player plays an audio payload into a guild's voice channel, blocking until
// playback finishes. It returns ErrNoVoiceConnection when the guild has no
// connection to play to.
type Player interface {
	Play(ctx context.Context, guildID string, audio []byte) error
}

// guildQueue is the queue state of a single guild. Access is serialized by
// the Manager's mutex.
type guildQueue struct {
	pending []Utterance
	active  bool
}

// Manager owns every guild's queue and spawns drain workers. Enqueue is safe
// for concurrent use from the gateway event goroutines.
type Manager struct {
	synth        Synthesizer
	player       Player
	synthTimeout time.Duration
	playTimeout  time.Duration

	mu     sync.Mutex
	queues map[string]*guildQueue
	wg     sync.WaitGroup

	onError func(context string, err error)
}

// Option configures a Manager.
type Option func(*Manager)

// WithSynthTimeout bounds each synthesis call.
func WithSynthTimeout(d time.Duration) Option {
	return func(m *Manager) { m.synthTimeout = d }
}

// WithPlayTimeout bounds each playback call.
func WithPlayTimeout(d time.Duration) Option {
	return func(m *Manager) { m.playTimeout = d }
}

// WithErrorHandler installs a callback for per-utterance failures, which are
// skipped rather than propagated.
func WithErrorHandler(fn func(context string, err error)) Option {
	return func(m *Manager) { m.onError = fn }
}

// NewManager creates a Manager draining through the given synthesizer and
// player.
func NewManager(synth Synthesizer, player Player, opts ...Option) *Manager {
	m := &Manager{
		synth:        synth,
		player:       player,
		synthTimeout: 15 * time.Second,
		playTimeout:  5 * time.Minute,
		queues:       make(map[string]*guildQueue),
		onError:      func(string, error) {},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Enqueue appends an utterance to the guild's queue and, when the guild is
// idle, starts its drain worker. The append and the start-if-idle check
// happen under one lock so two concurrent enqueues can never both spawn a
// worker for the same guild.
func (m *Manager) Enqueue(guildID string, u Utterance) {
	m.mu.Lock()
	defer m.mu.Unlock()

	q, ok := m.queues[guildID]
	if !ok {
		q = &guildQueue{}
		m.queues[guildID] = q
	}
	q.pending = append(q.pending, u)

	if !q.active {
		q.active = true
		m.wg.Add(1)
		go m.drain(guildID, q)
	}
}

// Pending reports how many utterances are queued for a guild.
func (m *Manager) Pending(guildID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[guildID]; ok {
		return len(q.pending)
	}
	return 0
}

// Active reports whether a drain worker is running for a guild.
func (m *Manager) Active(guildID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[guildID]; ok {
		return q.active
	}
	return false
}

// Clear drops every pending utterance for a guild. The utterance currently
// being played, if any, finishes; the worker then finds an empty queue and
// exits.
func (m *Manager) Clear(guildID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if q, ok := m.queues[guildID]; ok {
		q.pending = nil
	}
}

// Shutdown drops all pending utterances and waits for in-flight playback to
// finish.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	for _, q := range m.queues {
		q.pending = nil
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// drain is the worker loop: one instance per guild, alive for exactly one
// drain pass. It exits when the queue empties, flipping the guild back to
// idle under the same lock that Enqueue uses for its start-if-idle check.
func (m *Manager) drain(guildID string, q *guildQueue) {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		if len(q.pending) == 0 {
			q.active = false
			m.mu.Unlock()
			return
		}
		u := q.pending[0]
		q.pending = q.pending[1:]
		m.mu.Unlock()

		if abandoned := m.speak(guildID, u); abandoned {
			m.mu.Lock()
			q.pending = nil
			q.active = false
			m.mu.Unlock()
			return
		}
	}
}

// speak synthesizes and plays a single utterance. Synthesis failures and
// timeouts are reported and skipped. A missing voice connection abandons the
// drain pass (returns true): there is nobody to play the backlog to.
func (m *Manager) speak(guildID string, u Utterance) (abandoned bool) {
	synthCtx, cancel := context.WithTimeout(context.Background(), m.synthTimeout)
	audio, err := m.synth.Synthesize(synthCtx, u.Text, u.VoiceID, u.Speed)
	cancel()
	if err != nil {
		m.onError(fmt.Sprintf("synthesizing utterance for guild %s", guildID), err)
		return false
	}

	playCtx, cancel := context.WithTimeout(context.Background(), m.playTimeout)
	err = m.player.Play(playCtx, guildID, audio)
	cancel()
	if err != nil {
		if errors.Is(err, ErrNoVoiceConnection) {
			return true
		}
		m.onError(fmt.Sprintf("playing utterance for guild %s", guildID), err)
	}
	return false
}
