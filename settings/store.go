// Package settings holds the per-guild read-aloud configuration and per-user
// voice overrides. The in-memory store is authoritative; an optional
// persistence backend receives best-effort snapshots on mutation and restores
// them at boot.
package settings

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
)

var (
	// ErrInvalidOption is returned for an unrecognized configuration key.
	ErrInvalidOption = errors.New("settings: invalid option")
	// ErrInvalidValue is returned when a value fails validation for its key.
	ErrInvalidValue = errors.New("settings: invalid value")
)

// DictionaryEntry is one text substitution, applied to messages before
// synthesis. Entries apply in insertion order, each once per message.
type DictionaryEntry struct {
	Raw         string `json:"raw"`
	Replacement string `json:"replacement"`
}

// GuildSettings is the read-aloud configuration of one guild.
type GuildSettings struct {
	Enabled         bool              `json:"enabled"`
	DefaultVoiceID  string            `json:"default_voice_id"`
	Speed           float64           `json:"speed"`
	TargetChannelID string            `json:"target_channel_id"`
	Dictionary      []DictionaryEntry `json:"dictionary"`
}

// Persistence stores settings snapshots durably. Implementations must be safe
// for concurrent use.
type Persistence interface {
	SaveGuildSettings(guildID string, gs *GuildSettings) error
	LoadAllGuildSettings() (map[string]*GuildSettings, error)
	SaveUserVoice(userID, voiceID string) error
	LoadAllUserVoices() (map[string]string, error)
	Ping() error
	Close() error
}

// Store is the process-wide settings registry, sharded by guild and user id.
type Store struct {
	mu            sync.RWMutex
	guilds        map[string]*GuildSettings
	users         map[string]string // userID -> voice id override
	fallbackVoice string
	persistence   Persistence
	onSaveError   func(context string, err error)
}

// NewStore creates a Store. fallbackVoice is the process-wide default voice
// used when neither a user override nor a guild default exists. persistence
// may be nil for a purely in-memory store.
func NewStore(fallbackVoice string, persistence Persistence) *Store {
	return &Store{
		guilds:        make(map[string]*GuildSettings),
		users:         make(map[string]string),
		fallbackVoice: fallbackVoice,
		persistence:   persistence,
	}
}

// SetSaveErrorHandler installs a callback for persistence failures, which are
// otherwise silent (the in-memory state is still mutated).
func (s *Store) SetSaveErrorHandler(fn func(context string, err error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onSaveError = fn
}

func (s *Store) defaultGuildSettings() *GuildSettings {
	return &GuildSettings{
		Enabled:        true,
		DefaultVoiceID: "",
		Speed:          1.0,
	}
}

// locked returns the live record for guildID, materializing defaults on first
// access. Callers must hold s.mu.
func (s *Store) locked(guildID string) *GuildSettings {
	gs, ok := s.guilds[guildID]
	if !ok {
		gs = s.defaultGuildSettings()
		s.guilds[guildID] = gs
	}
	return gs
}

// Guild returns a copy of the settings for guildID, creating a default-valued
// record on first access. It never fails.
func (s *Store) Guild(guildID string) GuildSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := s.locked(guildID)
	out := *gs
	out.Dictionary = append([]DictionaryEntry(nil), gs.Dictionary...)
	return out
}

// SetGuildOption validates and applies one configuration option. Recognized
// keys: enabled, default_voice_id, speed, dictionary_entry, target_channel.
// dictionary_entry takes "raw=replacement" values.
func (s *Store) SetGuildOption(guildID, option, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := s.locked(guildID)

	switch option {
	case "enabled":
		enabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: enabled must be a boolean, got %q", ErrInvalidValue, value)
		}
		gs.Enabled = enabled
	case "default_voice_id":
		gs.DefaultVoiceID = value
	case "speed":
		speed, err := strconv.ParseFloat(value, 64)
		if err != nil || speed <= 0 || math.IsInf(speed, 0) || math.IsNaN(speed) {
			return fmt.Errorf("%w: speed must be a positive finite number, got %q", ErrInvalidValue, value)
		}
		gs.Speed = speed
	case "dictionary_entry":
		raw, replacement, found := strings.Cut(value, "=")
		if !found || raw == "" {
			return fmt.Errorf("%w: dictionary_entry must be raw=replacement, got %q", ErrInvalidValue, value)
		}
		s.upsertDictionaryEntry(gs, raw, replacement)
	case "target_channel":
		gs.TargetChannelID = value
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOption, option)
	}

	s.saveGuild(guildID, gs)
	return nil
}

// upsertDictionaryEntry replaces an existing entry for raw in place, keeping
// its insertion position, or appends a new one.
func (s *Store) upsertDictionaryEntry(gs *GuildSettings, raw, replacement string) {
	for i := range gs.Dictionary {
		if gs.Dictionary[i].Raw == raw {
			gs.Dictionary[i].Replacement = replacement
			return
		}
	}
	gs.Dictionary = append(gs.Dictionary, DictionaryEntry{Raw: raw, Replacement: replacement})
}

// RemoveDictionaryEntry deletes the entry for raw. Returns false when no such
// entry exists.
func (s *Store) RemoveDictionaryEntry(guildID, raw string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := s.locked(guildID)
	for i := range gs.Dictionary {
		if gs.Dictionary[i].Raw == raw {
			gs.Dictionary = append(gs.Dictionary[:i], gs.Dictionary[i+1:]...)
			s.saveGuild(guildID, gs)
			return true
		}
	}
	return false
}

// ResetGuild restores guildID to default settings.
func (s *Store) ResetGuild(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := s.defaultGuildSettings()
	s.guilds[guildID] = gs
	s.saveGuild(guildID, gs)
}

// SetUserVoice records a per-user voice override, independent of guild.
func (s *Store) SetUserVoice(userID, voiceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[userID] = voiceID
	if s.persistence != nil {
		if err := s.persistence.SaveUserVoice(userID, voiceID); err != nil && s.onSaveError != nil {
			s.onSaveError(fmt.Sprintf("saving voice override for user %s", userID), err)
		}
	}
}

// UserVoice returns the voice override for userID, if any.
func (s *Store) UserVoice(userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.users[userID]
	return v, ok
}

// ResetUserVoice removes the override for userID.
func (s *Store) ResetUserVoice(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	if s.persistence != nil {
		if err := s.persistence.SaveUserVoice(userID, ""); err != nil && s.onSaveError != nil {
			s.onSaveError(fmt.Sprintf("clearing voice override for user %s", userID), err)
		}
	}
}

// EffectiveVoice resolves the voice and speed for a message. Resolution
// order is fixed: user override, then guild default, then the process-wide
// fallback voice.
func (s *Store) EffectiveVoice(guildID, userID string) (voiceID string, speed float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gs := s.locked(guildID)

	voiceID = s.fallbackVoice
	if gs.DefaultVoiceID != "" {
		voiceID = gs.DefaultVoiceID
	}
	if override, ok := s.users[userID]; ok && override != "" {
		voiceID = override
	}
	return voiceID, gs.Speed
}

// saveGuild snapshots one guild record. Callers must hold s.mu.
func (s *Store) saveGuild(guildID string, gs *GuildSettings) {
	if s.persistence == nil {
		return
	}
	snapshot := *gs
	snapshot.Dictionary = append([]DictionaryEntry(nil), gs.Dictionary...)
	if err := s.persistence.SaveGuildSettings(guildID, &snapshot); err != nil && s.onSaveError != nil {
		s.onSaveError(fmt.Sprintf("saving settings for guild %s", guildID), err)
	}
}

// Load restores all persisted settings into the store, replacing current
// in-memory state for the restored ids.
func (s *Store) Load() error {
	if s.persistence == nil {
		return nil
	}

	guilds, err := s.persistence.LoadAllGuildSettings()
	if err != nil {
		return fmt.Errorf("loading guild settings: %w", err)
	}
	users, err := s.persistence.LoadAllUserVoices()
	if err != nil {
		return fmt.Errorf("loading user voice overrides: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, gs := range guilds {
		s.guilds[id] = gs
	}
	for id, voice := range users {
		if voice != "" {
			s.users[id] = voice
		}
	}
	return nil
}

// Flush writes every record to persistence. Called at shutdown.
func (s *Store) Flush() error {
	if s.persistence == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, gs := range s.guilds {
		if err := s.persistence.SaveGuildSettings(id, gs); err != nil {
			return fmt.Errorf("flushing settings for guild %s: %w", id, err)
		}
	}
	for id, voice := range s.users {
		if err := s.persistence.SaveUserVoice(id, voice); err != nil {
			return fmt.Errorf("flushing voice override for user %s: %w", id, err)
		}
	}
	return nil
}
