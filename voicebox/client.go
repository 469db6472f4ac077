// Package voicebox is a client for a VOICEVOX-compatible speech synthesis
// engine. It owns the speaker catalog and performs the two-phase
// audio_query/synthesis request pair that yields a WAV payload.
package voicebox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"
)

// DefaultStyle is the style assumed when a speaker is referenced without one.
const DefaultStyle = "ノーマル"

// ErrCatalogUnavailable is returned when the speaker catalog cannot be read
// or parsed. Voice resolution fails closed until Initialize succeeds.
var ErrCatalogUnavailable = errors.New("voicebox: speaker catalog unavailable")

// SynthesisError reports a failed synthesis request and which phase failed.
type SynthesisError struct {
	Phase string // "audio_query" or "synthesis"
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("voicebox: %s failed: %v", e.Phase, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// Style is one selectable voice of a speaker.
type Style struct {
	Name string      `json:"name"`
	ID   json.Number `json:"id"`
}

// Speaker is one entry of the engine's speaker catalog.
type Speaker struct {
	Name   string  `json:"name"`
	Styles []Style `json:"styles"`
}

// Client talks to the speech engine. Construct with New, then call
// Initialize before resolving voices.
type Client struct {
	baseURL      string
	speakersFile string
	httpClient   *http.Client

	mu      sync.RWMutex
	catalog []Speaker
}

// New creates a Client for the engine at baseURL. If speakersFile is
// non-empty the catalog is read from that local JSON file instead of the
// engine's /speakers endpoint.
func New(baseURL, speakersFile string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:      baseURL,
		speakersFile: speakersFile,
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Initialize loads the speaker catalog. It is idempotent: once loaded the
// catalog is immutable for the process lifetime and repeat calls are no-ops.
// On failure it returns ErrCatalogUnavailable (wrapped) and the client keeps
// refusing voice resolution until a retry succeeds.
func (c *Client) Initialize() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.catalog != nil {
		return nil
	}

	var data []byte
	var err error
	if c.speakersFile != "" {
		data, err = os.ReadFile(c.speakersFile)
		if err != nil {
			return fmt.Errorf("%w: reading %s: %v", ErrCatalogUnavailable, c.speakersFile, err)
		}
	} else {
		data, err = c.fetchSpeakers()
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
		}
	}

	var catalog []Speaker
	if err := json.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("%w: parsing catalog: %v", ErrCatalogUnavailable, err)
	}
	c.catalog = catalog
	return nil
}

func (c *Client) fetchSpeakers() ([]byte, error) {
	resp, err := c.httpClient.Get(c.baseURL + "/speakers")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET /speakers returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Ready reports whether the catalog has been loaded.
func (c *Client) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog != nil
}

// Speakers returns the loaded catalog. The returned slice must not be mutated.
func (c *Client) Speakers() []Speaker {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.catalog
}

// ResolveVoiceID finds the voice id for a speaker and style by exact,
// case-sensitive match. An empty style means DefaultStyle. A miss (or an
// unloaded catalog) returns ok=false; it is a normal lookup result, not an
// error.
func (c *Client) ResolveVoiceID(speakerName, styleName string) (voiceID string, ok bool) {
	if styleName == "" {
		styleName = DefaultStyle
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sp := range c.catalog {
		if sp.Name != speakerName {
			continue
		}
		for _, st := range sp.Styles {
			if st.Name == styleName {
				return st.ID.String(), true
			}
		}
	}
	return "", false
}

// ResolveStyleName is the inverse lookup: the style name owning voiceID.
func (c *Client) ResolveStyleName(voiceID string) (styleName string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, sp := range c.catalog {
		for _, st := range sp.Styles {
			if st.ID.String() == voiceID {
				return st.Name, true
			}
		}
	}
	return "", false
}

// Synthesize converts text to a WAV payload using the given voice and speed.
// Two requests are made: audio_query builds the synthesis profile, then
// synthesis renders it. The profile's speedScale is overridden with speed
// before rendering. No retries happen here; that policy belongs to the
// caller.
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, speed float64) ([]byte, error) {
	query, err := c.audioQuery(ctx, text, voiceID)
	if err != nil {
		return nil, &SynthesisError{Phase: "audio_query", Err: err}
	}

	query["speedScale"] = speed
	body, err := json.Marshal(query)
	if err != nil {
		return nil, &SynthesisError{Phase: "synthesis", Err: err}
	}

	audio, err := c.synthesis(ctx, body, voiceID)
	if err != nil {
		return nil, &SynthesisError{Phase: "synthesis", Err: err}
	}
	return audio, nil
}

func (c *Client) audioQuery(ctx context.Context, text, voiceID string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("speaker", voiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio_query?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("audio_query returned %s", resp.Status)
	}

	var query map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&query); err != nil {
		return nil, fmt.Errorf("decoding audio_query response: %w", err)
	}
	return query, nil
}

func (c *Client) synthesis(ctx context.Context, queryBody []byte, voiceID string) ([]byte, error) {
	params := url.Values{}
	params.Set("speaker", voiceID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/synthesis?"+params.Encode(), bytes.NewReader(queryBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("synthesis returned %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}
