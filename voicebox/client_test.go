package voicebox

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `[
	{
		"name": "テスト話者1",
		"styles": [
			{"name": "ノーマル", "id": 1},
			{"name": "怒り", "id": 2}
		]
	},
	{
		"name": "テスト話者2",
		"styles": [
			{"name": "ノーマル", "id": 3}
		]
	}
]`

func writeCatalogFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "speakers.json")
	require.NoError(t, os.WriteFile(path, []byte(testCatalog), 0644))
	return path
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c := New(baseURL, writeCatalogFile(t), 5*time.Second)
	require.NoError(t, c.Initialize())
	return c
}

func TestInitialize_LocalFile(t *testing.T) {
	c := New("http://unused", writeCatalogFile(t), 0)
	require.NoError(t, c.Initialize())
	assert.True(t, c.Ready())
	assert.Len(t, c.Speakers(), 2)

	// Idempotent: a second call is a no-op.
	require.NoError(t, c.Initialize())
	assert.Len(t, c.Speakers(), 2)
}

func TestInitialize_HTTPEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/speakers", r.URL.Path)
		w.Write([]byte(testCatalog))
	}))
	defer srv.Close()

	c := New(srv.URL, "", 5*time.Second)
	require.NoError(t, c.Initialize())
	assert.Len(t, c.Speakers(), 2)
}

func TestInitialize_FailsClosed(t *testing.T) {
	c := New("http://unused", "/nonexistent/speakers.json", 0)
	err := c.Initialize()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
	assert.False(t, c.Ready())

	// Resolution refuses (misses) until a retry succeeds.
	_, ok := c.ResolveVoiceID("テスト話者1", "")
	assert.False(t, ok)
}

func TestResolveVoiceID(t *testing.T) {
	c := newTestClient(t, "http://unused")

	id, ok := c.ResolveVoiceID("テスト話者1", "")
	require.True(t, ok)
	assert.Equal(t, "1", id) // default style is ノーマル

	id, ok = c.ResolveVoiceID("テスト話者1", "怒り")
	require.True(t, ok)
	assert.Equal(t, "2", id)

	id, ok = c.ResolveVoiceID("テスト話者2", "")
	require.True(t, ok)
	assert.Equal(t, "3", id)

	_, ok = c.ResolveVoiceID("存在しない話者", "")
	assert.False(t, ok)

	_, ok = c.ResolveVoiceID("テスト話者1", "存在しないスタイル")
	assert.False(t, ok)
}

func TestResolveStyleName(t *testing.T) {
	c := newTestClient(t, "http://unused")

	name, ok := c.ResolveStyleName("1")
	require.True(t, ok)
	assert.Equal(t, "ノーマル", name)

	name, ok = c.ResolveStyleName("2")
	require.True(t, ok)
	assert.Equal(t, "怒り", name)

	_, ok = c.ResolveStyleName("999")
	assert.False(t, ok)
}

// Round-trip: every (speaker, style) in the catalog resolves to an id whose
// style name matches.
func TestResolveRoundTrip(t *testing.T) {
	c := newTestClient(t, "http://unused")

	for _, sp := range c.Speakers() {
		for _, st := range sp.Styles {
			id, ok := c.ResolveVoiceID(sp.Name, st.Name)
			require.True(t, ok)
			name, ok := c.ResolveStyleName(id)
			require.True(t, ok)
			assert.Equal(t, st.Name, name)
		}
	}
}

func TestSynthesize(t *testing.T) {
	wantAudio := []byte("RIFF-fake-wav-payload")
	var gotSpeed float64

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/audio_query":
			assert.Equal(t, "テストテキスト", r.URL.Query().Get("text"))
			assert.Equal(t, "1", r.URL.Query().Get("speaker"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"accent_phrases": []interface{}{},
				"speedScale":     1.0,
			})
		case "/synthesis":
			assert.Equal(t, "1", r.URL.Query().Get("speaker"))
			var query map[string]interface{}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&query))
			gotSpeed = query["speedScale"].(float64)
			w.Write(wantAudio)
		default:
			t.Errorf("unexpected request path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	audio, err := c.Synthesize(context.Background(), "テストテキスト", "1", 1.3)
	require.NoError(t, err)
	assert.Equal(t, wantAudio, audio)
	assert.Equal(t, 1.3, gotSpeed)
}

func TestSynthesize_QueryPhaseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Synthesize(context.Background(), "text", "1", 1.0)
	require.Error(t, err)

	var synthErr *SynthesisError
	require.True(t, errors.As(err, &synthErr))
	assert.Equal(t, "audio_query", synthErr.Phase)
}

func TestSynthesize_SynthesisPhaseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/audio_query" {
			json.NewEncoder(w).Encode(map[string]interface{}{"speedScale": 1.0})
			return
		}
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Synthesize(context.Background(), "text", "1", 1.0)
	require.Error(t, err)

	var synthErr *SynthesisError
	require.True(t, errors.As(err, &synthErr))
	assert.Equal(t, "synthesis", synthErr.Phase)
}

func TestSynthesize_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Synthesize(ctx, "text", "1", 1.0)
	require.Error(t, err)

	var synthErr *SynthesisError
	require.True(t, errors.As(err, &synthErr))
	assert.Equal(t, "audio_query", synthErr.Phase)
}
