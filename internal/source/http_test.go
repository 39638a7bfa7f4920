package source

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSource(t *testing.T) {
	t.Run("FetchesBodyAsLines", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			_, _ = w.Write([]byte("orders: 120\nrefunds: 3\n"))
		}))
		defer srv.Close()

		s, err := New(Config{Type: TypeHTTP, URL: srv.URL})
		require.NoError(t, err)

		payload, err := s.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"orders: 120", "refunds: 3"}, payload.Lines)
		assert.False(t, payload.FetchedAt.IsZero())
	})

	t.Run("SendsConfiguredHeaders", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer token123", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		s, err := New(Config{
			Type:    TypeHTTP,
			URL:     srv.URL,
			Headers: map[string]string{"Authorization": "Bearer token123"},
		})
		require.NoError(t, err)

		_, err = s.Fetch(context.Background())
		require.NoError(t, err)
	})

	t.Run("NonOKStatusFails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		s, err := New(Config{Type: TypeHTTP, URL: srv.URL})
		require.NoError(t, err)

		_, err = s.Fetch(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 503")
	})

	t.Run("MaxLinesTruncates", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("1\n2\n3\n4\n5\n"))
		}))
		defer srv.Close()

		s, err := New(Config{Type: TypeHTTP, URL: srv.URL, MaxLines: 3})
		require.NoError(t, err)

		payload, err := s.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"1", "2", "3"}, payload.Lines)
	})

	t.Run("JSONObjectBecomesHeadlines", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			_, _ = w.Write([]byte(`{"status":"ok","uptime":86400,"checks":{"db":"up","cache":"up"}}`))
		}))
		defer srv.Close()

		s, err := New(Config{Type: TypeHTTP, URL: srv.URL})
		require.NoError(t, err)

		payload, err := s.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{
			"status: ok",
			"uptime: 86400",
			`checks: {"db":"up","cache":"up"}`,
		}, payload.Lines)
	})

	t.Run("MalformedJSONFallsBackToRawLines", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("502 Bad Gateway from the proxy\nretry later\n"))
		}))
		defer srv.Close()

		s, err := New(Config{Type: TypeHTTP, URL: srv.URL})
		require.NoError(t, err)

		payload, err := s.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"502 Bad Gateway from the proxy", "retry later"}, payload.Lines)
	})

	t.Run("JSONArrayStaysRaw", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[1,2,3]`))
		}))
		defer srv.Close()

		s, err := New(Config{Type: TypeHTTP, URL: srv.URL})
		require.NoError(t, err)

		payload, err := s.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{`[1,2,3]`}, payload.Lines)
	})

	t.Run("BodyCappedAtLimit", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write(bytes.Repeat([]byte("x"), maxBodyBytes))
			_, _ = w.Write([]byte("\nbeyond the cap\n"))
		}))
		defer srv.Close()

		s, err := New(Config{Type: TypeHTTP, URL: srv.URL})
		require.NoError(t, err)

		payload, err := s.Fetch(context.Background())
		require.NoError(t, err)
		require.Len(t, payload.Lines, 1)
		assert.Len(t, payload.Lines[0], maxBodyBytes)
		assert.NotContains(t, payload.Lines[0], "beyond")
	})

	t.Run("CancelledContextFails", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		defer srv.Close()

		s, err := New(Config{Type: TypeHTTP, URL: srv.URL})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err = s.Fetch(ctx)
		assert.Error(t, err)
	})

	t.Run("CustomMethod", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			_, _ = w.Write([]byte("created"))
		}))
		defer srv.Close()

		s, err := New(Config{Type: TypeHTTP, URL: srv.URL, Method: http.MethodPost})
		require.NoError(t, err)

		payload, err := s.Fetch(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"created"}, payload.Lines)
	})

	t.Run("MissingURLFails", func(t *testing.T) {
		_, err := New(Config{Type: TypeHTTP})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "url is required")
	})

	t.Run("UnsupportedSchemeFails", func(t *testing.T) {
		_, err := New(Config{Type: TypeHTTP, URL: "ftp://example.com/data"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported scheme")
	})
}

func TestIsJSON(t *testing.T) {
	assert.True(t, isJSON("application/json"))
	assert.True(t, isJSON("application/json; charset=utf-8"))
	assert.True(t, isJSON("application/health+json"))
	assert.False(t, isJSON("text/plain"))
	assert.False(t, isJSON(""))
}

func TestJSONLines(t *testing.T) {
	t.Run("ValueKinds", func(t *testing.T) {
		lines, ok := jsonLines([]byte(`{
			"name": "api",
			"healthy": true,
			"latency_ms": 12.5,
			"region": null,
			"hosts": ["a", "b"],
			"deps": {"db": "up"}
		}`))
		require.True(t, ok)
		assert.Equal(t, []string{
			"name: api",
			"healthy: true",
			"latency_ms: 12.5",
			"region: null",
			`hosts: ["a","b"]`,
			`deps: {"db":"up"}`,
		}, lines)
	})

	t.Run("EmptyObject", func(t *testing.T) {
		lines, ok := jsonLines([]byte(`{}`))
		assert.True(t, ok)
		assert.Empty(t, lines)
	})

	t.Run("NonObjectRejected", func(t *testing.T) {
		for _, body := range []string{`[1,2]`, `"text"`, `42`, `true`, ``, `{"a":`} {
			_, ok := jsonLines([]byte(body))
			assert.False(t, ok, "body %q", body)
		}
	})
}
