package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// httpSource fetches a panel's content from an HTTP endpoint and splits
// the response body into lines.
type httpSource struct {
	url      string
	method   string
	headers  map[string]string
	timeout  time.Duration
	maxLines int
	client   *http.Client
}

func newHTTPSource(cfg Config) (*httpSource, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("http source: url is required")
	}
	parsed, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("http source: parsing url %q: %w", cfg.URL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("http source: unsupported scheme %q", parsed.Scheme)
	}

	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}

	return &httpSource{
		url:      cfg.URL,
		method:   method,
		headers:  cfg.Headers,
		timeout:  timeout,
		maxLines: cfg.MaxLines,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

func (s *httpSource) Fetch(ctx context.Context) (Payload, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, s.method, s.url, nil)
	if err != nil {
		return Payload{}, fmt.Errorf("fetching %s: %w", s.url, err)
	}
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Payload{}, fmt.Errorf("fetching %s: %w", s.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Payload{}, fmt.Errorf("fetching %s: HTTP %d", s.url, resp.StatusCode)
	}

	// Bodies beyond maxBodyBytes are cut off, not an error.
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Payload{}, fmt.Errorf("reading %s: %w", s.url, err)
	}

	if isJSON(resp.Header.Get("Content-Type")) {
		if lines, ok := jsonLines(body); ok {
			return Payload{
				Lines:     capLines(lines, s.maxLines),
				FetchedAt: time.Now(),
			}, nil
		}
	}

	lines, err := splitLines(string(body), s.maxLines)
	if err != nil {
		return Payload{}, fmt.Errorf("reading %s: %w", s.url, err)
	}
	return Payload{
		Lines:     lines,
		FetchedAt: time.Now(),
	}, nil
}

// isJSON reports whether a Content-Type header names a JSON payload,
// including +json structured syntaxes.
func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// jsonLines renders a JSON object as one "key: value" line per top-level
// field, in document order. String values print bare, composite values
// print compacted. Non-object or malformed documents report ok=false and
// the caller falls back to raw line splitting.
func jsonLines(body []byte) (lines []string, ok bool) {
	if !json.Valid(body) {
		return nil, false
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, false
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, isString := keyTok.(string)
		if !isString {
			return nil, false
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, false
		}
		lines = append(lines, key+": "+headlineValue(raw))
	}
	return lines, true
}

// headlineValue formats one JSON value for a headline line.
func headlineValue(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, trimmed); err != nil {
		return string(trimmed)
	}
	return compact.String()
}
