package source

import (
	"context"
	"errors"
	"time"
)

// staticSource serves fixed lines after an optional delay. It backs
// demo configs and gives tests a deterministic source; with Fail set it
// fails instead, exercising the failure path end to end.
type staticSource struct {
	lines    []string
	delay    time.Duration
	fail     string
	maxLines int
}

func newStaticSource(cfg Config) (*staticSource, error) {
	return &staticSource{
		lines:    append([]string(nil), cfg.Lines...),
		delay:    cfg.Delay,
		fail:     cfg.Fail,
		maxLines: cfg.MaxLines,
	}, nil
}

func (s *staticSource) Fetch(ctx context.Context) (Payload, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return Payload{}, ctx.Err()
		}
	}

	if s.fail != "" {
		return Payload{}, errors.New(s.fail)
	}

	lines := capLines(s.lines, s.maxLines)
	return Payload{
		Lines:     append([]string(nil), lines...),
		FetchedAt: time.Now(),
	}, nil
}
