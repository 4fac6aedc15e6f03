package http

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/dkeye/wstail/internal/domain"
)

var ErrUnknownContainer = errors.New("unknown container")

// LogSource yields the log lines of one container. The channel is closed
// when the log ends or ctx is done.
type LogSource interface {
	Lines(ctx context.Context, container string) (<-chan string, error)
}

// StaticLogSource replays fixed lines per container, then ends the stream.
type StaticLogSource struct {
	Logs   map[string][]string
	Period time.Duration
}

func (s StaticLogSource) Lines(ctx context.Context, container string) (<-chan string, error) {
	lines, ok := s.Logs[container]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownContainer, container)
	}
	out := make(chan string)
	go func() {
		defer close(out)
		for _, line := range lines {
			select {
			case <-ctx.Done():
				return
			case out <- line:
			}
			if s.Period > 0 {
				select {
				case <-ctx.Done():
					return
				case <-time.After(s.Period):
				}
			}
		}
	}()
	return out, nil
}

// TickerLogSource produces an endless heartbeat log for any container.
type TickerLogSource struct {
	Period time.Duration
}

func (s TickerLogSource) Lines(ctx context.Context, container string) (<-chan string, error) {
	out := make(chan string)
	go func() {
		defer close(out)
		t := time.NewTicker(s.Period)
		defer t.Stop()
		for n := 1; ; n++ {
			select {
			case <-ctx.Done():
				return
			case now := <-t.C:
				line := fmt.Sprintf("%s %s heartbeat %d", now.Format(time.RFC3339), container, n)
				select {
				case <-ctx.Done():
					return
				case out <- line:
				}
			}
		}
	}()
	return out, nil
}

// RandomStatus returns made-up readings, the same way a device without
// sensors reports them.
func RandomStatus() domain.HardwareStatus {
	return domain.HardwareStatus{
		Cpu:         rand.Float64() * 100.0,
		Temperature: rand.Float64() * 100.0,
		Ram:         rand.Float64() * 100.0,
		Storage:     rand.Float64() * 100.0,
	}
}
