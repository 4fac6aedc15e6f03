package app

import (
	"errors"
	"math/rand"
	"time"

	"github.com/dkeye/wstail/internal/core"
)

type ReconnectAction int

const (
	Stop ReconnectAction = iota
	Retry
)

// Policy decides what happens after a session ends with err.
// retry counts consecutive failed sessions, starting at 1.
type Policy interface {
	OnDisconnect(err error, retry int) (ReconnectAction, time.Duration)
}

// BackoffPolicy retries with exponential backoff and jitter.
// MaxAttempts 0 never retries, a negative value retries forever.
type BackoffPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	// Jitter returns a value in [0, 1). Nil uses math/rand.
	Jitter func() float64
}

func (p BackoffPolicy) OnDisconnect(err error, retry int) (ReconnectAction, time.Duration) {
	if !Retryable(err) {
		return Stop, 0
	}
	if p.MaxAttempts >= 0 && retry > p.MaxAttempts {
		return Stop, 0
	}
	return Retry, p.delay(retry)
}

func (p BackoffPolicy) delay(retry int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < retry && d < p.MaxBackoff; i++ {
		d *= 2
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	jitter := p.Jitter
	if jitter == nil {
		jitter = rand.Float64
	}
	// Wait somewhere in [d/2, d).
	half := d / 2
	return half + time.Duration(jitter()*float64(d-half))
}

// Retryable reports whether a session that ended with err is worth
// another attempt. Rejected credentials and normal closes are final.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrServerClosed):
		return false
	case errors.Is(err, core.ErrUnauthorized):
		return false
	}
	return true
}
