package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/wstail/internal/core"
)

var (
	ErrServerClosed    = errors.New("server closed the connection")
	ErrUnexpectedClose = errors.New("connection closed unexpectedly")
	ErrReadTimeout     = errors.New("read timeout")
)

const (
	sendQueueSize = 16
	writeWait     = 5 * time.Second
	closeGrace    = time.Second
)

var pingPrefix = []byte("ping")
var pongReply = core.Frame("pong")

type Options struct {
	URL      string
	Endpoint string
	Header   http.Header
	// TextPingReply answers text frames starting with "ping" with a "pong"
	// text frame. Protocol pings are always answered by the transport.
	TextPingReply bool
	ReadTimeout   time.Duration
	Policy        Policy
}

// Session owns the connect, receive, close loop against one endpoint.
type Session struct {
	dialer  core.Dialer
	handler core.Handler
	opts    Options

	newID func() core.SessionID
	sleep func(ctx context.Context, d time.Duration) error
}

func NewSession(dialer core.Dialer, handler core.Handler, opts Options) *Session {
	if opts.Policy == nil {
		opts.Policy = BackoffPolicy{}
	}
	return &Session{
		dialer:  dialer,
		handler: handler,
		opts:    opts,
		newID:   func() core.SessionID { return core.SessionID(uuid.NewString()) },
		sleep:   sleepCtx,
	}
}

// Run connects and receives until ctx is cancelled, the server closes the
// connection, or the policy gives up. Cancellation and a normal close from
// the server return nil.
func (s *Session) Run(ctx context.Context) error {
	retry := 0
	for attempt := 0; ; attempt++ {
		info := core.SessionInfo{
			ID:       s.newID(),
			URL:      s.opts.URL,
			Endpoint: s.opts.Endpoint,
			Attempt:  attempt,
		}
		delivered, err := s.runOnce(ctx, info)
		if ctx.Err() != nil {
			return nil
		}
		if errors.Is(err, ErrServerClosed) {
			return nil
		}
		if delivered > 0 {
			retry = 0
		}
		retry++

		action, wait := s.opts.Policy.OnDisconnect(err, retry)
		if action == Stop {
			return err
		}
		log.Warn().Err(err).Str("module", "app.session").Int("retry", retry).Dur("backoff", wait).Msg("reconnecting")
		if err := s.sleep(ctx, wait); err != nil {
			return nil
		}
	}
}

// runOnce drives a single connection and reports how many messages it delivered.
func (s *Session) runOnce(ctx context.Context, info core.SessionInfo) (int, error) {
	logger := log.With().Str("module", "app.session").Str("sid", string(info.ID)).Int("attempt", info.Attempt).Logger()

	conn, err := s.dialer.Dial(ctx, info.URL, s.opts.Header.Clone())
	if err != nil {
		if ctx.Err() != nil {
			return 0, err
		}
		logger.Error().Err(err).Str("url", info.URL).Msg("dial failed")
		s.handler.OnError(info, err)
		return 0, err
	}
	logger.Info().Str("url", info.URL).Msg("connected")
	s.handler.OnOpen(info)

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg        conc.WaitGroup
		delivered int
		readErr   error
	)
	send := make(chan core.Frame, sendQueueSize)
	readDone := make(chan struct{})

	wg.Go(func() {
		defer close(readDone)
		defer cancel()
		delivered, readErr = s.readPump(info, conn, send)
	})
	wg.Go(func() {
		s.writePump(connCtx, conn, send, readDone)
	})
	wg.Wait()

	closeInfo, err := classify(readErr)
	if ctx.Err() != nil {
		logger.Info().Msg("interrupted, connection closed")
		closeInfo = core.CloseInfo{Code: websocket.CloseNormalClosure, Reason: "interrupted"}
		err = nil
	} else if err != nil && !errors.Is(err, ErrServerClosed) {
		logger.Error().Err(err).Int("delivered", delivered).Msg("connection lost")
		s.handler.OnError(info, err)
	} else {
		logger.Info().Int("code", closeInfo.Code).Str("reason", closeInfo.Reason).Msg("server closed connection")
	}
	s.handler.OnClose(info, closeInfo)
	return delivered, err
}

// classify maps a read error onto the session error classes.
func classify(err error) (core.CloseInfo, error) {
	if err == nil {
		return core.CloseInfo{}, nil
	}
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		info := core.CloseInfo{Code: ce.Code, Reason: ce.Text}
		if ce.Code == websocket.CloseNormalClosure || ce.Code == websocket.CloseGoingAway {
			return info, fmt.Errorf("%w: %d %s", ErrServerClosed, ce.Code, ce.Text)
		}
		info.Err = err
		return info, fmt.Errorf("%w: %w", ErrUnexpectedClose, err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return core.CloseInfo{Err: err}, fmt.Errorf("%w: %w", ErrReadTimeout, err)
	}
	return core.CloseInfo{Err: err}, fmt.Errorf("%w: %w", ErrUnexpectedClose, err)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
