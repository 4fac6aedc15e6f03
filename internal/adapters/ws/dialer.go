// Package ws adapts gorilla/websocket to the core transport interfaces.
package ws

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/wstail/internal/core"
)

const controlWriteWait = 5 * time.Second

// HandshakeError is returned when the server answers the upgrade request
// with something other than 101 Switching Protocols.
type HandshakeError struct {
	Status int
	Body   string
	Err    error
}

func (e *HandshakeError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("handshake failed: %d %s: %s", e.Status, http.StatusText(e.Status), e.Body)
	}
	return fmt.Sprintf("handshake failed: %d %s", e.Status, http.StatusText(e.Status))
}

func (e *HandshakeError) Unwrap() error { return e.Err }

// Is lets callers match rejected credentials with errors.Is(err, core.ErrUnauthorized).
func (e *HandshakeError) Is(target error) bool {
	return target == core.ErrUnauthorized &&
		(e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// Dialer implements core.Dialer on top of websocket.Dialer.
type Dialer struct {
	HandshakeTimeout time.Duration
	// ReadLimit caps the size of a single incoming message, 0 keeps the library default.
	ReadLimit int64
	// ReadTimeout, when set, is extended every time the server pings.
	ReadTimeout time.Duration
}

func (d *Dialer) Dial(ctx context.Context, url string, header http.Header) (core.Conn, error) {
	wd := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: d.HandshakeTimeout,
	}
	conn, resp, err := wd.DialContext(ctx, url, header)
	if err != nil {
		if resp != nil && resp.StatusCode != http.StatusSwitchingProtocols {
			return nil, handshakeError(resp, err)
		}
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	conn.SetPingHandler(PingHandler(conn, d.ReadTimeout))
	log.Debug().Str("module", "adapters.ws").Str("url", url).Str("remote", conn.RemoteAddr().String()).Msg("connected")
	return conn, nil
}

func handshakeError(resp *http.Response, err error) error {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return &HandshakeError{
		Status: resp.StatusCode,
		Body:   strings.TrimSpace(string(body)),
		Err:    err,
	}
}

// PingHandler answers protocol pings with a pong carrying the same payload
// and pushes the read deadline forward when readTimeout is set.
func PingHandler(conn core.Conn, readTimeout time.Duration) func(string) error {
	return func(appData string) error {
		log.Trace().Str("module", "adapters.ws").Str("data", appData).Msg("ping")
		if readTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
				return err
			}
		}
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(controlWriteWait))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		return err
	}
}
