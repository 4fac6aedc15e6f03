package core

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// ErrUnauthorized is reported by Dialer implementations when the server
// rejects the credentials. It is never retried.
var ErrUnauthorized = errors.New("unauthorized")

//go:generate mockgen -destination=mocks/mock_core.go -package=mocks github.com/dkeye/wstail/internal/core Conn,Dialer,Handler

// Conn is an indirection over *websocket.Conn to ease testing.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	WriteControl(mt int, data []byte, deadline time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetReadLimit(limit int64)
	SetPingHandler(h func(appData string) error)
	Close() error
}

// Dialer opens a client connection. Implementations own the handshake,
// so header carries everything the server expects (Authorization, ...).
type Dialer interface {
	Dial(ctx context.Context, url string, header http.Header) (Conn, error)
}

// Handler receives the lifecycle of one session. Calls for a session are
// sequential: OnOpen, then OnMessage/OnError in arrival order, then OnClose.
type Handler interface {
	OnOpen(s SessionInfo)
	OnMessage(s SessionInfo, m Message)
	OnError(s SessionInfo, err error)
	OnClose(s SessionInfo, c CloseInfo)
}
