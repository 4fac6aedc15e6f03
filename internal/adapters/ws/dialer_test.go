package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/wstail/internal/adapters/ws"
	"github.com/dkeye/wstail/internal/core"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestDialSendsHeader(t *testing.T) {
	gotAuth := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth <- r.Header.Get("Authorization")
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte("hello"))
	}))
	defer srv.Close()

	d := &ws.Dialer{HandshakeTimeout: time.Second}
	conn, err := d.Dial(context.Background(), wsURL(srv), http.Header{"Authorization": {"Bearer robotics"}})
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "Bearer robotics", <-gotAuth)
	mt, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, mt)
	assert.Equal(t, "hello", string(data))
}

func TestDialUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := &ws.Dialer{HandshakeTimeout: time.Second}
	_, err := d.Dial(context.Background(), wsURL(srv), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnauthorized)

	var he *ws.HandshakeError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusUnauthorized, he.Status)
	assert.Contains(t, he.Body, "Unauthorized")
}

func TestDialNotFoundIsNotUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	d := &ws.Dialer{HandshakeTimeout: time.Second}
	_, err := d.Dial(context.Background(), wsURL(srv), nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, core.ErrUnauthorized)
}

func TestDialRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	d := &ws.Dialer{HandshakeTimeout: time.Second}
	_, err := d.Dial(context.Background(), url, nil)
	require.Error(t, err)

	var he *ws.HandshakeError
	assert.NotErrorAs(t, err, &he)
}

func TestPingAnsweredWithPong(t *testing.T) {
	pong := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := (&websocket.Upgrader{}).Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.SetPongHandler(func(data string) error {
			pong <- data
			return nil
		})
		_ = conn.WriteControl(websocket.PingMessage, []byte("are-you-there"), time.Now().Add(time.Second))
		// Reading drives the pong handler.
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	d := &ws.Dialer{HandshakeTimeout: time.Second, ReadTimeout: time.Second}
	conn, err := d.Dial(context.Background(), wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	// Reading drives the ping handler on the client side.
	go func() { _, _, _ = conn.ReadMessage() }()

	select {
	case data := <-pong:
		assert.Equal(t, "are-you-there", data)
	case <-time.After(2 * time.Second):
		t.Fatal("no pong received")
	}
}
