package app

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/wstail/internal/core"
)

// readPump hands every data frame to the handler, in order, until the
// connection fails or closes.
func (s *Session) readPump(info core.SessionInfo, conn core.Conn, send chan<- core.Frame) (int, error) {
	delivered := 0
	for {
		if s.opts.ReadTimeout > 0 {
			if err := conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout)); err != nil {
				return delivered, err
			}
		}
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return delivered, err
		}
		s.handler.OnMessage(info, core.Message{
			Type:     core.MessageType(mt),
			Data:     data,
			Received: time.Now(),
		})
		delivered++

		if s.opts.TextPingReply && mt == websocket.TextMessage && bytes.HasPrefix(data, pingPrefix) {
			select {
			case send <- pongReply:
			default:
				log.Warn().Str("module", "app.session").Str("sid", string(info.ID)).Msg("send queue full, pong dropped")
			}
		}
	}
}

// writePump is the only writer of data frames. When ctx ends it sends a
// close frame and waits up to closeGrace for the reader to see the echo
// before closing the connection.
func (s *Session) writePump(ctx context.Context, conn core.Conn, send <-chan core.Frame, readDone <-chan struct{}) {
	defer conn.Close()
	for {
		select {
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
				log.Debug().Err(err).Str("module", "app.session").Msg("write close frame")
				return
			}
			select {
			case <-readDone:
			case <-time.After(closeGrace):
			}
			return
		case data := <-send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error().Err(err).Str("module", "app.session").Msg("writePump set deadline")
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "app.session").Msg("writePump write error")
				return
			}
		}
	}
}
