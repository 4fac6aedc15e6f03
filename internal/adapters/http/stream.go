package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/dkeye/wstail/internal/domain"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Supervisor serves the streaming endpoints of the robotics supervisor.
type Supervisor struct {
	Logs         LogSource
	Status       func() domain.HardwareStatus
	PingPeriod   time.Duration
	StatusPeriod time.Duration
}

func (s *Supervisor) HandleLogs(ctx context.Context, c *gin.Context) {
	name := c.Query(domain.ContainerQuery)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": domain.ContainerQuery + " required"})
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	lines, err := s.Logs.Lines(ctx, name)
	if errors.Is(err, ErrUnknownContainer) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "adapters.http").Str("container", name).Msg("log stream opened")

	frames := make(chan []byte)
	go func() {
		defer close(frames)
		for line := range lines {
			select {
			case <-ctx.Done():
				return
			case frames <- []byte(domain.Sanitize([]byte(line))):
			}
		}
	}()
	s.stream(ctx, conn, frames)
}

func (s *Supervisor) HandleHardwareStatus(ctx context.Context, c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("ws upgrade")
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan []byte)
	go func() {
		defer close(frames)
		t := time.NewTicker(s.StatusPeriod)
		defer t.Stop()
		for {
			data, err := json.Marshal(s.Status())
			if err != nil {
				log.Error().Err(err).Str("module", "adapters.http").Msg("marshal hardware status")
				return
			}
			select {
			case <-ctx.Done():
				return
			case frames <- data:
			}
			select {
			case <-ctx.Done():
				return
			case <-t.C:
			}
		}
	}()
	s.stream(ctx, conn, frames)
}

// stream writes frames as text messages until the channel closes, the
// client goes away or ctx ends. Text "ping" from the client gets a "pong".
func (s *Supervisor) stream(ctx context.Context, conn *websocket.Conn, frames <-chan []byte) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	replies := make(chan []byte, 4)
	var wg conc.WaitGroup
	wg.Go(func() {
		defer cancel()
		s.readLoop(conn, replies)
	})
	wg.Go(func() {
		// Closing the connection unblocks the read loop.
		defer conn.Close()
		defer cancel()
		s.writeLoop(ctx, conn, frames, replies)
	})
	wg.Wait()
}

func (s *Supervisor) readLoop(conn *websocket.Conn, replies chan<- []byte) {
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("module", "adapters.http").Msg("read")
			}
			return
		}
		if mt == websocket.TextMessage && bytes.HasPrefix(data, []byte("ping")) {
			select {
			case replies <- []byte("pong"):
			default:
			}
		}
	}
}

func (s *Supervisor) writeLoop(ctx context.Context, conn *websocket.Conn, frames <-chan []byte, replies <-chan []byte) {
	ping := time.NewTicker(s.PingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			// The read loop saw the client go away.
			return
		case data, ok := <-frames:
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "end of stream")
				if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); err != nil {
					log.Debug().Err(err).Str("module", "adapters.http").Msg("write close")
					return
				}
				// Wait for the client to echo the close frame.
				select {
				case <-ctx.Done():
				case <-time.After(time.Second):
				}
				return
			}
			if err := s.write(conn, data); err != nil {
				return
			}
		case data := <-replies:
			if err := s.write(conn, data); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				log.Debug().Err(err).Str("module", "adapters.http").Msg("write ping")
				return
			}
		}
	}
}

func (s *Supervisor) write(conn *websocket.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("write")
		return err
	}
	return nil
}
