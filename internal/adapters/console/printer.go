// Package console prints session events to a terminal.
package console

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/wstail/internal/core"
	"github.com/dkeye/wstail/internal/domain"
)

type Format string

const (
	FormatPrefixed Format = "prefixed"
	FormatPlain    Format = "plain"
	FormatJSON     Format = "json"
)

type Options struct {
	Format Format
	// Sanitize strips control characters and invalid UTF-8 from text output.
	Sanitize bool
	// Endpoint selects how frames are decoded; hardware-status frames
	// are rendered as a summary line.
	Endpoint domain.Endpoint
}

// Printer implements core.Handler. Writes are serialized, so one Printer
// may be shared by several sessions.
type Printer struct {
	mu   sync.Mutex
	out  io.Writer
	opts Options
}

var _ core.Handler = (*Printer)(nil)

func NewPrinter(out io.Writer, opts Options) *Printer {
	if opts.Format == "" {
		opts.Format = FormatPrefixed
	}
	return &Printer{out: out, opts: opts}
}

type event struct {
	Time     time.Time              `json:"time"`
	Session  core.SessionID         `json:"session"`
	Attempt  int                    `json:"attempt"`
	Endpoint string                 `json:"endpoint,omitempty"`
	Event    string                 `json:"event"`
	Message  string                 `json:"message,omitempty"`
	Hardware *domain.HardwareStatus `json:"hardware,omitempty"`
	Code     int                    `json:"code,omitempty"`
	Reason   string                 `json:"reason,omitempty"`
	Error    string                 `json:"error,omitempty"`
}

func newEvent(s core.SessionInfo, name string) event {
	return event{
		Time:     time.Now(),
		Session:  s.ID,
		Attempt:  s.Attempt,
		Endpoint: s.Endpoint,
		Event:    name,
	}
}

func (p *Printer) OnOpen(s core.SessionInfo) {
	switch p.opts.Format {
	case FormatPrefixed:
		p.line("### Connected ###")
	case FormatJSON:
		p.writeJSON(newEvent(s, "open"))
	}
}

func (p *Printer) OnMessage(s core.SessionInfo, m core.Message) {
	text, hw := p.render(s, m)
	switch p.opts.Format {
	case FormatPrefixed:
		p.line("Received: " + text)
	case FormatPlain:
		p.line(text)
	case FormatJSON:
		e := newEvent(s, "message")
		e.Time = m.Received
		e.Hardware = hw
		if hw == nil {
			e.Message = text
		}
		p.writeJSON(e)
	}
}

func (p *Printer) OnError(s core.SessionInfo, err error) {
	switch p.opts.Format {
	case FormatPrefixed:
		p.line(fmt.Sprintf("Error: %v", err))
	case FormatJSON:
		e := newEvent(s, "error")
		e.Error = err.Error()
		p.writeJSON(e)
	}
}

func (p *Printer) OnClose(s core.SessionInfo, c core.CloseInfo) {
	switch p.opts.Format {
	case FormatPrefixed:
		p.line("### Closed ###")
	case FormatJSON:
		e := newEvent(s, "close")
		e.Code = c.Code
		e.Reason = c.Reason
		if c.Err != nil {
			e.Error = c.Err.Error()
		}
		p.writeJSON(e)
	}
}

// render returns the text to print for m and, for hardware-status frames
// that decode cleanly, the decoded reading.
func (p *Printer) render(s core.SessionInfo, m core.Message) (string, *domain.HardwareStatus) {
	if p.opts.Endpoint == domain.EndpointHardwareStatus && m.Type == core.TextMessage {
		var hw domain.HardwareStatus
		err := json.Unmarshal(m.Data, &hw)
		if err == nil {
			return hw.Summary(), &hw
		}
		log.Warn().Err(err).Str("module", "adapters.console").Str("sid", string(s.ID)).Msg("malformed hardware status")
	}
	var text string
	if p.opts.Sanitize {
		text = domain.Sanitize(m.Data)
	} else {
		text = string(m.Data)
	}
	return strings.TrimRight(text, "\r\n"), nil
}

func (p *Printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, err := fmt.Fprintln(p.out, s); err != nil {
		log.Error().Err(err).Str("module", "adapters.console").Msg("write output")
	}
}

func (p *Printer) writeJSON(e event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := json.NewEncoder(p.out).Encode(e); err != nil {
		log.Error().Err(err).Str("module", "adapters.console").Msg("encode output")
	}
}
