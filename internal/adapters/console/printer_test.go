package console_test

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/wstail/internal/adapters/console"
	"github.com/dkeye/wstail/internal/core"
	"github.com/dkeye/wstail/internal/domain"
)

var session = core.SessionInfo{ID: "sid-1", URL: "ws://robot/logs", Endpoint: "logs"}

func text(s string) core.Message {
	return core.Message{Type: core.TextMessage, Data: []byte(s), Received: time.Now()}
}

func TestPrefixedPrintsEachFrameOnceInOrder(t *testing.T) {
	var buf bytes.Buffer
	p := console.NewPrinter(&buf, console.Options{Format: console.FormatPrefixed, Sanitize: true})

	p.OnOpen(session)
	p.OnMessage(session, text("one"))
	p.OnMessage(session, text("two\n"))
	p.OnMessage(session, text("three"))
	p.OnClose(session, core.CloseInfo{Code: 1000})

	assert.Equal(t, strings.Join([]string{
		"### Connected ###",
		"Received: one",
		"Received: two",
		"Received: three",
		"### Closed ###",
		"",
	}, "\n"), buf.String())
}

func TestPlainPrintsOnlyMessages(t *testing.T) {
	var buf bytes.Buffer
	p := console.NewPrinter(&buf, console.Options{Format: console.FormatPlain})

	p.OnOpen(session)
	p.OnMessage(session, text("line"))
	p.OnError(session, errors.New("boom"))
	p.OnClose(session, core.CloseInfo{})

	assert.Equal(t, "line\n", buf.String())
}

func TestPrefixedError(t *testing.T) {
	var buf bytes.Buffer
	p := console.NewPrinter(&buf, console.Options{})

	p.OnError(session, errors.New("connection refused"))
	assert.Equal(t, "Error: connection refused\n", buf.String())
}

func TestSanitize(t *testing.T) {
	var buf bytes.Buffer
	p := console.NewPrinter(&buf, console.Options{Format: console.FormatPlain, Sanitize: true})

	p.OnMessage(session, text("\x1b[1mbold\x00"))
	assert.Equal(t, "[1mbold\n", buf.String())
}

func TestHardwareStatusSummary(t *testing.T) {
	var buf bytes.Buffer
	p := console.NewPrinter(&buf, console.Options{Format: console.FormatPlain, Endpoint: domain.EndpointHardwareStatus})

	p.OnMessage(session, text(`{"cpu":10,"ram":20,"temperature":30,"storage":40,"battery":50,"uptime":60}`))
	p.OnMessage(session, text("not json"))

	assert.Equal(t,
		"cpu=10.0% ram=20.0% temp=30.0C storage=40.0% battery=50.0% uptime=60s\nnot json\n",
		buf.String())
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	p := console.NewPrinter(&buf, console.Options{Format: console.FormatJSON, Endpoint: domain.EndpointHardwareStatus})
	hw := session
	hw.Endpoint = string(domain.EndpointHardwareStatus)

	p.OnOpen(hw)
	p.OnMessage(hw, text(`{"cpu":12.5}`))
	p.OnClose(hw, core.CloseInfo{Code: 1000, Reason: "interrupted"})

	var events []map[string]any
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var e map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		events = append(events, e)
	}
	require.Len(t, events, 3)

	assert.Equal(t, "open", events[0]["event"])
	assert.Equal(t, "sid-1", events[0]["session"])
	assert.Equal(t, "message", events[1]["event"])
	assert.Equal(t, 12.5, events[1]["hardware"].(map[string]any)["cpu"])
	assert.Nil(t, events[1]["message"])
	assert.Equal(t, "close", events[2]["event"])
	assert.Equal(t, float64(1000), events[2]["code"])
	assert.Equal(t, "interrupted", events[2]["reason"])
}
