package core

import "time"

// Frame is a raw payload.
type Frame []byte

type MessageType int

// Data frame opcodes, numbered as in RFC 6455.
const (
	TextMessage   MessageType = 1
	BinaryMessage MessageType = 2
)

func (t MessageType) String() string {
	switch t {
	case TextMessage:
		return "text"
	case BinaryMessage:
		return "binary"
	}
	return "unknown"
}

// Message is one data frame received from the server.
type Message struct {
	Type     MessageType
	Data     Frame
	Received time.Time
}
