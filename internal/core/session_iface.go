package core

import "fmt"

type SessionID string

// SessionInfo identifies one connection attempt.
type SessionInfo struct {
	ID       SessionID
	URL      string
	Endpoint string
	Attempt  int
}

func (s SessionInfo) String() string {
	return fmt.Sprintf("%s#%d", s.ID, s.Attempt)
}

// CloseInfo describes why a session ended. Code is the close code sent by
// the peer, or 0 when the connection dropped without a close frame.
type CloseInfo struct {
	Code   int
	Reason string
	Err    error
}
