// internal/session/notification.go
package session

import (
	"time"

	"serial-terminal/internal/transport"
)

// Kind discriminates the asynchronous notifications the background loop
// emits toward the foreground.
type Kind string

const (
	// KindStatus reports the channel opening or closing.
	KindStatus Kind = "status"
	// KindData carries received bytes in delivery order.
	KindData Kind = "data"
	// KindError carries a transient, user-visible error message.
	KindError Kind = "error"
	// KindLineState carries a modem line snapshot.
	KindLineState Kind = "line_state"
)

// Notification is one ordered event from the session manager. Only the
// fields matching Kind are populated.
type Notification struct {
	Kind      Kind                 `json:"kind"`
	Open      bool                 `json:"open,omitempty"`
	Config    *transport.Config    `json:"config,omitempty"`
	Data      []byte               `json:"data,omitempty"`
	Message   string               `json:"message,omitempty"`
	Lines     *transport.LineState `json:"lines,omitempty"`
	Timestamp time.Time            `json:"timestamp"`
}

func statusNotification(open bool, cfg *transport.Config) Notification {
	return Notification{Kind: KindStatus, Open: open, Config: cfg, Timestamp: time.Now()}
}

func dataNotification(data []byte) Notification {
	return Notification{Kind: KindData, Data: data, Timestamp: time.Now()}
}

func errorNotification(message string) Notification {
	return Notification{Kind: KindError, Message: message, Timestamp: time.Now()}
}

func lineStateNotification(lines transport.LineState) Notification {
	return Notification{Kind: KindLineState, Lines: &lines, Timestamp: time.Now()}
}
