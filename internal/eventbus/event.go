package eventbus

import "time"

// Revision lifecycle event types.
const (
	EventRevisionSubmitted = "revision.submitted"
	EventRevisionApproved  = "revision.approved"
	EventRevisionRejected  = "revision.rejected"
)

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)
