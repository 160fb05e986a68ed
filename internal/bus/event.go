package bus

import "time"

// Event represents a domain event published on the bus.
//
// Kinds in use: "session.state_changed", "session.qr_issued", "wa.message",
// "message.indexed", "sticker.imported", "sticker.sent",
// "sticker.send_failed".
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
