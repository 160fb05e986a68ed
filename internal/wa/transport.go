// Package wa binds the WhatsApp transport. The session manager consumes the
// Transport/Handle interfaces and the closed event set defined here; the
// whatsmeow-backed Adapter is the production implementation.
package wa

import (
	"context"
	"fmt"
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
)

// Transport establishes sessions against the messaging network using the
// durable credential state it was configured with.
type Transport interface {
	// Establish starts a connection attempt and returns a handle for it.
	// Connection progress (QR issuance, open, close) is reported
	// asynchronously through onEvent. The returned handle stays valid until
	// a Closed event is delivered or Close is called.
	Establish(ctx context.Context, onEvent func(Event)) (Handle, error)
}

// Handle is an active transport connection.
type Handle interface {
	// SendSticker transmits sticker bytes to the destination, optionally
	// quoting a previously observed message. Returns the transport-assigned
	// message id.
	SendSticker(ctx context.Context, destination string, data []byte, quoted *Message) (string, error)
	// DownloadSticker fetches the sticker media of an observed message.
	DownloadSticker(ctx context.Context, msg *Message) ([]byte, error)
	// Close forcibly tears down the connection. No Closed event follows.
	Close()
}

// Event is a transport lifecycle or inbound-traffic event. The set is
// closed: QRIssued, Opened, Closed, MessageReceived.
type Event interface {
	transportEvent()
}

// QRIssued reports a scannable pairing code.
type QRIssued struct {
	Text string
}

// Opened reports a fully established session.
type Opened struct {
	Identity string
}

// Closed reports connection loss with a classifiable reason.
type Closed struct {
	Reason CloseReason
}

// MessageReceived reports an inbound chat message.
type MessageReceived struct {
	Message *Message
}

func (QRIssued) transportEvent()        {}
func (Opened) transportEvent()          {}
func (Closed) transportEvent()          {}
func (MessageReceived) transportEvent() {}

// Close reason codes, normalized across transport error shapes.
const (
	CodeLoggedOut      = 401 // logout or unauthorized
	CodeBadSession     = 500 // invalid or corrupt session state
	CodeStreamClosed   = 428 // transient stream closure
	CodeStreamReplaced = 440 // another client took over the stream
	CodeTempBanned     = 403
)

// ConflictDeviceRemoved marks a close caused by this device being removed
// from the account.
const ConflictDeviceRemoved = "device_removed"

// CloseReason describes why a connection closed.
type CloseReason struct {
	Code         int
	ConflictType string
	Description  string
}

func (r CloseReason) String() string {
	if r.Description != "" {
		return fmt.Sprintf("%d (%s)", r.Code, r.Description)
	}
	return fmt.Sprintf("%d", r.Code)
}

// Message is a normalized inbound message. Content holds the unwrapped wire
// payload and is required for media download and quoting; lookups and
// indexing use only the plain fields.
type Message struct {
	ChatID     string
	MessageID  string
	SenderID   string
	Type       string
	HasSticker bool
	ReceivedAt time.Time
	Content    *waE2E.Message
}

// ParseDestination validates and normalizes a destination chat address.
func ParseDestination(s string) (string, error) {
	jid, err := types.ParseJID(s)
	if err != nil {
		return "", err
	}
	if jid.User == "" || jid.Server == "" {
		return "", fmt.Errorf("incomplete JID %q", s)
	}
	return jid.String(), nil
}
