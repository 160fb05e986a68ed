// Package sender orchestrates outbound sticker delivery: selector
// resolution, media loading, the connectivity precondition, the transport
// send, and the append-only send log.
package sender

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vhqueiroz/stickerd/internal/apperr"
	"github.com/vhqueiroz/stickerd/internal/bus"
	"github.com/vhqueiroz/stickerd/internal/catalog"
	"github.com/vhqueiroz/stickerd/internal/store"
	"github.com/vhqueiroz/stickerd/internal/wa"
	"go.uber.org/zap"
)

// Resolver resolves a selector to a catalog sticker.
type Resolver interface {
	Resolve(sel catalog.Selector) (*store.Sticker, error)
}

// Session is the slice of the session manager the orchestrator needs.
type Session interface {
	Status() (*store.SessionState, error)
	Message(ctx context.Context, chatID, messageID string) (*wa.Message, error)
	SendSticker(ctx context.Context, destination string, data []byte, quoted *wa.Message) (string, error)
}

// Orchestrator coordinates one send attempt end to end.
type Orchestrator struct {
	db       *store.DB
	resolver Resolver
	session  Session
	bus      *bus.Bus
	logger   *zap.Logger
}

func New(db *store.DB, resolver Resolver, session Session, b *bus.Bus, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{db: db, resolver: resolver, session: session, bus: b, logger: logger}
}

// Result reports a completed send.
type Result struct {
	Sticker        *store.Sticker
	TransportMsgID string
}

// Send delivers one sticker to a destination chat. A send log entry is
// written for every attempt that reaches the transport; precondition
// failures before that point leave no log entry. A log write failure never
// masks the outcome of the send itself.
func (o *Orchestrator) Send(ctx context.Context, destination string, sel catalog.Selector, quotedMessageID string) (*Result, error) {
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, apperr.Validation("destination is required")
	}
	if _, err := wa.ParseDestination(destination); err != nil {
		return nil, apperr.Validation("destination is not a valid chat id").With("destination", destination)
	}

	sticker, err := o.resolver.Resolve(sel)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(sticker.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperr.NotFound(apperr.CodeFileMissing, "sticker media file is missing").
				With("stickerId", sticker.ID)
		}
		return nil, apperr.Internal(err)
	}

	// Quoting is best effort: an unknown quoted message downgrades to a
	// plain send rather than failing the whole request.
	var quoted *wa.Message
	if quotedMessageID = strings.TrimSpace(quotedMessageID); quotedMessageID != "" {
		quoted, err = o.session.Message(ctx, destination, quotedMessageID)
		if err != nil || quoted == nil {
			o.logger.Debug("quoted message unavailable, sending unquoted",
				zap.String("messageId", quotedMessageID), zap.Error(err))
			quoted = nil
		}
	}

	state, err := o.session.Status()
	if err != nil {
		return nil, err
	}
	if state.State != store.StateConnected {
		return nil, apperr.New(apperr.CodeNotConnected, "session is not connected", 409).
			With("state", state.State)
	}

	msgID, sendErr := o.session.SendSticker(ctx, destination, data, quoted)

	entry := &store.SendLogEntry{
		ID:             uuid.NewString(),
		StickerID:      sticker.ID,
		Destination:    destination,
		TransportMsgID: msgID,
		Status:         store.SendStatusSent,
	}
	if sendErr != nil {
		entry.Status = store.SendStatusFailed
		entry.Error = sendErr.Error()
	}
	if logErr := o.db.AppendSendLog(entry); logErr != nil {
		o.logger.Error("failed to append send log", zap.Error(logErr))
	}

	if sendErr != nil {
		o.bus.Publish(bus.Event{Kind: "sticker.send_failed", Timestamp: time.Now(), Payload: entry})
		return nil, apperr.New(apperr.CodeSendFailed, "failed to send sticker", 502).
			Wrap(sendErr).
			With("stickerId", sticker.ID).
			With("destination", destination)
	}

	o.logger.Info("sticker sent",
		zap.String("stickerId", sticker.ID),
		zap.String("destination", destination),
		zap.String("transportMsgId", msgID))
	o.bus.Publish(bus.Event{Kind: "sticker.sent", Timestamp: time.Now(), Payload: entry})
	return &Result{Sticker: sticker, TransportMsgID: msgID}, nil
}

// History returns the send log entries of one sticker, newest first.
func (o *Orchestrator) History(stickerID string) ([]store.SendLogEntry, error) {
	return o.db.SendLogForSticker(stickerID)
}
