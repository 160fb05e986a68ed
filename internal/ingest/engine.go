// Package ingest indexes every message observed on the live connection so
// imports can refer to messages by (chat id, message id) later.
package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/vhqueiroz/stickerd/internal/bus"
	"github.com/vhqueiroz/stickerd/internal/store"
	"github.com/vhqueiroz/stickerd/internal/wa"
	"go.uber.org/zap"
)

const eventBuffer = 256

// Engine consumes transport message events from the bus and records them in
// the message index.
type Engine struct {
	db     *store.DB
	bus    *bus.Bus
	logger *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func NewEngine(db *store.DB, b *bus.Bus, logger *zap.Logger) *Engine {
	return &Engine{db: db, bus: b, logger: logger}
}

// Start begins consuming events until Stop is called.
func (e *Engine) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel
	e.done = make(chan struct{})

	events, unsubscribe := e.bus.Subscribe("wa.", eventBuffer)
	go func() {
		defer close(e.done)
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				e.handle(evt)
			}
		}
	}()
}

// Stop shuts the consumer down and waits for it to drain.
func (e *Engine) Stop() {
	e.once.Do(func() {
		if e.cancel == nil {
			return
		}
		e.cancel()
		<-e.done
	})
}

func (e *Engine) handle(evt bus.Event) {
	if evt.Kind != "wa.message" {
		return
	}
	msg, ok := evt.Payload.(*wa.Message)
	if !ok || msg == nil {
		return
	}

	err := e.db.UpsertMessageIndex(&store.MessageIndexEntry{
		ChatID:      msg.ChatID,
		MessageID:   msg.MessageID,
		MessageType: msg.Type,
		HasSticker:  msg.HasSticker,
		ReceivedAt:  msg.ReceivedAt.UnixMilli(),
	})
	if err != nil {
		e.logger.Error("failed to index message",
			zap.String("chatId", msg.ChatID),
			zap.String("messageId", msg.MessageID),
			zap.Error(err))
		return
	}
	e.bus.Publish(bus.Event{Kind: "message.indexed", Timestamp: time.Now(), Payload: msg})
}
