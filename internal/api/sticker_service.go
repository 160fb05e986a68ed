// Package api exposes the daemon's operations as plain service types that an
// embedding transport can call directly.
package api

import (
	"context"

	"github.com/vhqueiroz/stickerd/internal/catalog"
	"github.com/vhqueiroz/stickerd/internal/sender"
	"github.com/vhqueiroz/stickerd/internal/store"
)

// StickerService groups all catalog and delivery operations.
type StickerService struct {
	catalog *catalog.Service
	sender  *sender.Orchestrator
}

func NewStickerService(c *catalog.Service, s *sender.Orchestrator) *StickerService {
	return &StickerService{catalog: c, sender: s}
}

func (s *StickerService) ImportUpload(ctx context.Context, data []byte, in catalog.ImportInput) (*catalog.ImportResult, error) {
	return s.catalog.ImportUpload(ctx, data, in)
}

func (s *StickerService) ImportFromMessage(ctx context.Context, chatID, messageID string, in catalog.ImportInput) (*catalog.ImportResult, error) {
	return s.catalog.ImportFromMessage(ctx, chatID, messageID, in)
}

func (s *StickerService) List(f store.StickerFilter) (*store.StickerPage, error) {
	return s.catalog.List(f)
}

func (s *StickerService) Get(id string) (*store.Sticker, error) {
	return s.catalog.Get(id)
}

func (s *StickerService) Update(id string, p store.StickerPatch) (*store.Sticker, error) {
	return s.catalog.Update(id, p)
}

func (s *StickerService) Remove(id string) error {
	return s.catalog.Remove(id)
}

func (s *StickerService) Send(ctx context.Context, destination string, sel catalog.Selector, quotedMessageID string) (*sender.Result, error) {
	return s.sender.Send(ctx, destination, sel, quotedMessageID)
}

func (s *StickerService) SendHistory(stickerID string) ([]store.SendLogEntry, error) {
	return s.sender.History(stickerID)
}
