// Package catalog manages the sticker library: importing media into the
// content-addressed store, metadata upkeep, and selector resolution.
package catalog

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vhqueiroz/stickerd/internal/apperr"
	"github.com/vhqueiroz/stickerd/internal/bus"
	"github.com/vhqueiroz/stickerd/internal/store"
	"github.com/vhqueiroz/stickerd/internal/wa"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
	webpMime         = "image/webp"
)

// MediaSource provides access to observed messages and their sticker media.
// The session manager satisfies it.
type MediaSource interface {
	Message(ctx context.Context, chatID, messageID string) (*wa.Message, error)
	DownloadSticker(ctx context.Context, msg *wa.Message) ([]byte, error)
}

// Service implements catalog operations on top of the database and the
// content-addressed file storage.
type Service struct {
	db      *store.DB
	storage *Storage
	media   MediaSource
	bus     *bus.Bus
	logger  *zap.Logger
}

func NewService(db *store.DB, storage *Storage, media MediaSource, b *bus.Bus, logger *zap.Logger) *Service {
	return &Service{db: db, storage: storage, media: media, bus: b, logger: logger}
}

// ImportInput carries user-supplied metadata for an import.
type ImportInput struct {
	Alias       string
	Description string
	Tags        []string
}

// ImportResult reports the catalog record an import resolved to. Existing is
// set when the media deduplicated against a sticker already in the catalog;
// in that case the stored record is returned unchanged and the input
// metadata is discarded.
type ImportResult struct {
	Sticker  *store.Sticker
	Existing bool
}

// ImportUpload adds directly uploaded webp media to the catalog.
func (s *Service) ImportUpload(ctx context.Context, data []byte, in ImportInput) (*ImportResult, error) {
	return s.importMedia(ctx, data, in, store.SourceUpload, "", "")
}

// ImportFromMessage captures the sticker of an observed message into the
// catalog.
func (s *Service) ImportFromMessage(ctx context.Context, chatID, messageID string, in ImportInput) (*ImportResult, error) {
	chatID = strings.TrimSpace(chatID)
	messageID = strings.TrimSpace(messageID)
	if chatID == "" || messageID == "" {
		return nil, apperr.Validation("chatId and messageId are required")
	}

	msg, err := s.media.Message(ctx, chatID, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, apperr.NotFound(apperr.CodeMessageMissing, "message not found").
			With("hint", "only recently received messages can be imported")
	}
	if !msg.HasSticker {
		return nil, apperr.New(apperr.CodeNotASticker, "message does not contain a sticker", 400)
	}

	data, err := s.media.DownloadSticker(ctx, msg)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return s.importMedia(ctx, data, in, store.SourceMessage, chatID, messageID)
}

func (s *Service) importMedia(ctx context.Context, data []byte, in ImportInput, sourceType, chatID, messageID string) (*ImportResult, error) {
	if !isWebP(data) {
		return nil, apperr.Validation("sticker media must be a webp image")
	}

	alias := strings.TrimSpace(in.Alias)
	tags := NormalizeTags(in.Tags)

	// Pre-check gives a clean conflict before any file is written. The
	// unique index remains the authority under concurrency.
	if alias != "" {
		existing, err := s.db.StickerByAlias(alias)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apperr.Conflict(apperr.CodeAliasTaken, "alias is already in use").
				With("alias", alias)
		}
	}

	hash, path, err := s.storage.Save(data)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	if existing, err := s.db.StickerByHash(hash); err != nil {
		return nil, err
	} else if existing != nil {
		s.logger.Info("import deduplicated",
			zap.String("stickerId", existing.ID),
			zap.String("sha256", hash))
		return &ImportResult{Sticker: existing, Existing: true}, nil
	}

	sticker := &store.Sticker{
		ID:              uuid.NewString(),
		Alias:           alias,
		Description:     strings.TrimSpace(in.Description),
		Tags:            tags,
		FilePath:        path,
		MimeType:        webpMime,
		SHA256:          hash,
		SourceType:      sourceType,
		SourceChatID:    chatID,
		SourceMessageID: messageID,
	}
	if err := s.db.CreateSticker(sticker); err != nil {
		return nil, err
	}

	s.logger.Info("sticker imported",
		zap.String("stickerId", sticker.ID),
		zap.String("source", sourceType),
		zap.String("sha256", hash))
	s.bus.Publish(bus.Event{Kind: "sticker.imported", Timestamp: time.Now(), Payload: sticker})
	return &ImportResult{Sticker: sticker}, nil
}

// List searches the catalog. An unset limit defaults to 20; supplied values
// are clamped to [1, 100].
func (s *Service) List(f store.StickerFilter) (*store.StickerPage, error) {
	switch {
	case f.Limit == 0:
		f.Limit = defaultListLimit
	case f.Limit < 1:
		f.Limit = 1
	case f.Limit > maxListLimit:
		f.Limit = maxListLimit
	}
	return s.db.SearchStickers(f)
}

// Get returns a sticker by id.
func (s *Service) Get(id string) (*store.Sticker, error) {
	sticker, err := s.db.StickerByID(id)
	if err != nil {
		return nil, err
	}
	if sticker == nil {
		return nil, apperr.NotFound(apperr.CodeStickerMissing, "sticker not found")
	}
	return sticker, nil
}

// Update applies a metadata patch. Setting the alias to an empty string
// clears it; media fields never change.
func (s *Service) Update(id string, p store.StickerPatch) (*store.Sticker, error) {
	if p.Alias != nil {
		alias := strings.TrimSpace(*p.Alias)
		p.Alias = &alias
		if alias != "" {
			existing, err := s.db.StickerByAlias(alias)
			if err != nil {
				return nil, err
			}
			if existing != nil && existing.ID != id {
				return nil, apperr.Conflict(apperr.CodeAliasTaken, "alias is already in use").
					With("alias", alias)
			}
		}
	}
	if p.Tags != nil {
		tags := NormalizeTags(*p.Tags)
		p.Tags = &tags
	}

	sticker, err := s.db.UpdateSticker(id, p)
	if err != nil {
		return nil, err
	}
	if sticker == nil {
		return nil, apperr.NotFound(apperr.CodeStickerMissing, "sticker not found")
	}
	return sticker, nil
}

// Remove soft-deletes a sticker. The media file stays on disk so the blob
// can be reused by a later import of the same content.
func (s *Service) Remove(id string) error {
	deleted, err := s.db.SoftDeleteSticker(id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperr.NotFound(apperr.CodeStickerMissing, "sticker not found")
	}
	s.logger.Info("sticker removed", zap.String("stickerId", id))
	return nil
}

// isWebP checks the RIFF container magic.
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}
