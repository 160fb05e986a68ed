package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vhqueiroz/stickerd/internal/apperr"
)

const stickerColumns = `id, alias, description, tags, file_path, mime_type, sha256,
	source_type, source_chat_id, source_message_id, is_favorite,
	created_at, updated_at, deleted_at`

// CreateSticker inserts a new catalog row. Unique-constraint violations on
// alias or content hash surface as domain conflicts.
func (db *DB) CreateSticker(s *Sticker) error {
	now := time.Now().UnixMilli()
	s.CreatedAt = now
	s.UpdatedAt = now

	tags, err := json.Marshal(emptyIfNil(s.Tags))
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO stickers (id, alias, description, tags, file_path, mime_type, sha256,
			source_type, source_chat_id, source_message_id, is_favorite, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID, nullStr(s.Alias), nullStr(s.Description), string(tags), s.FilePath, s.MimeType,
		s.SHA256, s.SourceType, nullStr(s.SourceChatID), nullStr(s.SourceMessageID),
		s.IsFavorite, s.CreatedAt, s.UpdatedAt)
	return apperr.FromSQLite(err)
}

// StickerByID returns an active sticker by id, or nil if absent or tombstoned.
func (db *DB) StickerByID(id string) (*Sticker, error) {
	return db.stickerWhere(`id = ? AND deleted_at IS NULL`, id)
}

// StickerByAlias returns an active sticker by alias, case-insensitively.
func (db *DB) StickerByAlias(alias string) (*Sticker, error) {
	return db.stickerWhere(`LOWER(alias) = LOWER(?) AND deleted_at IS NULL`, alias)
}

// StickerByHash returns an active sticker by content hash.
func (db *DB) StickerByHash(sha256 string) (*Sticker, error) {
	return db.stickerWhere(`sha256 = ? AND deleted_at IS NULL`, sha256)
}

func (db *DB) stickerWhere(where string, args ...any) (*Sticker, error) {
	row := db.QueryRow(`SELECT `+stickerColumns+` FROM stickers WHERE `+where, args...)
	s, err := scanSticker(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// SearchStickers returns one page of active stickers matching the filter,
// plus the total count for the whole filtered set.
func (db *DB) SearchStickers(f StickerFilter) (*StickerPage, error) {
	where := []string{"deleted_at IS NULL"}
	var args []any

	if f.Query != "" {
		pat := "%" + f.Query + "%"
		where = append(where, "(alias LIKE ? OR description LIKE ? OR tags LIKE ?)")
		args = append(args, pat, pat, pat)
	}
	if f.Alias != "" {
		where = append(where, "LOWER(alias) = LOWER(?)")
		args = append(args, f.Alias)
	}
	if f.Tag != "" {
		where = append(where, "EXISTS (SELECT 1 FROM json_each(stickers.tags) WHERE json_each.value = ?)")
		args = append(args, f.Tag)
	}
	if f.SHA256 != "" {
		where = append(where, "LOWER(sha256) = LOWER(?)")
		args = append(args, f.SHA256)
	}

	order := "created_at DESC, rowid DESC"
	if f.Sort == SortCreatedAsc {
		order = "created_at ASC, rowid ASC"
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}

	clause := strings.Join(where, " AND ")

	var total int
	if err := db.QueryRow(`SELECT COUNT(*) FROM stickers WHERE `+clause, args...).Scan(&total); err != nil {
		return nil, err
	}

	listArgs := append(append([]any{}, args...), limit, (page-1)*limit)
	rows, err := db.Query(`
		SELECT `+stickerColumns+`
		FROM stickers
		WHERE `+clause+`
		ORDER BY `+order+`
		LIMIT ? OFFSET ?`, listArgs...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Sticker
	for rows.Next() {
		s, err := scanSticker(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &StickerPage{Items: items, Total: total, Page: page, Limit: limit}, nil
}

// UpdateSticker applies a partial patch to an active sticker and returns the
// updated row, or nil if the sticker is absent or tombstoned. An empty patch
// is a plain read.
func (db *DB) UpdateSticker(id string, p StickerPatch) (*Sticker, error) {
	if p.IsEmpty() {
		return db.StickerByID(id)
	}

	var sets []string
	var args []any

	if p.Alias != nil {
		sets = append(sets, "alias = ?")
		args = append(args, nullStr(*p.Alias))
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, nullStr(*p.Description))
	}
	if p.Tags != nil {
		tags, err := json.Marshal(emptyIfNil(*p.Tags))
		if err != nil {
			return nil, fmt.Errorf("marshal tags: %w", err)
		}
		sets = append(sets, "tags = ?")
		args = append(args, string(tags))
	}
	if p.IsFavorite != nil {
		sets = append(sets, "is_favorite = ?")
		args = append(args, *p.IsFavorite)
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UnixMilli(), id)

	res, err := db.Exec(`UPDATE stickers SET `+strings.Join(sets, ", ")+` WHERE id = ? AND deleted_at IS NULL`, args...)
	if err != nil {
		return nil, apperr.FromSQLite(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return db.StickerByID(id)
}

// SoftDeleteSticker tombstones a sticker. Returns false if it was already
// gone or never existed.
func (db *DB) SoftDeleteSticker(id string) (bool, error) {
	now := time.Now().UnixMilli()
	res, err := db.Exec(`UPDATE stickers SET deleted_at = ?, updated_at = ? WHERE id = ? AND deleted_at IS NULL`,
		now, now, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSticker(row scanner) (*Sticker, error) {
	var s Sticker
	var alias, description, chatID, msgID sql.NullString
	var tags string
	var deletedAt sql.NullInt64

	err := row.Scan(&s.ID, &alias, &description, &tags, &s.FilePath, &s.MimeType, &s.SHA256,
		&s.SourceType, &chatID, &msgID, &s.IsFavorite, &s.CreatedAt, &s.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	s.Alias = alias.String
	s.Description = description.String
	s.SourceChatID = chatID.String
	s.SourceMessageID = msgID.String
	s.DeletedAt = deletedAt.Int64
	if err := json.Unmarshal([]byte(tags), &s.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	return &s, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func emptyIfNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
