package apperr

import (
	"errors"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// FromSQLite translates SQLite constraint violations into domain conflicts.
// The partial unique indexes on stickers are the authority for alias and
// content-hash uniqueness; any in-memory pre-check is advisory only. Errors
// that are not constraint violations pass through unchanged.
func FromSQLite(err error) error {
	if err == nil {
		return nil
	}

	var se sqlite3.Error
	if !errors.As(err, &se) || se.ExtendedCode != sqlite3.ErrConstraintUnique {
		return err
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "stickers.alias") || strings.Contains(msg, "idx_stickers_alias_active"):
		return Conflict(CodeAliasTaken, "alias is already in use").Wrap(err)
	case strings.Contains(msg, "stickers.sha256") || strings.Contains(msg, "idx_stickers_sha256_active"):
		return Conflict(CodeStickerExists, "a sticker with the same content already exists").Wrap(err)
	default:
		return Conflict(CodeConflict, "resource already exists").Wrap(err)
	}
}
