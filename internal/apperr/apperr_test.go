package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/mattn/go-sqlite3"
)

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := New(CodeSendFailed, "send failed", 502).Wrap(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if got := CodeOf(err); got != CodeSendFailed {
		t.Errorf("CodeOf = %q, want %q", got, CodeSendFailed)
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", NotFound(CodeStickerMissing, "sticker not found"))

	if !HasCode(err, CodeStickerMissing) {
		t.Error("HasCode should see through fmt.Errorf wrapping")
	}
	if HasCode(err, CodeAliasTaken) {
		t.Error("HasCode matched the wrong code")
	}
	if HasCode(errors.New("plain"), CodeStickerMissing) {
		t.Error("HasCode matched a foreign error")
	}
}

func TestCodeOfForeignError(t *testing.T) {
	if got := CodeOf(errors.New("boom")); got != CodeInternal {
		t.Errorf("CodeOf(foreign) = %q, want %q", got, CodeInternal)
	}
}

func TestFromSQLiteAliasConflict(t *testing.T) {
	se := sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintUnique,
	}
	// mattn formats constraint errors with the index/column name; emulate
	// by wrapping with the text the driver produces.
	err := FromSQLite(fmt.Errorf("UNIQUE constraint failed: index 'idx_stickers_alias_active': %w", se))

	if !HasCode(err, CodeAliasTaken) {
		t.Errorf("got %v, want %s", err, CodeAliasTaken)
	}
}

func TestFromSQLitePassthrough(t *testing.T) {
	plain := errors.New("disk I/O error")
	if got := FromSQLite(plain); got != plain {
		t.Errorf("non-constraint error should pass through, got %v", got)
	}
	if FromSQLite(nil) != nil {
		t.Error("nil should pass through")
	}
}
