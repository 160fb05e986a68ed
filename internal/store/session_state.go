package store

import (
	"database/sql"
	"time"
)

// SessionPatch updates the singleton wa_session row. State is always
// written. QRText and QRExpiresAt are always written as given (empty
// clears). Identity and LastConnectionAt keep their existing values when
// zero, matching the set-once semantics of those fields.
type SessionPatch struct {
	State            string
	Identity         string
	QRText           string
	QRExpiresAt      int64
	LastConnectionAt int64
}

// PatchSessionState applies a patch to the singleton session row.
func (db *DB) PatchSessionState(p SessionPatch) error {
	_, err := db.Exec(`
		UPDATE wa_session
		SET state = ?,
			identity = COALESCE(?, identity),
			qr_text = ?,
			qr_expires_at = ?,
			last_connection_at = COALESCE(?, last_connection_at),
			updated_at = ?
		WHERE id = 1`,
		p.State, nullStr(p.Identity), nullStr(p.QRText), nullInt(p.QRExpiresAt),
		nullInt(p.LastConnectionAt), time.Now().UnixMilli())
	return err
}

// SessionState returns the singleton session snapshot.
func (db *DB) SessionState() (*SessionState, error) {
	row := db.QueryRow(`
		SELECT state, identity, qr_text, qr_expires_at, last_connection_at, updated_at
		FROM wa_session WHERE id = 1`)

	var s SessionState
	var identity, qrText sql.NullString
	var qrExpires, lastConn sql.NullInt64

	if err := row.Scan(&s.State, &identity, &qrText, &qrExpires, &lastConn, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Identity = identity.String
	s.QRText = qrText.String
	s.QRExpiresAt = qrExpires.Int64
	s.LastConnectionAt = lastConn.Int64
	return &s, nil
}

func nullInt(v int64) any {
	if v == 0 {
		return nil
	}
	return v
}
