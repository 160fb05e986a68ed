package store

import (
	"database/sql"
	"time"
)

// AppendSendLog records one send attempt. The log is append-only; there is
// no update path.
func (db *DB) AppendSendLog(e *SendLogEntry) error {
	e.SentAt = time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO send_log (id, sticker_id, destination, transport_msg_id, status, error, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.StickerID, e.Destination, nullStr(e.TransportMsgID), e.Status, nullStr(e.Error), e.SentAt)
	return err
}

// SendLogForSticker returns send attempts for a sticker, newest first.
func (db *DB) SendLogForSticker(stickerID string) ([]SendLogEntry, error) {
	rows, err := db.Query(`
		SELECT id, sticker_id, destination, transport_msg_id, status, error, sent_at
		FROM send_log WHERE sticker_id = ? ORDER BY sent_at DESC, rowid DESC`, stickerID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []SendLogEntry
	for rows.Next() {
		var e SendLogEntry
		var msgID, errText sql.NullString
		if err := rows.Scan(&e.ID, &e.StickerID, &e.Destination, &msgID, &e.Status, &errText, &e.SentAt); err != nil {
			return nil, err
		}
		e.TransportMsgID = msgID.String
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
