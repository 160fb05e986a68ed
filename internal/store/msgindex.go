package store

import (
	"database/sql"
	"time"
)

// UpsertMessageIndex records an observed message (idempotent on
// chat_id + message_id). Re-observing a message refreshes its type, sticker
// flag and received_at.
func (db *DB) UpsertMessageIndex(e *MessageIndexEntry) error {
	if e.ReceivedAt == 0 {
		e.ReceivedAt = time.Now().UnixMilli()
	}
	_, err := db.Exec(`
		INSERT INTO message_index (chat_id, message_id, message_type, has_sticker, received_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(chat_id, message_id) DO UPDATE SET
			message_type = excluded.message_type,
			has_sticker = excluded.has_sticker,
			received_at = excluded.received_at`,
		e.ChatID, e.MessageID, e.MessageType, e.HasSticker, e.ReceivedAt)
	return err
}

// MessageIndex returns an index entry, or nil if the message was never seen.
func (db *DB) MessageIndex(chatID, messageID string) (*MessageIndexEntry, error) {
	row := db.QueryRow(`
		SELECT chat_id, message_id, message_type, has_sticker, received_at
		FROM message_index WHERE chat_id = ? AND message_id = ?`, chatID, messageID)

	var e MessageIndexEntry
	err := row.Scan(&e.ChatID, &e.MessageID, &e.MessageType, &e.HasSticker, &e.ReceivedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}
