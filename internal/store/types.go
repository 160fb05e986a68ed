package store

// Session connection states persisted in wa_session.
const (
	StateDisconnected = "disconnected"
	StateConnecting   = "connecting"
	StateConnected    = "connected"
)

// Sticker source kinds.
const (
	SourceUpload  = "upload"
	SourceMessage = "message"
)

// Send log outcomes.
const (
	SendStatusSent   = "sent"
	SendStatusFailed = "failed"
)

// SessionState is the singleton connection snapshot (wa_session row id=1).
// Timestamps are Unix milliseconds; zero means unset.
type SessionState struct {
	State            string
	Identity         string
	QRText           string
	QRExpiresAt      int64
	LastConnectionAt int64
	UpdatedAt        int64
}

// Sticker is a catalog entry. DeletedAt is the tombstone; zero while active.
type Sticker struct {
	ID              string
	Alias           string
	Description     string
	Tags            []string
	FilePath        string
	MimeType        string
	SHA256          string
	SourceType      string
	SourceChatID    string
	SourceMessageID string
	IsFavorite      bool
	CreatedAt       int64
	UpdatedAt       int64
	DeletedAt       int64
}

// SendLogEntry is one append-only record per send attempt.
type SendLogEntry struct {
	ID             string
	StickerID      string
	Destination    string
	TransportMsgID string
	Status         string
	Error          string
	SentAt         int64
}

// MessageIndexEntry is the durable audit record of an observed message,
// independent of the in-memory message cache.
type MessageIndexEntry struct {
	ChatID      string
	MessageID   string
	MessageType string
	HasSticker  bool
	ReceivedAt  int64
}

// Sticker sort orders.
const (
	SortCreatedAsc  = "created_at_asc"
	SortCreatedDesc = "created_at_desc"
)

// StickerFilter selects stickers for search. All set fields are ANDed.
type StickerFilter struct {
	Query  string // free text across alias, description, tags
	Alias  string // exact, case-insensitive
	Tag    string // exact tag membership
	SHA256 string // exact, case-insensitive
	Page   int    // 1-indexed
	Limit  int
	Sort   string
}

// StickerPage is one page of search results plus the total for the filter.
type StickerPage struct {
	Items []Sticker
	Total int
	Page  int
	Limit int
}

// StickerPatch applies partial updates; nil fields are left untouched.
// A non-nil empty Alias clears the alias.
type StickerPatch struct {
	Alias       *string
	Description *string
	Tags        *[]string
	IsFavorite  *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p StickerPatch) IsEmpty() bool {
	return p.Alias == nil && p.Description == nil && p.Tags == nil && p.IsFavorite == nil
}
