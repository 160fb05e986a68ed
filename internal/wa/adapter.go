package wa

import (
	"context"
	"database/sql"
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	wastore "go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	_ "github.com/mattn/go-sqlite3"
)

// Adapter is the whatsmeow-backed Transport. Credentials live in a SQLite
// container keyed by the configured path; pairing state survives restarts.
type Adapter struct {
	credentialDB string
	deviceName   string
	logger       *zap.Logger
}

// NewAdapter creates a transport bound to the given credential store path.
func NewAdapter(credentialDBPath, deviceName string, logger *zap.Logger) *Adapter {
	return &Adapter{
		credentialDB: credentialDBPath,
		deviceName:   deviceName,
		logger:       logger,
	}
}

// HasCredentials reports whether a paired device exists in the credential
// store, without opening a connection.
func (a *Adapter) HasCredentials(ctx context.Context) bool {
	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", a.credentialDB), nil)
	if err != nil {
		return false
	}
	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		return false
	}
	return device.ID != nil
}

// Establish opens the credential store, builds a client, and starts
// connecting. The reconnect policy lives in the session manager, so the
// client's own auto-reconnect is disabled.
func (a *Adapter) Establish(ctx context.Context, onEvent func(Event)) (Handle, error) {
	// Device name shown on the phone's linked devices list.
	wastore.SetOSInfo(a.deviceName, [3]uint32{1, 0, 0})

	container, err := sqlstore.New(ctx, "sqlite3",
		fmt.Sprintf("file:%s?_foreign_keys=on", a.credentialDB), nil)
	if err != nil {
		return nil, fmt.Errorf("open credential store: %w", err)
	}

	device, err := container.GetFirstDevice(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			device = container.NewDevice()
		} else {
			return nil, fmt.Errorf("get device: %w", err)
		}
	}

	client := whatsmeow.NewClient(device, nil)
	client.EnableAutoReconnect = false

	h := &handle{client: client, logger: a.logger}
	client.AddEventHandler(func(raw any) {
		h.dispatch(raw, onEvent)
	})

	// Unpaired devices go through the QR flow; the channel must be claimed
	// before Connect.
	if client.Store.ID == nil {
		qrChan, err := client.GetQRChannel(ctx)
		if err != nil {
			return nil, fmt.Errorf("get QR channel: %w", err)
		}
		go h.forwardQR(qrChan, onEvent)
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return h, nil
}

type handle struct {
	client *whatsmeow.Client
	logger *zap.Logger
}

func (h *handle) dispatch(raw any, onEvent func(Event)) {
	switch evt := raw.(type) {
	case *events.Connected:
		onEvent(Opened{Identity: h.identity()})
	case *events.LoggedOut:
		reason := CloseReason{Code: CodeLoggedOut, Description: evt.Reason.String()}
		if evt.Reason == events.ConnectFailureMainDeviceGone {
			reason.ConflictType = ConflictDeviceRemoved
		}
		onEvent(Closed{Reason: reason})
	case *events.ClientOutdated:
		onEvent(Closed{Reason: CloseReason{Code: CodeBadSession, Description: "client outdated"}})
	case *events.StreamReplaced:
		onEvent(Closed{Reason: CloseReason{Code: CodeStreamReplaced, ConflictType: "replaced"}})
	case *events.TemporaryBan:
		onEvent(Closed{Reason: CloseReason{Code: CodeTempBanned, Description: evt.String()}})
	case *events.Disconnected:
		onEvent(Closed{Reason: CloseReason{Code: CodeStreamClosed}})
	case *events.Message:
		onEvent(MessageReceived{Message: ParseMessage(evt)})
	}
}

func (h *handle) forwardQR(qrChan <-chan whatsmeow.QRChannelItem, onEvent func(Event)) {
	for item := range qrChan {
		switch item.Event {
		case "code":
			onEvent(QRIssued{Text: item.Code})
		case "success":
			// Connected event carries the open.
		case "timeout":
			onEvent(Closed{Reason: CloseReason{Code: CodeStreamClosed, Description: "QR timeout"}})
		default:
			if item.Error != nil {
				h.logger.Warn("QR channel error", zap.Error(item.Error))
			}
		}
	}
}

func (h *handle) identity() string {
	if h.client.Store.ID == nil {
		return ""
	}
	return h.client.Store.ID.String()
}

func (h *handle) SendSticker(ctx context.Context, destination string, data []byte, quoted *Message) (string, error) {
	to, err := types.ParseJID(destination)
	if err != nil {
		return "", fmt.Errorf("parse JID: %w", err)
	}

	up, err := h.client.Upload(ctx, data, whatsmeow.MediaImage)
	if err != nil {
		return "", fmt.Errorf("upload sticker: %w", err)
	}

	sticker := &waE2E.StickerMessage{
		URL:           proto.String(up.URL),
		DirectPath:    proto.String(up.DirectPath),
		MediaKey:      up.MediaKey,
		FileEncSHA256: up.FileEncSHA256,
		FileSHA256:    up.FileSHA256,
		FileLength:    proto.Uint64(up.FileLength),
		Mimetype:      proto.String("image/webp"),
	}
	if quoted != nil && quoted.Content != nil {
		sticker.ContextInfo = &waE2E.ContextInfo{
			StanzaID:      proto.String(quoted.MessageID),
			Participant:   proto.String(quoted.SenderID),
			QuotedMessage: quoted.Content,
		}
	}

	resp, err := h.client.SendMessage(ctx, to, &waE2E.Message{StickerMessage: sticker})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (h *handle) DownloadSticker(ctx context.Context, msg *Message) ([]byte, error) {
	if msg == nil || msg.Content.GetStickerMessage() == nil {
		return nil, fmt.Errorf("message has no sticker payload")
	}
	return h.client.Download(ctx, msg.Content.GetStickerMessage())
}

func (h *handle) Close() {
	h.client.Disconnect()
}
