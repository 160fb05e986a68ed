package wa

import (
	"testing"
	"time"

	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"
)

func stickerPayload() *waE2E.Message {
	return &waE2E.Message{StickerMessage: &waE2E.StickerMessage{Mimetype: proto.String("image/webp")}}
}

func TestUnwrapEnvelope(t *testing.T) {
	inner := stickerPayload()

	tests := []struct {
		name string
		msg  *waE2E.Message
		want *waE2E.Message
	}{
		{"nil", nil, nil},
		{"bare payload", inner, inner},
		{"ephemeral", &waE2E.Message{
			EphemeralMessage: &waE2E.FutureProofMessage{Message: inner},
		}, inner},
		{"view once", &waE2E.Message{
			ViewOnceMessage: &waE2E.FutureProofMessage{Message: inner},
		}, inner},
		{"view once v2", &waE2E.Message{
			ViewOnceMessageV2: &waE2E.FutureProofMessage{Message: inner},
		}, inner},
		{"document with caption", &waE2E.Message{
			DocumentWithCaptionMessage: &waE2E.FutureProofMessage{Message: inner},
		}, inner},
		{"nested ephemeral view-once", &waE2E.Message{
			EphemeralMessage: &waE2E.FutureProofMessage{
				Message: &waE2E.Message{
					ViewOnceMessage: &waE2E.FutureProofMessage{Message: inner},
				},
			},
		}, inner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UnwrapEnvelope(tt.msg); got != tt.want {
				t.Errorf("UnwrapEnvelope() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectMessageType(t *testing.T) {
	tests := []struct {
		name string
		msg  *waE2E.Message
		want string
	}{
		{"nil", nil, "unknown"},
		{"text conversation", &waE2E.Message{Conversation: proto.String("hi")}, "text"},
		{"extended text", &waE2E.Message{ExtendedTextMessage: &waE2E.ExtendedTextMessage{Text: proto.String("hi")}}, "text"},
		{"sticker", stickerPayload(), "sticker"},
		{"image", &waE2E.Message{ImageMessage: &waE2E.ImageMessage{}}, "image"},
		{"video", &waE2E.Message{VideoMessage: &waE2E.VideoMessage{}}, "video"},
		{"audio", &waE2E.Message{AudioMessage: &waE2E.AudioMessage{}}, "audio"},
		{"document", &waE2E.Message{DocumentMessage: &waE2E.DocumentMessage{}}, "document"},
		{"empty message", &waE2E.Message{}, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectMessageType(tt.msg); got != tt.want {
				t.Errorf("detectMessageType() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMessageSticker(t *testing.T) {
	ts := time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC)
	evt := &events.Message{
		Info: types.MessageInfo{
			Timestamp: ts,
			MessageSource: types.MessageSource{
				Chat:   types.JID{User: "5511888", Server: "s.whatsapp.net"},
				Sender: types.JID{User: "5511999", Server: "s.whatsapp.net"},
			},
			ID: "MSG42",
		},
		// Sticker wrapped in an ephemeral envelope, as disappearing chats
		// deliver them.
		Message: &waE2E.Message{
			EphemeralMessage: &waE2E.FutureProofMessage{Message: stickerPayload()},
		},
	}

	msg := ParseMessage(evt)
	if msg.ChatID != "5511888@s.whatsapp.net" {
		t.Errorf("ChatID = %q", msg.ChatID)
	}
	if msg.MessageID != "MSG42" {
		t.Errorf("MessageID = %q", msg.MessageID)
	}
	if msg.Type != "sticker" {
		t.Errorf("Type = %q, want sticker", msg.Type)
	}
	if !msg.HasSticker {
		t.Error("HasSticker = false")
	}
	if msg.Content.GetStickerMessage() == nil {
		t.Error("Content should hold the unwrapped sticker payload")
	}
	if !msg.ReceivedAt.Equal(ts) {
		t.Errorf("ReceivedAt = %v", msg.ReceivedAt)
	}
}

func TestParseDestination(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"5511999@s.whatsapp.net", false},
		{"12345-67890@g.us", false},
		{"", true},
		{"@s.whatsapp.net", true},
	}
	for _, tt := range tests {
		_, err := ParseDestination(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDestination(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
	}
}
