package wa

import (
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types/events"
)

// ParseMessage normalizes a live transport message event.
func ParseMessage(evt *events.Message) *Message {
	content := UnwrapEnvelope(evt.Message)
	return &Message{
		ChatID:     evt.Info.Chat.String(),
		MessageID:  evt.Info.ID,
		SenderID:   evt.Info.Sender.String(),
		Type:       detectMessageType(content),
		HasSticker: content.GetStickerMessage() != nil,
		ReceivedAt: evt.Info.Timestamp,
		Content:    content,
	}
}

// UnwrapEnvelope strips the known wrapper layers (ephemeral, view-once,
// captioned document) until the real payload is reached. The wrapper set is
// closed; anything else is already the payload.
func UnwrapEnvelope(msg *waE2E.Message) *waE2E.Message {
	for msg != nil {
		switch {
		case msg.GetEphemeralMessage().GetMessage() != nil:
			msg = msg.GetEphemeralMessage().GetMessage()
		case msg.GetViewOnceMessage().GetMessage() != nil:
			msg = msg.GetViewOnceMessage().GetMessage()
		case msg.GetViewOnceMessageV2().GetMessage() != nil:
			msg = msg.GetViewOnceMessageV2().GetMessage()
		case msg.GetDocumentWithCaptionMessage().GetMessage() != nil:
			msg = msg.GetDocumentWithCaptionMessage().GetMessage()
		default:
			return msg
		}
	}
	return msg
}

func detectMessageType(msg *waE2E.Message) string {
	if msg == nil {
		return "unknown"
	}
	switch {
	case msg.GetConversation() != "" || msg.GetExtendedTextMessage() != nil:
		return "text"
	case msg.GetStickerMessage() != nil:
		return "sticker"
	case msg.GetImageMessage() != nil:
		return "image"
	case msg.GetVideoMessage() != nil:
		return "video"
	case msg.GetAudioMessage() != nil:
		return "audio"
	case msg.GetDocumentMessage() != nil:
		return "document"
	case msg.GetContactMessage() != nil:
		return "contact"
	case msg.GetLocationMessage() != nil:
		return "location"
	default:
		return "unknown"
	}
}
