package sender

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/vhqueiroz/stickerd/internal/apperr"
	"github.com/vhqueiroz/stickerd/internal/bus"
	"github.com/vhqueiroz/stickerd/internal/catalog"
	"github.com/vhqueiroz/stickerd/internal/store"
	"github.com/vhqueiroz/stickerd/internal/wa"
	"go.uber.org/zap"
)

type fakeResolver struct {
	sticker *store.Sticker
	err     error
}

func (r *fakeResolver) Resolve(sel catalog.Selector) (*store.Sticker, error) {
	return r.sticker, r.err
}

type fakeSession struct {
	state    string
	messages map[string]*wa.Message
	sendErr  error

	sentTo     string
	sentData   []byte
	sentQuoted *wa.Message
}

func (s *fakeSession) Status() (*store.SessionState, error) {
	return &store.SessionState{State: s.state}, nil
}

func (s *fakeSession) Message(ctx context.Context, chatID, messageID string) (*wa.Message, error) {
	return s.messages[chatID+":"+messageID], nil
}

func (s *fakeSession) SendSticker(ctx context.Context, destination string, data []byte, quoted *wa.Message) (string, error) {
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.sentTo = destination
	s.sentData = data
	s.sentQuoted = quoted
	return "WAMSG1", nil
}

func newTestOrchestrator(t *testing.T) (*Orchestrator, *fakeResolver, *fakeSession, *store.DB) {
	t.Helper()
	dir := t.TempDir()
	db, err := store.Open(filepath.Join(dir, "stickerd.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	mediaPath := filepath.Join(dir, "sticker.webp")
	if err := os.WriteFile(mediaPath, []byte("RIFF....WEBP"), 0o644); err != nil {
		t.Fatal(err)
	}
	sticker := &store.Sticker{ID: uuid.NewString(), Alias: "party", FilePath: mediaPath, SHA256: "abc"}
	if err := db.CreateSticker(sticker); err != nil {
		t.Fatal(err)
	}

	resolver := &fakeResolver{sticker: sticker}
	session := &fakeSession{state: store.StateConnected, messages: map[string]*wa.Message{}}
	return New(db, resolver, session, bus.New(), zap.NewNop()), resolver, session, db
}

const dest = "5511888888888@s.whatsapp.net"

func TestSendSuccess(t *testing.T) {
	o, resolver, session, db := newTestOrchestrator(t)

	res, err := o.Send(context.Background(), dest, catalog.Selector{Alias: "party"}, "")
	if err != nil {
		t.Fatal(err)
	}
	if res.TransportMsgID != "WAMSG1" || res.Sticker.ID != resolver.sticker.ID {
		t.Fatalf("result = %+v", res)
	}
	if session.sentTo != dest || string(session.sentData) != "RIFF....WEBP" {
		t.Fatalf("transport got %q, %q", session.sentTo, session.sentData)
	}

	entries, err := db.SendLogForSticker(resolver.sticker.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Status != store.SendStatusSent || entries[0].TransportMsgID != "WAMSG1" {
		t.Fatalf("send log = %+v", entries)
	}
}

func TestSendValidatesDestination(t *testing.T) {
	o, _, _, _ := newTestOrchestrator(t)

	if _, err := o.Send(context.Background(), "  ", catalog.Selector{Alias: "party"}, ""); !apperr.HasCode(err, apperr.CodeValidation) {
		t.Fatalf("blank destination: %v", err)
	}
	if _, err := o.Send(context.Background(), "not a jid", catalog.Selector{Alias: "party"}, ""); !apperr.HasCode(err, apperr.CodeValidation) {
		t.Fatalf("malformed destination: %v", err)
	}
}

func TestSendResolverErrorPropagates(t *testing.T) {
	o, resolver, _, db := newTestOrchestrator(t)
	stickerID := resolver.sticker.ID
	resolver.sticker = nil
	resolver.err = apperr.NotFound(apperr.CodeStickerMissing, "sticker not found")

	if _, err := o.Send(context.Background(), dest, catalog.Selector{ID: "gone"}, ""); !apperr.HasCode(err, apperr.CodeStickerMissing) {
		t.Fatalf("expected STICKER_NOT_FOUND, got %v", err)
	}
	entries, _ := db.SendLogForSticker(stickerID)
	if len(entries) != 0 {
		t.Fatalf("resolver failure must not log, got %+v", entries)
	}
}

func TestSendMissingMediaFile(t *testing.T) {
	o, resolver, _, db := newTestOrchestrator(t)
	if err := os.Remove(resolver.sticker.FilePath); err != nil {
		t.Fatal(err)
	}

	_, err := o.Send(context.Background(), dest, catalog.Selector{Alias: "party"}, "")
	if !apperr.HasCode(err, apperr.CodeFileMissing) {
		t.Fatalf("expected STICKER_FILE_MISSING, got %v", err)
	}
	entries, _ := db.SendLogForSticker(resolver.sticker.ID)
	if len(entries) != 0 {
		t.Fatalf("missing file must not log, got %+v", entries)
	}
}

func TestSendRequiresConnection(t *testing.T) {
	o, resolver, session, db := newTestOrchestrator(t)
	session.state = store.StateConnecting

	_, err := o.Send(context.Background(), dest, catalog.Selector{Alias: "party"}, "")
	if !apperr.HasCode(err, apperr.CodeNotConnected) {
		t.Fatalf("expected WA_NOT_CONNECTED, got %v", err)
	}
	entries, _ := db.SendLogForSticker(resolver.sticker.ID)
	if len(entries) != 0 {
		t.Fatalf("precondition failure must not log, got %+v", entries)
	}
}

func TestSendTransportFailureIsLogged(t *testing.T) {
	o, resolver, session, db := newTestOrchestrator(t)
	session.sendErr = errors.New("socket closed mid-send")

	_, err := o.Send(context.Background(), dest, catalog.Selector{Alias: "party"}, "")
	if !apperr.HasCode(err, apperr.CodeSendFailed) {
		t.Fatalf("expected WA_SEND_FAILED, got %v", err)
	}
	if !errors.Is(err, session.sendErr) {
		t.Fatal("transport error should be wrapped")
	}

	entries, _ := db.SendLogForSticker(resolver.sticker.ID)
	if len(entries) != 1 || entries[0].Status != store.SendStatusFailed {
		t.Fatalf("send log = %+v", entries)
	}
	if entries[0].Error != "socket closed mid-send" {
		t.Fatalf("logged error = %q", entries[0].Error)
	}
}

func TestSendQuotesKnownMessage(t *testing.T) {
	o, _, session, _ := newTestOrchestrator(t)
	quoted := &wa.Message{ChatID: dest, MessageID: "Q1", Type: "text"}
	session.messages[dest+":Q1"] = quoted

	if _, err := o.Send(context.Background(), dest, catalog.Selector{Alias: "party"}, "Q1"); err != nil {
		t.Fatal(err)
	}
	if session.sentQuoted != quoted {
		t.Fatalf("quoted = %+v", session.sentQuoted)
	}

	// An unknown quoted message downgrades to a plain send.
	session.sentQuoted = nil
	if _, err := o.Send(context.Background(), dest, catalog.Selector{Alias: "party"}, "gone"); err != nil {
		t.Fatal(err)
	}
	if session.sentQuoted != nil {
		t.Fatal("expected unquoted send for unknown message")
	}
}
