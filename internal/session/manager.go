// Package session owns the single WhatsApp connection. The Manager is the
// only writer of session state: commands (connect, disconnect) and transport
// events (QR, open, close, inbound messages) are all serialized through its
// mutex, so a manual disconnect can never interleave with a scheduled
// reconnect or an asynchronous close.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/vhqueiroz/stickerd/internal/apperr"
	"github.com/vhqueiroz/stickerd/internal/bus"
	"github.com/vhqueiroz/stickerd/internal/status"
	"github.com/vhqueiroz/stickerd/internal/store"
	"github.com/vhqueiroz/stickerd/internal/wa"
	"go.uber.org/zap"
)

const (
	// Delay before retrying after a transient close.
	reconnectDelay = 1200 * time.Millisecond
	// How long an issued QR code is considered scannable.
	qrTTL = 60 * time.Second
	// Rendered QR image edge length in pixels.
	qrPNGSize = 320
)

// HistorySource is an optional fallback for message lookups that miss the
// in-memory cache.
type HistorySource interface {
	LoadMessage(ctx context.Context, chatID, messageID string) (*wa.Message, error)
}

// Manager drives the connection state machine over a Transport.
type Manager struct {
	mu        sync.Mutex
	transport wa.Transport
	handle    wa.Handle
	machine   *status.Machine
	db        *store.DB
	bus       *bus.Bus
	cache     *MessageCache
	history   HistorySource
	logger    *zap.Logger

	connecting       bool
	manualDisconnect bool
	reconnectTimer   *time.Timer
	retryDelay       time.Duration
}

// NewManager creates a session manager. The transport must deliver events
// asynchronously, never from inside Establish.
func NewManager(transport wa.Transport, machine *status.Machine, db *store.DB, b *bus.Bus, logger *zap.Logger) *Manager {
	return &Manager{
		transport:  transport,
		machine:    machine,
		db:         db,
		bus:        b,
		cache:      NewMessageCache(DefaultCacheCapacity),
		logger:     logger,
		retryDelay: reconnectDelay,
	}
}

// SetHistorySource installs the optional lookup fallback.
func (m *Manager) SetHistorySource(h HistorySource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = h
}

// Connect starts a connection attempt. If one is already in flight or an
// active connection exists, it returns the current snapshot unchanged.
// An explicit Connect overrides a prior manual disconnect.
func (m *Manager) Connect(ctx context.Context) (*store.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.manualDisconnect = false
	return m.connectLocked(ctx)
}

// connectLocked is the body of Connect; callers hold m.mu.
func (m *Manager) connectLocked(ctx context.Context) (*store.SessionState, error) {
	if m.handle != nil || m.connecting {
		return m.db.SessionState()
	}

	m.connecting = true
	_ = m.machine.Transition(status.Connecting)
	if err := m.db.PatchSessionState(store.SessionPatch{State: store.StateConnecting}); err != nil {
		m.connecting = false
		return nil, err
	}

	m.logger.Info("establishing transport session")
	handle, err := m.transport.Establish(ctx, m.handleEvent)
	if err != nil {
		m.connecting = false
		_ = m.machine.Transition(status.Disconnected)
		_ = m.db.PatchSessionState(store.SessionPatch{State: store.StateDisconnected})
		return nil, fmt.Errorf("establish session: %w", err)
	}
	m.handle = handle
	return m.db.SessionState()
}

// Disconnect tears down any active connection and cancels a pending
// reconnect. Idempotent.
func (m *Manager) Disconnect() (*store.SessionState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.manualDisconnect = true
	if m.reconnectTimer != nil {
		m.reconnectTimer.Stop()
		m.reconnectTimer = nil
	}
	if m.handle != nil {
		m.handle.Close()
		m.handle = nil
	}
	m.connecting = false
	_ = m.machine.Transition(status.Disconnected)
	if err := m.db.PatchSessionState(store.SessionPatch{State: store.StateDisconnected}); err != nil {
		return nil, err
	}
	m.logger.Info("session disconnected by request")
	return m.db.SessionState()
}

// Status returns the current session snapshot without side effects.
func (m *Manager) Status() (*store.SessionState, error) {
	return m.db.SessionState()
}

// QR returns the current pairing code text and its recorded expiry.
func (m *Manager) QR() (text string, expiresAt int64, err error) {
	s, err := m.db.SessionState()
	if err != nil {
		return "", 0, err
	}
	return s.QRText, s.QRExpiresAt, nil
}

// QRPNG renders the current pairing code as a PNG image. The recorded
// expiry is intentionally not checked before rendering.
func (m *Manager) QRPNG() ([]byte, error) {
	text, _, err := m.QR()
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, apperr.NotFound(apperr.CodeQRMissing, "no active QR available")
	}
	return qrcode.Encode(text, qrcode.Medium, qrPNGSize)
}

// Message looks up an observed message, first in the cache, then in the
// history source if one is installed. Returns nil when neither has it.
func (m *Manager) Message(ctx context.Context, chatID, messageID string) (*wa.Message, error) {
	if msg, ok := m.cache.Get(chatID, messageID); ok {
		return msg, nil
	}

	m.mu.Lock()
	history := m.history
	m.mu.Unlock()
	if history == nil {
		return nil, nil
	}

	msg, err := history.LoadMessage(ctx, chatID, messageID)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if msg == nil {
		return nil, nil
	}
	m.cache.Put(msg)
	return msg, nil
}

// DownloadSticker fetches the sticker media of an observed message.
func (m *Manager) DownloadSticker(ctx context.Context, msg *wa.Message) ([]byte, error) {
	m.mu.Lock()
	handle := m.handle
	m.mu.Unlock()

	if handle == nil {
		return nil, apperr.New(apperr.CodeNotConnected, "session is not connected", 409)
	}
	if msg == nil || !msg.HasSticker {
		return nil, apperr.New(apperr.CodeNotASticker, "message does not contain a sticker", 400)
	}
	return handle.DownloadSticker(ctx, msg)
}

// SendSticker transmits sticker bytes through the live connection.
func (m *Manager) SendSticker(ctx context.Context, destination string, data []byte, quoted *wa.Message) (string, error) {
	m.mu.Lock()
	handle := m.handle
	m.mu.Unlock()

	if handle == nil {
		return "", apperr.New(apperr.CodeNotConnected, "session is not connected", 409)
	}
	return handle.SendSticker(ctx, destination, data, quoted)
}

func (m *Manager) handleEvent(evt wa.Event) {
	switch e := evt.(type) {
	case wa.QRIssued:
		m.onQR(e)
	case wa.Opened:
		m.onOpened(e)
	case wa.Closed:
		m.onClosed(e)
	case wa.MessageReceived:
		m.onMessage(e)
	}
}

func (m *Manager) onQR(e wa.QRIssued) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_ = m.machine.Transition(status.Connecting)
	err := m.db.PatchSessionState(store.SessionPatch{
		State:       store.StateConnecting,
		QRText:      e.Text,
		QRExpiresAt: time.Now().Add(qrTTL).UnixMilli(),
	})
	if err != nil {
		m.logger.Error("failed to record QR", zap.Error(err))
		return
	}
	m.logger.Info("pairing QR issued")
	m.bus.Publish(bus.Event{Kind: "session.qr_issued", Timestamp: time.Now()})
}

func (m *Manager) onOpened(e wa.Opened) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connecting = false
	_ = m.machine.Transition(status.Connected)
	err := m.db.PatchSessionState(store.SessionPatch{
		State:            store.StateConnected,
		Identity:         e.Identity,
		LastConnectionAt: time.Now().UnixMilli(),
	})
	if err != nil {
		m.logger.Error("failed to record open", zap.Error(err))
	}
	m.logger.Info("session connected", zap.String("identity", e.Identity))
}

func (m *Manager) onClosed(e wa.Closed) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connecting = false
	m.handle = nil

	terminal := m.manualDisconnect || terminalClose(e.Reason)
	m.logger.Warn("connection closed",
		zap.Int("code", e.Reason.Code),
		zap.String("conflict", e.Reason.ConflictType),
		zap.Bool("terminal", terminal))

	if terminal {
		_ = m.machine.Transition(status.Disconnected)
		if err := m.db.PatchSessionState(store.SessionPatch{State: store.StateDisconnected}); err != nil {
			m.logger.Error("failed to record close", zap.Error(err))
		}
		return
	}

	_ = m.machine.Transition(status.Connecting)
	if err := m.db.PatchSessionState(store.SessionPatch{State: store.StateConnecting}); err != nil {
		m.logger.Error("failed to record close", zap.Error(err))
	}
	m.reconnectTimer = time.AfterFunc(m.retryDelay, m.reconnectNow)
}

func (m *Manager) reconnectNow() {
	// The flag check and the reconnect must share one mutex hold, or a
	// Disconnect completing in between would be silently overridden.
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.manualDisconnect {
		// Disconnect won the race against the timer.
		return
	}
	m.reconnectTimer = nil
	if _, err := m.connectLocked(context.Background()); err != nil {
		m.logger.Error("reconnect failed", zap.Error(err))
	}
}

func (m *Manager) onMessage(e wa.MessageReceived) {
	if e.Message == nil {
		return
	}
	m.cache.Put(e.Message)
	m.bus.Publish(bus.Event{Kind: "wa.message", Timestamp: time.Now(), Payload: e.Message})
}

// terminalClose reports whether a close reason rules out reconnecting:
// logout, unauthorized, invalid session, or this device being removed from
// the account.
func terminalClose(r wa.CloseReason) bool {
	return r.Code == wa.CodeLoggedOut ||
		r.Code == wa.CodeBadSession ||
		r.ConflictType == wa.ConflictDeviceRemoved
}
