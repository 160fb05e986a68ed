package api

import (
	"context"

	"github.com/vhqueiroz/stickerd/internal/session"
	"github.com/vhqueiroz/stickerd/internal/store"
)

// SessionService exposes session lifecycle and pairing operations.
type SessionService struct {
	manager *session.Manager
}

func NewSessionService(m *session.Manager) *SessionService {
	return &SessionService{manager: m}
}

func (s *SessionService) Status() (*store.SessionState, error) {
	return s.manager.Status()
}

func (s *SessionService) Connect(ctx context.Context) (*store.SessionState, error) {
	return s.manager.Connect(ctx)
}

func (s *SessionService) Disconnect() (*store.SessionState, error) {
	return s.manager.Disconnect()
}

func (s *SessionService) QRText() (string, int64, error) {
	return s.manager.QR()
}

func (s *SessionService) QRPNG() ([]byte, error) {
	return s.manager.QRPNG()
}
