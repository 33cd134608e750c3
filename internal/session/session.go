package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"mikrodesk/internal/api"
	"mikrodesk/internal/form"
	"mikrodesk/internal/storage"
	"mikrodesk/internal/storage/models"
	pkgerrors "mikrodesk/pkg/errors"
)

// Backend is the subset of the API client the session needs.
type Backend interface {
	Connect(ctx context.Context, params api.ConnectParams) (string, error)
	DeleteRouter(ctx context.Context, id int64) error
}

// Session owns the active connection id. It is created once at startup
// and handed to everything that issues router scoped calls.
type Session struct {
	store   storage.Storage
	backend Backend
	log     logrus.FieldLogger

	mu        sync.RWMutex
	current   *models.Session
	listeners []func(connID string)
}

// New creates an empty session. Call Load to restore a persisted one.
func New(store storage.Storage, backend Backend, log logrus.FieldLogger) *Session {
	return &Session{store: store, backend: backend, log: log}
}

// Load restores the persisted connection, if any.
func (s *Session) Load(ctx context.Context) error {
	cur, err := s.store.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}
	s.mu.Lock()
	s.current = cur
	s.mu.Unlock()
	if cur != nil {
		s.log.WithField("router", cur.RouterName).Debug("restored session")
	}
	return nil
}

// OnChange registers fn to run whenever the connection id changes. fn
// receives the new id, empty after a disconnect.
func (s *Session) OnChange(fn func(connID string)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Session) notify(connID string) {
	s.mu.RLock()
	listeners := append([]func(string){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(connID)
	}
}

// ID returns the active connection id, empty when disconnected.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return ""
	}
	return s.current.ConnectionID
}

// Require returns the active connection id or ErrNoConnection.
func (s *Session) Require() (string, error) {
	if id := s.ID(); id != "" {
		return id, nil
	}
	return "", pkgerrors.ErrNoConnection
}

// Connected reports whether a connection id is held.
func (s *Session) Connected() bool {
	return s.ID() != ""
}

// Current returns a copy of the persisted session, nil when disconnected.
func (s *Session) Current() *models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil
	}
	cp := *s.current
	return &cp
}

// Currency returns the currency of the connected router, if known.
func (s *Session) Currency() string {
	if cur := s.Current(); cur != nil {
		return cur.Currency
	}
	return ""
}

// Connect validates f, opens a backend connection and persists it.
func (s *Session) Connect(ctx context.Context, f *form.ConnectForm) (*models.Session, error) {
	params, err := f.Submit()
	if err != nil {
		return nil, err
	}

	connID, err := s.backend.Connect(ctx, params)
	if err != nil {
		s.log.WithError(err).WithField("host", params.Host).Warn("connect failed")
		return nil, err
	}

	cur := &models.Session{
		ConnectionID: connID,
		RouterName:   params.Name,
		Host:         params.Host,
		HotspotName:  params.HotspotName,
		DNSName:      params.DNSName,
		Currency:     params.Currency,
	}
	if err := s.store.SetSession(ctx, cur); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.current = cur
	s.mu.Unlock()

	s.log.WithFields(logrus.Fields{"router": cur.RouterName, "host": cur.Host}).Info("connected")
	s.notify(connID)
	cp := *cur
	return &cp, nil
}

// Disconnect forgets the active connection.
func (s *Session) Disconnect(ctx context.Context) error {
	if err := s.store.ClearSession(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	s.mu.Lock()
	had := s.current != nil
	s.current = nil
	s.mu.Unlock()
	if had {
		s.log.Info("disconnected")
		s.notify("")
	}
	return nil
}

// DeleteRouter removes r from the backend inventory. When r is the router
// the session is connected to, the session is cleared as well.
func (s *Session) DeleteRouter(ctx context.Context, r *api.Router) error {
	if err := s.backend.DeleteRouter(ctx, r.ID); err != nil {
		return err
	}
	cur := s.Current()
	if cur != nil && (cur.RouterName == r.Name || (r.Host != "" && cur.Host == r.Host)) {
		return s.Disconnect(ctx)
	}
	return nil
}
