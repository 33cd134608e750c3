package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/api"
	"mikrodesk/internal/form"
	"mikrodesk/internal/logger"
	"mikrodesk/internal/storage/sqlite"
	pkgerrors "mikrodesk/pkg/errors"
)

type stubBackend struct {
	connectID  string
	connectErr error
	connected  []api.ConnectParams
	deletedIDs []int64
}

func (b *stubBackend) Connect(ctx context.Context, p api.ConnectParams) (string, error) {
	b.connected = append(b.connected, p)
	return b.connectID, b.connectErr
}

func (b *stubBackend) DeleteRouter(ctx context.Context, id int64) error {
	b.deletedIDs = append(b.deletedIDs, id)
	return nil
}

func newSession(t *testing.T, b *stubBackend) (*Session, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db, b, logger.Discard()), db
}

func filledForm(t *testing.T) *form.ConnectForm {
	t.Helper()
	return form.FromRouter(&api.Router{
		Name: "shop", Host: "10.0.0.1", Username: "admin", Password: "pw",
		HotspotName: "hs1", DNSName: "hot.spot", Currency: "LRD", SessionTimeout: "1h",
	})
}

func TestRequireWithoutConnection(t *testing.T) {
	s, _ := newSession(t, &stubBackend{})
	require.NoError(t, s.Load(context.Background()))

	_, err := s.Require()
	assert.ErrorIs(t, err, pkgerrors.ErrNoConnection)
	assert.False(t, s.Connected())
	assert.Nil(t, s.Current())
}

func TestConnectPersistsAndNotifies(t *testing.T) {
	b := &stubBackend{connectID: "conn-1"}
	s, db := newSession(t, b)
	ctx := context.Background()

	var seen []string
	s.OnChange(func(id string) { seen = append(seen, id) })

	cur, err := s.Connect(ctx, filledForm(t))
	require.NoError(t, err)
	assert.Equal(t, "conn-1", cur.ConnectionID)
	assert.Equal(t, "LRD", s.Currency())

	id, err := s.Require()
	require.NoError(t, err)
	assert.Equal(t, "conn-1", id)

	// A fresh session over the same store picks the connection back up.
	restored := New(db, b, logger.Discard())
	require.NoError(t, restored.Load(ctx))
	assert.Equal(t, "conn-1", restored.ID())
	assert.Equal(t, "hot.spot", restored.Current().DNSName)

	require.NoError(t, s.Disconnect(ctx))
	assert.Empty(t, s.ID())
	assert.Equal(t, []string{"conn-1", ""}, seen)

	require.NoError(t, restored.Load(ctx))
	assert.False(t, restored.Connected())
}

func TestConnectInvalidFormSkipsBackend(t *testing.T) {
	b := &stubBackend{connectID: "x"}
	s, _ := newSession(t, b)

	_, err := s.Connect(context.Background(), form.NewConnectForm())
	assert.ErrorIs(t, err, pkgerrors.ErrValidation)
	assert.Empty(t, b.connected)
	assert.False(t, s.Connected())
}

func TestConnectBackendFailure(t *testing.T) {
	b := &stubBackend{connectErr: &pkgerrors.APIError{Message: "Authentication failed"}}
	s, _ := newSession(t, b)

	_, err := s.Connect(context.Background(), filledForm(t))
	require.Error(t, err)
	var apiErr *pkgerrors.APIError
	assert.True(t, errors.As(err, &apiErr))
	assert.False(t, s.Connected())
}

func TestDeleteRouterClearsMatchingSession(t *testing.T) {
	b := &stubBackend{connectID: "conn-1"}
	s, _ := newSession(t, b)
	ctx := context.Background()
	_, err := s.Connect(ctx, filledForm(t))
	require.NoError(t, err)

	require.NoError(t, s.DeleteRouter(ctx, &api.Router{ID: 7, Name: "cafe", Host: "10.0.0.2"}))
	assert.True(t, s.Connected(), "other router deleted")

	require.NoError(t, s.DeleteRouter(ctx, &api.Router{ID: 3, Name: "shop", Host: "10.0.0.1"}))
	assert.False(t, s.Connected())
	assert.Equal(t, []int64{7, 3}, b.deletedIDs)
}
