package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/api"
	"mikrodesk/internal/form"
	pkgerrors "mikrodesk/pkg/errors"
)

func newTestApp(t *testing.T) (*App, *mux.Router) {
	t.Helper()
	r := mux.NewRouter()
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	t.Setenv("MIKRODESK_HOME", dir)
	t.Setenv("MIKRODESK_API_URL", srv.URL+"/api")

	a, err := New(Options{
		ConfigPath: filepath.Join(dir, "config.yaml"),
		DBPath:     filepath.Join(dir, "state.db"),
		LogLevel:   "error",
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a, r
}

func reply(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewRegistersQueries(t *testing.T) {
	a, _ := newTestApp(t)

	for _, res := range DashboardResources {
		_, ok := a.Cache.Lookup(res)
		assert.True(t, ok, res)
	}
	q, ok := a.Cache.Lookup(ResTransactions)
	require.True(t, ok)
	assert.Equal(t, a.Config.Poll.Report, q.Interval)

	q, ok = a.Cache.Lookup(ResIPPools)
	require.True(t, ok)
	assert.Zero(t, q.Interval)
}

func TestQueriesFollowSession(t *testing.T) {
	a, r := newTestApp(t)
	ctx := context.Background()

	r.HandleFunc("/api/router/connect", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, map[string]interface{}{"success": true, "connectionId": "c-9"})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/router/c-9/hotspot-users", func(w http.ResponseWriter, _ *http.Request) {
		reply(w, map[string]interface{}{"success": true, "data": map[string]int{"total": 4}})
	})

	_, err := a.Cache.Fetch(ctx, ResUserCount)
	assert.ErrorIs(t, err, pkgerrors.ErrNoConnection)

	f := form.FromRouter(&api.Router{
		Name: "cafe", Host: "10.1.1.1", Username: "admin", Password: "x",
		HotspotName: "hs", DNSName: "wifi.cafe", Currency: "USD", SessionTimeout: "1h",
	})
	_, err = a.Session.Connect(ctx, f)
	require.NoError(t, err)

	entry, err := a.Cache.Fetch(ctx, ResUserCount)
	require.NoError(t, err)
	assert.Equal(t, 3, entry.Data)

	require.NoError(t, a.Session.Disconnect(ctx))
	_, ok := a.Cache.Get(ResUserCount)
	assert.False(t, ok)
}
