package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mikrodesk/internal/storage"
	"mikrodesk/internal/storage/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDefaultSettings(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	all, err := db.GetAllSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dashboard", all[storage.SettingActiveTab])
	assert.Equal(t, "csv", all[storage.SettingExportFormat])

	require.NoError(t, db.SetSetting(ctx, storage.SettingActiveTab, "report"))
	v, err := db.GetSetting(ctx, storage.SettingActiveTab)
	require.NoError(t, err)
	assert.Equal(t, "report", v)

	_, err = db.GetSetting(ctx, "missing")
	assert.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := New(path)
	require.NoError(t, err)
	require.NoError(t, db.SetSetting(context.Background(), storage.SettingHotspotView, "hosts"))
	require.NoError(t, db.Close())

	db, err = New(path)
	require.NoError(t, err)
	defer db.Close()
	v, err := db.GetSetting(context.Background(), storage.SettingHotspotView)
	require.NoError(t, err)
	assert.Equal(t, "hosts", v)
}

func TestSessionSingleton(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s, err := db.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)

	require.NoError(t, db.SetSession(ctx, &models.Session{ConnectionID: "a", RouterName: "shop", Currency: "LRD"}))
	require.NoError(t, db.SetSession(ctx, &models.Session{ConnectionID: "b", RouterName: "cafe"}))

	s, err = db.GetSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, int64(1), s.ID)
	assert.Equal(t, "b", s.ConnectionID)
	assert.Equal(t, "cafe", s.RouterName)
	assert.Empty(t, s.Currency)

	require.NoError(t, db.ClearSession(ctx))
	s, err = db.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestVoucherHistory(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, profile := range []string{"1hour", "1day", "1week"} {
		b := &models.VoucherBatch{
			ConnectionID: "c1",
			Profile:      profile,
			Count:        i + 1,
			Vouchers:     []byte(`[{"username":"A","password":"B"}]`),
			CreatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, db.SaveVoucherBatch(ctx, b))
		assert.NotZero(t, b.ID)
	}

	list, err := db.ListVoucherBatches(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "1week", list[0].Profile)
	assert.Equal(t, "1day", list[1].Profile)

	got, err := db.GetVoucherBatch(ctx, list[1].ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.Count)
	assert.JSONEq(t, `[{"username":"A","password":"B"}]`, string(got.Vouchers))

	_, err = db.GetVoucherBatch(ctx, 999)
	assert.Error(t, err)
}

func TestTxRollback(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.SetSession(ctx, &models.Session{ConnectionID: "x", RouterName: "r"}))
	require.NoError(t, tx.Rollback())

	s, err := db.GetSession(ctx)
	require.NoError(t, err)
	assert.Nil(t, s)
}
