package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"mikrodesk/internal/storage"
	"mikrodesk/internal/storage/models"
)

// dbHandle is the common interface between *sql.DB and *sql.Tx.
type dbHandle interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB implements the Storage interface using SQLite
type DB struct {
	db *sql.DB
}

// New opens (creating if needed) the state database at dbPath.
func New(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The CLI and the TUI may run side by side; keep writers serialized.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	store := &DB{db: db}
	if err := runMigrations(store); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// Close closes the database connection
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) handle() dbHandle { return d.db }

// BeginTx starts a new transaction
func (d *DB) BeginTx(ctx context.Context) (storage.Transaction, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &Tx{tx: tx}, nil
}

// Tx implements the Transaction interface
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) Commit() error    { return t.tx.Commit() }
func (t *Tx) Rollback() error  { return t.tx.Rollback() }
func (t *Tx) handle() dbHandle { return t.tx }

func (t *Tx) BeginTx(ctx context.Context) (storage.Transaction, error) {
	return nil, fmt.Errorf("nested transactions not supported")
}

func (t *Tx) Close() error { return nil }

// ─── Settings operations ────────────────────────────────────────────────────

func (d *DB) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, d.handle(), key)
}
func (t *Tx) GetSetting(ctx context.Context, key string) (string, error) {
	return getSetting(ctx, t.handle(), key)
}

func getSetting(ctx context.Context, h dbHandle, key string) (string, error) {
	var value string
	err := h.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("setting not found: %s", key)
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (d *DB) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, d.handle(), key, value)
}
func (t *Tx) SetSetting(ctx context.Context, key, value string) error {
	return setSetting(ctx, t.handle(), key, value)
}

func setSetting(ctx context.Context, h dbHandle, key, value string) error {
	query := `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	_, err := h.ExecContext(ctx, query, key, value)
	return err
}

func (d *DB) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return getAllSettings(ctx, d.handle())
}
func (t *Tx) GetAllSettings(ctx context.Context) (map[string]string, error) {
	return getAllSettings(ctx, t.handle())
}

func getAllSettings(ctx context.Context, h dbHandle) (map[string]string, error) {
	rows, err := h.QueryContext(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// ─── Session operations ─────────────────────────────────────────────────────

func (d *DB) SetSession(ctx context.Context, s *models.Session) error {
	return setSession(ctx, d.handle(), s)
}
func (t *Tx) SetSession(ctx context.Context, s *models.Session) error {
	return setSession(ctx, t.handle(), s)
}

func setSession(ctx context.Context, h dbHandle, s *models.Session) error {
	if s.ConnectedAt.IsZero() {
		s.ConnectedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO active_session (id, connection_id, router_name, host, hotspot_name, dns_name, currency, connected_at)
		VALUES (1, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			connection_id = excluded.connection_id,
			router_name = excluded.router_name,
			host = excluded.host,
			hotspot_name = excluded.hotspot_name,
			dns_name = excluded.dns_name,
			currency = excluded.currency,
			connected_at = excluded.connected_at
	`
	_, err := h.ExecContext(ctx, query,
		s.ConnectionID, s.RouterName, s.Host, s.HotspotName, s.DNSName, s.Currency, s.ConnectedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	s.ID = 1
	return nil
}

func (d *DB) GetSession(ctx context.Context) (*models.Session, error) {
	return getSession(ctx, d.handle())
}
func (t *Tx) GetSession(ctx context.Context) (*models.Session, error) {
	return getSession(ctx, t.handle())
}

func getSession(ctx context.Context, h dbHandle) (*models.Session, error) {
	query := `
		SELECT id, connection_id, router_name, host, hotspot_name, dns_name, currency, connected_at
		FROM active_session WHERE id = 1
	`
	s := &models.Session{}
	err := h.QueryRowContext(ctx, query).Scan(
		&s.ID, &s.ConnectionID, &s.RouterName, &s.Host, &s.HotspotName, &s.DNSName, &s.Currency, &s.ConnectedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (d *DB) ClearSession(ctx context.Context) error {
	return clearSession(ctx, d.handle())
}
func (t *Tx) ClearSession(ctx context.Context) error {
	return clearSession(ctx, t.handle())
}

func clearSession(ctx context.Context, h dbHandle) error {
	_, err := h.ExecContext(ctx, "DELETE FROM active_session WHERE id = 1")
	return err
}

// ─── Voucher history ────────────────────────────────────────────────────────

func (d *DB) SaveVoucherBatch(ctx context.Context, batch *models.VoucherBatch) error {
	return saveVoucherBatch(ctx, d.handle(), batch)
}
func (t *Tx) SaveVoucherBatch(ctx context.Context, batch *models.VoucherBatch) error {
	return saveVoucherBatch(ctx, t.handle(), batch)
}

func saveVoucherBatch(ctx context.Context, h dbHandle, batch *models.VoucherBatch) error {
	if batch.CreatedAt.IsZero() {
		batch.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO voucher_batches (connection_id, router_name, profile, price, dns_name, count, vouchers, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := h.ExecContext(ctx, query,
		batch.ConnectionID, batch.RouterName, batch.Profile, batch.Price, batch.DNSName,
		batch.Count, string(batch.Vouchers), batch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save voucher batch: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	batch.ID = id
	return nil
}

const voucherBatchColumns = `id, connection_id, router_name, profile, price, dns_name, count, vouchers, created_at`

func scanVoucherBatch(scan func(dest ...interface{}) error) (*models.VoucherBatch, error) {
	b := &models.VoucherBatch{}
	var vouchers string
	if err := scan(&b.ID, &b.ConnectionID, &b.RouterName, &b.Profile, &b.Price, &b.DNSName,
		&b.Count, &vouchers, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Vouchers = []byte(vouchers)
	return b, nil
}

func (d *DB) GetVoucherBatch(ctx context.Context, id int64) (*models.VoucherBatch, error) {
	return getVoucherBatch(ctx, d.handle(), id)
}
func (t *Tx) GetVoucherBatch(ctx context.Context, id int64) (*models.VoucherBatch, error) {
	return getVoucherBatch(ctx, t.handle(), id)
}

func getVoucherBatch(ctx context.Context, h dbHandle, id int64) (*models.VoucherBatch, error) {
	row := h.QueryRowContext(ctx, "SELECT "+voucherBatchColumns+" FROM voucher_batches WHERE id = ?", id)
	b, err := scanVoucherBatch(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("voucher batch not found: %d", id)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (d *DB) ListVoucherBatches(ctx context.Context, limit int) ([]*models.VoucherBatch, error) {
	return listVoucherBatches(ctx, d.handle(), limit)
}
func (t *Tx) ListVoucherBatches(ctx context.Context, limit int) ([]*models.VoucherBatch, error) {
	return listVoucherBatches(ctx, t.handle(), limit)
}

func listVoucherBatches(ctx context.Context, h dbHandle, limit int) ([]*models.VoucherBatch, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.QueryContext(ctx,
		"SELECT "+voucherBatchColumns+" FROM voucher_batches ORDER BY created_at DESC, id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []*models.VoucherBatch
	for rows.Next() {
		b, err := scanVoucherBatch(rows.Scan)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	return batches, rows.Err()
}
