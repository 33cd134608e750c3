package sqlite

const schema = `
-- Application settings
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Active backend session
CREATE TABLE IF NOT EXISTS active_session (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    connection_id TEXT NOT NULL,
    router_name TEXT NOT NULL,
    host TEXT NOT NULL DEFAULT '',
    hotspot_name TEXT NOT NULL DEFAULT '',
    dns_name TEXT NOT NULL DEFAULT '',
    currency TEXT NOT NULL DEFAULT '',
    connected_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Generated voucher batches
CREATE TABLE IF NOT EXISTS voucher_batches (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    connection_id TEXT NOT NULL,
    router_name TEXT NOT NULL DEFAULT '',
    profile TEXT NOT NULL,
    price TEXT NOT NULL DEFAULT '',
    dns_name TEXT NOT NULL DEFAULT '',
    count INTEGER NOT NULL,
    vouchers TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_voucher_batches_created_at ON voucher_batches(created_at);

CREATE TRIGGER IF NOT EXISTS update_settings_timestamp AFTER UPDATE ON settings
BEGIN
    UPDATE settings SET updated_at = CURRENT_TIMESTAMP WHERE key = NEW.key;
END;
`

const defaultData = `
INSERT OR IGNORE INTO settings (key, value) VALUES
    ('active_tab', 'dashboard'),
    ('hotspot_view', 'users'),
    ('traffic_interface', ''),
    ('export_format', 'csv');
`

// runMigrations executes the database schema and default data
func runMigrations(db *DB) error {
	if _, err := db.db.Exec(schema); err != nil {
		return err
	}
	if _, err := db.db.Exec(defaultData); err != nil {
		return err
	}
	return nil
}
