package storage

import (
	"context"

	"mikrodesk/internal/storage/models"
)

// Setting keys persisted between runs.
const (
	SettingActiveTab        = "active_tab"
	SettingHotspotView      = "hotspot_view"
	SettingTrafficInterface = "traffic_interface"
	SettingExportFormat     = "export_format"
)

// Storage defines the interface for local state persistence
type Storage interface {
	// Settings operations
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetAllSettings(ctx context.Context) (map[string]string, error)

	// Active session
	SetSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context) (*models.Session, error) // nil when disconnected
	ClearSession(ctx context.Context) error

	// Voucher history
	SaveVoucherBatch(ctx context.Context, batch *models.VoucherBatch) error
	GetVoucherBatch(ctx context.Context, id int64) (*models.VoucherBatch, error)
	ListVoucherBatches(ctx context.Context, limit int) ([]*models.VoucherBatch, error)

	// Transactions
	BeginTx(ctx context.Context) (Transaction, error)

	// Close closes the storage connection
	Close() error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Storage
}
