package models

import (
	"encoding/json"
	"time"
)

// VoucherBatch is a generated voucher batch kept locally for reprinting.
type VoucherBatch struct {
	ID           int64           `json:"id"`
	ConnectionID string          `json:"connection_id"`
	RouterName   string          `json:"router_name"`
	Profile      string          `json:"profile"`
	Price        string          `json:"price"`
	DNSName      string          `json:"dns_name"`
	Count        int             `json:"count"`
	Vouchers     json.RawMessage `json:"vouchers"` // []api.Voucher
	CreatedAt    time.Time       `json:"created_at"`
}
