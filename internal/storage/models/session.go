package models

import "time"

// Session is the persisted connection to one router through the backend.
type Session struct {
	ID           int64     `json:"id"` // Always 1 (singleton)
	ConnectionID string    `json:"connection_id"`
	RouterName   string    `json:"router_name"`
	Host         string    `json:"host"`
	HotspotName  string    `json:"hotspot_name"`
	DNSName      string    `json:"dns_name"`
	Currency     string    `json:"currency"`
	ConnectedAt  time.Time `json:"connected_at"`
}
