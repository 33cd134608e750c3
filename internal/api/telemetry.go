package api

import (
	"context"
	"net/http"
)

func (c *Client) get(ctx context.Context, connID, suffix string, out interface{}) error {
	path, err := scoped(connID, suffix)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, http.MethodGet, path, nil, out)
	return err
}

// Status returns active users and resource usage of the router.
func (c *Client) Status(ctx context.Context, connID string) (*RouterStatus, error) {
	var status RouterStatus
	if err := c.get(ctx, connID, "/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SystemInfo returns identity, firmware and health of the router.
func (c *Client) SystemInfo(ctx context.Context, connID string) (*SystemInfo, error) {
	var info SystemInfo
	if err := c.get(ctx, connID, "/system-info", &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Logs returns recent router system log lines.
func (c *Client) Logs(ctx context.Context, connID string) (*SystemLogs, error) {
	var logs SystemLogs
	if err := c.get(ctx, connID, "/logs", &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// HotspotLogs returns hotspot authentication log lines.
func (c *Client) HotspotLogs(ctx context.Context, connID string) (*HotspotLogs, error) {
	var logs HotspotLogs
	if err := c.get(ctx, connID, "/hotspot-logs", &logs); err != nil {
		return nil, err
	}
	return &logs, nil
}

// Traffic returns one rate sample per interface.
func (c *Client) Traffic(ctx context.Context, connID string) ([]InterfaceTraffic, error) {
	var samples []InterfaceTraffic
	if err := c.get(ctx, connID, "/simple-traffic", &samples); err != nil {
		return nil, err
	}
	return samples, nil
}
