package api

import (
	"context"
	"net/http"
	"net/url"
)

// HotspotUsers returns every configured hotspot user.
func (c *Client) HotspotUsers(ctx context.Context, connID string) ([]HotspotUser, error) {
	var data struct {
		Total int           `json:"total"`
		Users []HotspotUser `json:"users"`
	}
	if err := c.get(ctx, connID, "/hotspot-users-structured", &data); err != nil {
		return nil, err
	}
	return data.Users, nil
}

// UserCount returns the number of hotspot users shown on the dashboard. The
// router always lists its built-in default-trial user, which is not counted.
func (c *Client) UserCount(ctx context.Context, connID string) (int, error) {
	var data struct {
		Total int `json:"total"`
	}
	if err := c.get(ctx, connID, "/hotspot-users", &data); err != nil {
		return 0, err
	}
	if data.Total < 1 {
		return 0, nil
	}
	return data.Total - 1, nil
}

func (c *Client) send(ctx context.Context, method, connID, suffix string, body interface{}) error {
	path, err := scoped(connID, suffix)
	if err != nil {
		return err
	}
	_, err = c.do(ctx, method, path, body, nil)
	return err
}

// CreateUser adds a hotspot user.
func (c *Client) CreateUser(ctx context.Context, connID string, user UserPayload) error {
	return c.send(ctx, http.MethodPost, connID, "/hotspot-users", user)
}

// UpdateUser edits hotspot user name. A blank password keeps the current one.
func (c *Client) UpdateUser(ctx context.Context, connID, name string, user UserPayload) error {
	user.Name = ""
	return c.send(ctx, http.MethodPut, connID, "/hotspot-users/"+url.PathEscape(name), user)
}

// DeleteUser removes hotspot user name.
func (c *Client) DeleteUser(ctx context.Context, connID, name string) error {
	return c.send(ctx, http.MethodDelete, connID, "/hotspot-users/"+url.PathEscape(name), nil)
}

// Profiles returns the hotspot user profiles with their pricing.
func (c *Client) Profiles(ctx context.Context, connID string) ([]HotspotProfile, error) {
	var data struct {
		Profiles []HotspotProfile `json:"profiles"`
	}
	if err := c.get(ctx, connID, "/hotspot-profiles", &data); err != nil {
		return nil, err
	}
	return data.Profiles, nil
}

// CreateProfile adds a hotspot user profile.
func (c *Client) CreateProfile(ctx context.Context, connID string, profile ProfilePayload) error {
	return c.send(ctx, http.MethodPost, connID, "/hotspot-profiles", profile)
}

// UpdateProfile edits the profile called name.
func (c *Client) UpdateProfile(ctx context.Context, connID, name string, profile ProfilePayload) error {
	return c.send(ctx, http.MethodPut, connID, "/hotspot-profiles/"+url.PathEscape(name), profile)
}

// DeleteProfile removes the profile called name.
func (c *Client) DeleteProfile(ctx context.Context, connID, name string) error {
	return c.send(ctx, http.MethodDelete, connID, "/hotspot-profiles/"+url.PathEscape(name), nil)
}

// Servers returns the hotspot server instances.
func (c *Client) Servers(ctx context.Context, connID string) ([]HotspotServer, error) {
	var data struct {
		Total   int             `json:"total"`
		Servers []HotspotServer `json:"servers"`
	}
	if err := c.get(ctx, connID, "/hotspot-servers", &data); err != nil {
		return nil, err
	}
	return data.Servers, nil
}

// Hosts returns devices currently known to the hotspot.
func (c *Client) Hosts(ctx context.Context, connID string) ([]HotspotHost, error) {
	var data struct {
		Hosts []HotspotHost `json:"hosts"`
	}
	if err := c.get(ctx, connID, "/hotspot-hosts", &data); err != nil {
		return nil, err
	}
	return data.Hosts, nil
}

// ActiveUsers returns live hotspot sessions.
func (c *Client) ActiveUsers(ctx context.Context, connID string) ([]ActiveUser, error) {
	var data struct {
		Users []ActiveUser `json:"users"`
	}
	if err := c.get(ctx, connID, "/active-users", &data); err != nil {
		return nil, err
	}
	return data.Users, nil
}

// IPPools returns address pools a profile can draw from.
func (c *Client) IPPools(ctx context.Context, connID string) ([]IPPool, error) {
	var pools []IPPool
	if err := c.get(ctx, connID, "/ip-pools", &pools); err != nil {
		return nil, err
	}
	return pools, nil
}

// DNSName returns the hotspot login DNS name printed on vouchers.
func (c *Client) DNSName(ctx context.Context, connID string) (string, error) {
	var data struct {
		DNSName string `json:"dnsName"`
	}
	if err := c.get(ctx, connID, "/hotspot-dns-name", &data); err != nil {
		return "", err
	}
	return data.DNSName, nil
}
