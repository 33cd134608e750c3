package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	pkgerrors "mikrodesk/pkg/errors"
)

// Connect registers a router with the backend and returns the connection
// id that scopes every later call.
func (c *Client) Connect(ctx context.Context, params ConnectParams) (string, error) {
	env, err := c.do(ctx, http.MethodPost, "/router/connect", params, nil)
	if err != nil {
		return "", err
	}
	if env.ConnectionID == "" {
		return "", fmt.Errorf("%w: backend did not return a connection id", pkgerrors.ErrConnectionFailed)
	}
	return env.ConnectionID, nil
}

// ListRouters returns the saved router inventory.
func (c *Client) ListRouters(ctx context.Context) ([]Router, error) {
	env, err := c.do(ctx, http.MethodGet, "/routers/", nil, nil)
	if err != nil {
		return nil, err
	}
	var routers []Router
	if len(env.Routers) > 0 {
		if err := json.Unmarshal(env.Routers, &routers); err != nil {
			return nil, fmt.Errorf("failed to decode routers: %w", err)
		}
	}
	return routers, nil
}

// FindRouter looks a router up by name or numeric id.
func (c *Client) FindRouter(ctx context.Context, ref string) (*Router, error) {
	routers, err := c.ListRouters(ctx)
	if err != nil {
		return nil, err
	}
	id, idErr := strconv.ParseInt(ref, 10, 64)
	for i := range routers {
		if routers[i].Name == ref || (idErr == nil && routers[i].ID == id) {
			return &routers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", pkgerrors.ErrRouterNotFound, ref)
}

// UpdateRouter replaces the stored details of router id.
func (c *Client) UpdateRouter(ctx context.Context, id int64, update RouterUpdate) error {
	_, err := c.do(ctx, http.MethodPut, "/routers/"+strconv.FormatInt(id, 10), update, nil)
	return err
}

// DeleteRouter removes router id from the inventory.
func (c *Client) DeleteRouter(ctx context.Context, id int64) error {
	_, err := c.do(ctx, http.MethodDelete, "/routers/"+strconv.FormatInt(id, 10), nil, nil)
	return err
}
