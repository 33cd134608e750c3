package tui

import (
	"mikrodesk/internal/api"
	"mikrodesk/internal/query"
	"mikrodesk/internal/storage/models"
	"mikrodesk/internal/voucher"
)

// Data loading messages.

type settingsLoadedMsg struct {
	settings map[string]string
	err      error
}

type routersLoadedMsg struct {
	routers []api.Router
	err     error
}

// cacheUpdateMsg carries one entry change published by the query cache.
type cacheUpdateMsg struct {
	update query.Update
}

type refreshDoneMsg struct {
	err error
}

// Connection lifecycle messages.

type connectResultMsg struct {
	session *models.Session
	err     error
}

type disconnectResultMsg struct {
	err error
}

type routerDeletedMsg struct {
	name string
	err  error
}

// mutationDoneMsg reports the outcome of a create, update or delete.
type mutationDoneMsg struct {
	label string
	err   error
}

// vouchersGeneratedMsg carries a new batch. warn is set when the router
// created the batch but it could not be kept locally.
type vouchersGeneratedMsg struct {
	sheet *voucher.Sheet
	path  string
	warn  error
	err   error
}

type exportDoneMsg struct {
	path string
	err  error
}

// Settings update messages.

type settingSavedMsg struct {
	key string
	err error
}

// Notification message.

type clearNotificationMsg struct {
	version int
}
