package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"mikrodesk/internal/api"
	"mikrodesk/internal/app"
	"mikrodesk/internal/form"
	"mikrodesk/internal/query"
	"mikrodesk/internal/report"
	"mikrodesk/internal/session"
	"mikrodesk/internal/storage"
	"mikrodesk/internal/voucher"
	pkgerrors "mikrodesk/pkg/errors"
)

const requestTimeout = 30 * time.Second

// loadSettings fetches all application settings.
func loadSettings(store storage.Storage) tea.Cmd {
	return func() tea.Msg {
		settings, err := store.GetAllSettings(context.Background())
		return settingsLoadedMsg{settings: settings, err: err}
	}
}

// saveSetting saves a single setting.
func saveSetting(store storage.Storage, key, value string) tea.Cmd {
	return func() tea.Msg {
		err := store.SetSetting(context.Background(), key, value)
		return settingSavedMsg{key: key, err: err}
	}
}

// loadRouters fetches the backend's router inventory.
func loadRouters(client *api.Client) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		routers, err := client.ListRouters(ctx)
		return routersLoadedMsg{routers: routers, err: err}
	}
}

// waitForUpdate blocks on the cache subscription and turns the next entry
// change into a message. It is re-issued after every update.
func waitForUpdate(updates <-chan query.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return nil
		}
		return cacheUpdateMsg{update: u}
	}
}

// fetchResources loads resources once. Results arrive as cache updates.
func fetchResources(cache *query.Cache, resources ...string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		for _, r := range resources {
			_, _ = cache.Fetch(ctx, r)
		}
		return nil
	}
}

// refreshAll refetches every query in parallel and reports once.
func refreshAll(cache *query.Cache) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return refreshDoneMsg{err: cache.RefreshAll(ctx)}
	}
}

// connectRouter opens a backend connection and persists it as the session.
func connectRouter(sess *session.Session, f *form.ConnectForm) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		cur, err := sess.Connect(ctx, f)
		return connectResultMsg{session: cur, err: err}
	}
}

func disconnect(sess *session.Session) tea.Cmd {
	return func() tea.Msg {
		return disconnectResultMsg{err: sess.Disconnect(context.Background())}
	}
}

func deleteRouter(sess *session.Session, r api.Router) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return routerDeletedMsg{name: r.Name, err: sess.DeleteRouter(ctx, &r)}
	}
}

// mutate runs a write against the backend and, on success, invalidates the
// resources it affects so every view picks up the change.
func mutate(cache *query.Cache, label string, fn func(ctx context.Context) error, invalidate ...string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			return mutationDoneMsg{label: label, err: err}
		}
		for _, r := range invalidate {
			_ = cache.Invalidate(ctx, r)
		}
		return mutationDoneMsg{label: label}
	}
}

// scoped binds fn to the active connection id at the time it runs.
func scoped(sess *session.Session, fn func(ctx context.Context, connID string) error) func(context.Context) error {
	return func(ctx context.Context) error {
		id, err := sess.Require()
		if err != nil {
			return err
		}
		return fn(ctx, id)
	}
}

// generateVouchers creates a batch, stores it for reprinting and writes the
// print sheet next to the other exports. Once the router has created the
// batch, local failures only come back as a warning.
func generateVouchers(m *Model, req api.VoucherRequest) tea.Cmd {
	client, sess, store, cache, dir := m.client, m.session, m.store, m.cache, m.exportDir
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		cur := sess.Current()
		if cur == nil {
			return vouchersGeneratedMsg{err: pkgerrors.ErrNoConnection}
		}
		connID := cur.ConnectionID
		batch, err := client.GenerateVouchers(ctx, connID, req)
		if err != nil {
			return vouchersGeneratedMsg{err: err}
		}
		_ = cache.Invalidate(ctx, app.ResUsers)
		_ = cache.Invalidate(ctx, app.ResUserCount)

		dnsName := cur.DNSName
		if e, ok := cache.Get(app.ResDNSName); ok {
			if name, ok := e.Data.(string); ok && name != "" {
				dnsName = name
			}
		}
		sheet := voucher.FromBatch(batch, cur.Currency, dnsName)

		path, err := keepSheet(ctx, store, dir, sheet, connID, cur.RouterName, req.Profile)
		return vouchersGeneratedMsg{sheet: sheet, path: path, warn: err}
	}
}

// keepSheet records the batch in the history and writes its HTML sheet.
func keepSheet(ctx context.Context, store storage.Storage, dir string, sheet *voucher.Sheet, connID, routerName, profile string) (string, error) {
	rec, err := sheet.Record(connID, routerName, profile)
	if err == nil {
		err = store.SaveVoucherBatch(ctx, rec)
	}
	if err != nil {
		return "", fmt.Errorf("failed to save batch: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("vouchers-%d.html", rec.ID))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := sheet.RenderHTML(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// exportReport writes the filtered transactions to dir.
func exportReport(dir, kind string, txs []api.Transaction) tea.Cmd {
	return func() tea.Msg {
		path, err := report.Export(dir, kind, txs, time.Now())
		return exportDoneMsg{path: path, err: err}
	}
}

// clearNotification returns a command that fires after a delay.
func clearNotification(d time.Duration, version int) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return clearNotificationMsg{version: version}
	})
}
