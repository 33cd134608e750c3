package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mikrodesk/internal/api"
	"mikrodesk/internal/app"
	"mikrodesk/internal/report"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show a router overview",
	Long: `Show router health, hotspot activity, traffic and revenue at a glance.

With --watch the overview is redrawn whenever the background poller brings
new data, until Ctrl+C.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireSession(); err != nil {
			return err
		}

		ctx, cancel := commandContext()
		fetchDashboard(ctx)
		cancel()
		printDashboard(os.Stdout)

		if watch, _ := cmd.Flags().GetBool("watch"); !watch {
			return nil
		}
		return watchDashboard()
	},
}

// fetchDashboard loads every dashboard resource in parallel. Failures stay
// in the cache entries and are shown in place.
func fetchDashboard(ctx context.Context) {
	g, gctx := errgroup.WithContext(ctx)
	for _, res := range app.DashboardResources {
		res := res
		g.Go(func() error {
			_, _ = appInstance.Cache.Fetch(gctx, res)
			return nil
		})
	}
	_ = g.Wait()
}

func watchDashboard() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	updates, unsubscribe := appInstance.Cache.Subscribe(64)
	defer unsubscribe()

	poller, err := appInstance.NewPoller(nil)
	if err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}
	if err := poller.Start(ctx); err != nil {
		return fmt.Errorf("failed to start poller: %w", err)
	}
	defer poller.Stop()

	// Redraw at most once a second however many resources change.
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	dirty := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-updates:
			if !u.Entry.Fetching {
				dirty = true
			}
		case <-ticker.C:
			if dirty {
				dirty = false
				fmt.Print("\033[H\033[2J")
				printDashboard(os.Stdout)
			}
		}
	}
}

func cached[T any](res string) (T, error) {
	var zero T
	e, ok := appInstance.Cache.Get(res)
	if !ok {
		return zero, fmt.Errorf("not loaded")
	}
	if e.Err != nil {
		return zero, e.Err
	}
	v, ok := e.Data.(T)
	if !ok {
		return zero, fmt.Errorf("not loaded")
	}
	return v, nil
}

func printDashboard(out io.Writer) {
	cur := appInstance.Session.Current()
	if cur == nil {
		fmt.Fprintln(out, "Not connected.")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	section := func(title string) {
		fmt.Fprintf(w, "\n%s\t\n", title)
	}
	row := func(label string, value interface{}) {
		fmt.Fprintf(w, "  %s\t%v\n", label, value)
	}
	fail := func(err error) {
		fmt.Fprintf(w, "  unavailable\t%v\n", err)
	}

	fmt.Fprintf(w, "%s (%s)\t%s\n", cur.RouterName, cur.Host, time.Now().Format("15:04:05"))

	section("Router")
	if info, err := cached[*api.SystemInfo](app.ResSystemInfo); err != nil {
		fail(err)
	} else {
		row("Identity", info.Identity)
		row("Model", info.Model)
		row("RouterOS", info.RouterOS.Version)
		row("Uptime", info.Uptime)
	}

	section("Resources")
	status, err := cached[*api.RouterStatus](app.ResStatus)
	if err != nil {
		fail(err)
	} else {
		r := status.Resources
		row("CPU", r.CPU.LoadPercentage+"%")
		row("Memory", r.Memory.UsedPercentage+"% of "+r.Memory.Total)
		row("Disk", r.Disk.UsedPercentage+"% of "+r.Disk.Total)
	}

	section("Hotspot")
	if status != nil {
		row("Active users", status.ActiveUsers.Total)
	}
	if n, err := cached[int](app.ResUserCount); err == nil {
		row("Total users", n)
	}
	if rep, err := cached[*api.Report](app.ResTransactions); err == nil {
		currency := rep.Currency
		if currency == "" {
			currency = cur.Currency
		}
		row("Revenue today", report.FormatCurrency(rep.TodayRevenue, currency))
		row("Revenue this month", report.FormatCurrency(rep.ThisMonthRevenue, currency))
	}

	section("Traffic")
	if samples, err := cached[[]api.InterfaceTraffic](app.ResTraffic); err != nil {
		fail(err)
	} else {
		for _, s := range samples {
			row(s.Interface, fmt.Sprintf("tx %s  rx %s", s.TX.Formatted, s.RX.Formatted))
		}
	}

	section("Recent hotspot activity")
	if logs, err := cached[*api.HotspotLogs](app.ResHotspotLogs); err != nil {
		fail(err)
	} else {
		entries := logs.Logs
		if len(entries) > 5 {
			entries = entries[:5]
		}
		for _, l := range entries {
			row(l.Time, fmt.Sprintf("%s %s %s", l.User, l.Status, l.Message))
		}
	}

	w.Flush()
}

func init() {
	dashboardCmd.Flags().BoolP("watch", "w", false, "keep refreshing until interrupted")
	rootCmd.AddCommand(dashboardCmd)
}
