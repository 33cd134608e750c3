package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mikrodesk/internal/api"
	"mikrodesk/internal/form"
	"mikrodesk/internal/latency"
)

var routersCmd = &cobra.Command{
	Use:     "routers",
	Aliases: []string{"router"},
	Short:   "Manage saved routers",
	Long:    "List, edit and delete the routers saved by the backend",
}

var routersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved routers",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		routers, err := appInstance.Client.ListRouters(ctx)
		if err != nil {
			return fmt.Errorf("failed to list routers: %w", err)
		}
		if len(routers) == 0 {
			fmt.Println("No routers saved. Use 'mikrodesk connect' to add one.")
			return nil
		}

		active := ""
		if cur := appInstance.Session.Current(); cur != nil {
			active = cur.RouterName
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tHOST\tHOTSPOT\tDNS\tCURRENCY\tLAST CONNECTED\t")
		fmt.Fprintln(w, "--\t----\t----\t-------\t---\t--------\t--------------\t")
		for _, r := range routers {
			marker := ""
			if r.Name == active {
				marker = "*"
			}
			last := r.LastConnected
			if last == "" {
				last = "never"
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.ID, r.Name, r.Host, r.HotspotName, r.DNSName, r.Currency, last, marker)
		}
		w.Flush()

		fmt.Printf("\nTotal: %d routers\n", len(routers))
		return nil
	},
}

var routersEditCmd = &cobra.Command{
	Use:               "edit <router>",
	Short:             "Edit a saved router",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRouterNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		router, err := appInstance.Client.FindRouter(ctx, args[0])
		if err != nil {
			return err
		}

		// The connect form carries the same fields and rules.
		f := form.FromRouter(router)
		changed := false
		for field, flag := range connectFlags {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				if err := f.Set(field, v); err != nil {
					return err
				}
				changed = true
			}
		}
		if cmd.Flags().Changed("live-report") {
			f.LiveReport, _ = cmd.Flags().GetBool("live-report")
			changed = true
		}
		if !changed {
			return fmt.Errorf("nothing to change; pass at least one field flag")
		}

		params, err := f.Submit()
		if err != nil {
			return err
		}
		update := api.RouterUpdate{
			Name:           params.Name,
			Host:           params.Host,
			Username:       params.User,
			Password:       params.Password,
			HotspotName:    params.HotspotName,
			DNSName:        params.DNSName,
			Currency:       params.Currency,
			SessionTimeout: params.SessionTimeout,
			LiveReport:     params.LiveReport,
		}
		if err := appInstance.Client.UpdateRouter(ctx, router.ID, update); err != nil {
			return fmt.Errorf("failed to update router: %w", err)
		}

		fmt.Printf("Router updated: %s\n", update.Name)
		return nil
	},
}

var routersDeleteCmd = &cobra.Command{
	Use:               "delete <router>",
	Short:             "Delete a saved router",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeRouterNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		router, err := appInstance.Client.FindRouter(ctx, args[0])
		if err != nil {
			return err
		}
		if !confirm(cmd, fmt.Sprintf("Delete router '%s' (ID: %d)?", router.Name, router.ID)) {
			return nil
		}

		wasConnected := appInstance.Session.Connected()
		if err := appInstance.Session.DeleteRouter(ctx, router); err != nil {
			return fmt.Errorf("failed to delete router: %w", err)
		}

		fmt.Printf("Router deleted: %s\n", router.Name)
		if wasConnected && !appInstance.Session.Connected() {
			fmt.Println("The active connection was to this router and has been cleared.")
		}
		return nil
	},
}

var routersPingCmd = &cobra.Command{
	Use:   "ping [router...]",
	Short: "Check which saved routers are reachable",
	Long: `Probe saved routers directly from this machine.

The tcp strategy opens a connection to the RouterOS API port (8728 unless the
host names a port). The http strategy requests the router's web interface.
With no arguments every saved router is probed.`,
	ValidArgsFunction: completeRouterNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		strategyName, _ := cmd.Flags().GetString("strategy")
		workers, _ := cmd.Flags().GetInt64("workers")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		strategy, err := latency.NewStrategy(strategyName)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		var routers []*api.Router
		if len(args) == 0 {
			all, err := appInstance.Client.ListRouters(ctx)
			if err != nil {
				return fmt.Errorf("failed to list routers: %w", err)
			}
			for i := range all {
				routers = append(routers, &all[i])
			}
		} else {
			for _, ref := range args {
				r, err := appInstance.Client.FindRouter(ctx, ref)
				if err != nil {
					return err
				}
				routers = append(routers, r)
			}
		}
		if len(routers) == 0 {
			fmt.Println("No routers saved.")
			return nil
		}

		tester := latency.NewTester(latency.TesterConfig{
			Workers:  workers,
			Timeout:  timeout,
			Strategy: strategy,
		}, appInstance.Log)

		fmt.Printf("Probing %d routers (%s)...\n", len(routers), strategy.Name())
		batch := tester.ProbeAll(ctx, routers, func(res *latency.Result, current, total int) {
			state := "ok"
			if !res.OK() {
				state = "failed"
			}
			fmt.Printf("  [%d/%d] %s: %s\n", current, total, res.Router.Name, state)
		})

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tHOST\tLATENCY\tSTATUS")
		fmt.Fprintln(w, "----\t----\t-------\t------")
		for _, res := range batch.Results {
			if res.OK() {
				fmt.Fprintf(w, "%s\t%s\t%s\treachable\n", res.Router.Name, res.Router.Host, res.Latency.Round(time.Millisecond))
			} else {
				fmt.Fprintf(w, "%s\t%s\t-\t%v\n", res.Router.Name, res.Router.Host, res.Err)
			}
		}
		w.Flush()

		fmt.Printf("\n%d reachable, %d unreachable in %s\n", batch.Succeeded, batch.Failed, batch.Duration.Round(time.Millisecond))
		return nil
	},
}

func init() {
	for _, field := range form.ConnectFields {
		routersEditCmd.Flags().String(connectFlags[field], "", form.Label(field))
	}
	routersEditCmd.Flags().Bool("live-report", true, "collect live revenue reports")

	routersDeleteCmd.Flags().BoolP("force", "f", false, "skip confirmation")

	routersPingCmd.Flags().StringP("strategy", "s", "tcp", "probe strategy (tcp or http)")
	routersPingCmd.Flags().Int64P("workers", "w", 10, "concurrent probes")
	routersPingCmd.Flags().Duration("timeout", 5*time.Second, "timeout per router")
	routersPingCmd.RegisterFlagCompletionFunc("strategy", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"tcp", "http"}, cobra.ShellCompDirectiveNoFileComp
	})

	routersCmd.AddCommand(routersListCmd)
	routersCmd.AddCommand(routersEditCmd)
	routersCmd.AddCommand(routersDeleteCmd)
	routersCmd.AddCommand(routersPingCmd)
	rootCmd.AddCommand(routersCmd)
}
