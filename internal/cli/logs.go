package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mikrodesk/internal/api"
	"mikrodesk/internal/listing"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show hotspot authentication logs",
	Long: `Show the hotspot log one page at a time.

Filter by user, IP or message with --search and by outcome with --status.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}

		search, _ := cmd.Flags().GetString("search")
		status, _ := cmd.Flags().GetString("status")
		page, _ := cmd.Flags().GetInt("page")
		status = strings.ToLower(strings.TrimSpace(status))
		if status == "" {
			status = listing.StatusAll
		}
		valid := false
		for _, s := range listing.LogStatuses {
			if s == status {
				valid = true
			}
		}
		if !valid {
			return fmt.Errorf("invalid status %q (use %s)", status, strings.Join(listing.LogStatuses, ", "))
		}

		ctx, cancel := commandContext()
		defer cancel()
		logs, err := appInstance.Client.HotspotLogs(ctx, connID)
		if err != nil {
			return fmt.Errorf("failed to load logs: %w", err)
		}

		pager := listing.NewPager[api.HotspotLog](appInstance.Config.PageSize)
		pager.SetItems(logs.Logs)
		filter := listing.LogFilter{Search: search, Status: status}
		pager.SetFilter(search+"\x00"+status, filter.Match)
		pager.Goto(page)

		if pager.Total() == 0 {
			fmt.Println("No matching log entries.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tUSER\tIP\tSTATUS\tMESSAGE")
		fmt.Fprintln(w, "----\t----\t--\t------\t-------")
		for _, l := range pager.Page() {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", l.Time, l.User, l.IP, l.Status, l.Message)
		}
		w.Flush()

		from, to := pager.Range()
		fmt.Printf("\nShowing %d to %d of %d (page %d/%d)\n", from, to, pager.Total(), pager.Current(), pager.TotalPages())
		return nil
	},
}

func init() {
	logsCmd.Flags().StringP("search", "s", "", "filter by user, IP or message")
	logsCmd.Flags().String("status", listing.StatusAll, "filter by status ("+strings.Join(listing.LogStatuses, ", ")+")")
	logsCmd.Flags().IntP("page", "p", 1, "page number")
	logsCmd.RegisterFlagCompletionFunc("status", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return listing.LogStatuses, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(logsCmd)
}
