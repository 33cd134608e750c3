package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"mikrodesk/internal/api"
	"mikrodesk/internal/listing"
	"mikrodesk/internal/report"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show the voucher revenue report",
	Long: `Show revenue totals and voucher transactions.

Use --export csv or --export xlsx to write the filtered transactions to a file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		rep, err := appInstance.Client.Transactions(ctx, connID)
		if err != nil {
			return fmt.Errorf("failed to load report: %w", err)
		}

		search, _ := cmd.Flags().GetString("search")
		dateText, _ := cmd.Flags().GetString("date")
		filter := listing.TransactionFilter{Search: search}
		if dateText != "" {
			d, ok := listing.ParseDate(dateText)
			if !ok {
				return fmt.Errorf("invalid date %q (use YYYY-MM-DD)", dateText)
			}
			filter.Date = d
		}

		pager := listing.NewPager[api.Transaction](appInstance.Config.PageSize)
		pager.SetItems(rep.Transactions)
		pager.SetFilter(search+"\x00"+dateText, filter.Match)

		if kind, _ := cmd.Flags().GetString("export"); kind != "" {
			dir, _ := cmd.Flags().GetString("dir")
			path, err := report.Export(dir, kind, pager.Filtered(), time.Now())
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d transactions to %s\n", pager.Total(), path)
			return nil
		}

		cur := rep.Currency
		if cur == "" {
			cur = appInstance.Session.Currency()
		}
		fmt.Println("Revenue")
		fmt.Println("═══════")
		fmt.Printf("  Total:          %s\n", report.FormatCurrency(rep.TotalRevenue, cur))
		fmt.Printf("  Today:          %s\n", report.FormatCurrency(rep.TodayRevenue, cur))
		fmt.Printf("  This month:     %s\n", report.FormatCurrency(rep.ThisMonthRevenue, cur))
		fmt.Printf("  Average:        %s\n", report.FormatCurrency(rep.AverageRevenue, cur))
		fmt.Printf("  Vouchers used:  %d\n", rep.Total)
		fmt.Printf("  Logins/voucher: %.1f\n", rep.AverageLoginsPerVoucher)

		view, _ := cmd.Flags().GetString("chart")
		printRevenueChart(rep, view, cur)

		if pager.Total() == 0 {
			fmt.Println("\nNo matching transactions.")
			return nil
		}

		page, _ := cmd.Flags().GetInt("page")
		pager.Goto(page)

		fmt.Println()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "VOUCHER\tPROFILE\tFIRST LOGIN\tIP\tPRICE\tUSAGE\tLOGINS")
		fmt.Fprintln(w, "-------\t-------\t-----------\t--\t-----\t-----\t------")
		for _, t := range pager.Page() {
			fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%s\t%s\t%d\n",
				t.VoucherName, t.Profile, t.FirstLoginDate, t.FirstLoginTime, t.IPAddress,
				t.Price, t.UsageDurationFormatted, t.LoginCount)
		}
		w.Flush()

		from, to := pager.Range()
		fmt.Printf("\nShowing %d to %d of %d (page %d/%d)\n", from, to, pager.Total(), pager.Current(), pager.TotalPages())
		return nil
	},
}

func printRevenueChart(rep *api.Report, view, currency string) {
	type point struct {
		label string
		value float64
	}
	var points []point
	if view == report.ViewMonthly {
		for _, m := range rep.RevenueStats.Monthly {
			points = append(points, point{report.FormatChartDate(m.Month, view), m.Revenue})
		}
	} else {
		for _, d := range rep.RevenueStats.Daily {
			points = append(points, point{report.FormatChartDate(d.Date, report.ViewDaily), d.Revenue})
		}
	}
	if len(points) == 0 {
		return
	}

	fmt.Printf("\nRevenue (%s)\n", view)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, p := range points {
		fmt.Fprintf(w, "  %s\t%s\n", p.label, report.FormatCurrency(p.value, currency))
	}
	w.Flush()
}

func init() {
	reportCmd.Flags().StringP("search", "s", "", "filter by voucher, profile or batch")
	reportCmd.Flags().StringP("date", "d", "", "only transactions first used on this day (YYYY-MM-DD)")
	reportCmd.Flags().IntP("page", "p", 1, "page number")
	reportCmd.Flags().String("chart", report.ViewDaily, "revenue chart view (daily or monthly)")
	reportCmd.Flags().StringP("export", "e", "", "export the filtered transactions (csv or xlsx)")
	reportCmd.Flags().String("dir", ".", "directory for exported files")
	reportCmd.RegisterFlagCompletionFunc("export", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{report.FormatCSV, report.FormatXLSX}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(reportCmd)
}
