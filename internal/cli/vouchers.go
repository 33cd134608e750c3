package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mikrodesk/internal/app"
	"mikrodesk/internal/form"
	"mikrodesk/internal/voucher"
)

var vouchersCmd = &cobra.Command{
	Use:     "vouchers",
	Aliases: []string{"voucher"},
	Short:   "Generate and print hotspot vouchers",
}

var vouchersGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a batch of vouchers",
	Long: `Create a batch of hotspot users on the router and print them as voucher cards.

The batch is kept locally so it can be printed again with 'vouchers print'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}

		f := form.NewVoucherForm()
		flags := cmd.Flags()
		if flags.Changed("count") {
			f.Count, _ = flags.GetInt("count")
		}
		if flags.Changed("name-length") {
			f.NameLength, _ = flags.GetInt("name-length")
		}
		if flags.Changed("password-length") {
			f.PasswordLength, _ = flags.GetInt("password-length")
		}
		for flag, dst := range map[string]*string{
			"profile":    &f.Profile,
			"server":     &f.Server,
			"time-limit": &f.TimeLimit,
			"data-limit": &f.DataLimit,
			"characters": &f.Characters,
			"user-mode":  &f.UserMode,
			"prefix":     &f.PrefixUsername,
			"comment":    &f.Comment,
		} {
			if flags.Changed(flag) {
				*dst, _ = flags.GetString(flag)
			}
		}
		if err := f.Validate(); err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()

		batch, err := appInstance.Client.GenerateVouchers(ctx, connID, f.Request())
		if err != nil {
			return fmt.Errorf("failed to generate vouchers: %w", err)
		}

		cur := appInstance.Session.Current()
		dnsName := cur.DNSName
		if e, err := appInstance.Cache.Fetch(ctx, app.ResDNSName); err == nil {
			if name, ok := e.Data.(string); ok && name != "" {
				dnsName = name
			}
		}
		sheet := voucher.FromBatch(batch, cur.Currency, dnsName)

		rec, err := sheet.Record(connID, cur.RouterName, f.Profile)
		if err == nil {
			err = appInstance.Storage.SaveVoucherBatch(ctx, rec)
		}
		if err != nil {
			appInstance.Log.WithError(err).Warn("failed to keep voucher batch")
		} else {
			fmt.Printf("Generated %d vouchers (batch %d)\n\n", len(batch.Vouchers), rec.ID)
		}

		return outputSheet(cmd, sheet)
	},
}

var vouchersHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List generated voucher batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		batches, err := appInstance.Storage.ListVoucherBatches(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("failed to list batches: %w", err)
		}
		if len(batches) == 0 {
			fmt.Println("No voucher batches yet.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCREATED\tROUTER\tPROFILE\tCOUNT\tPRICE")
		fmt.Fprintln(w, "--\t-------\t------\t-------\t-----\t-----")
		for _, b := range batches {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\n",
				b.ID, b.CreatedAt.Local().Format("2006-01-02 15:04"), b.RouterName, b.Profile, b.Count, b.Price)
		}
		w.Flush()
		return nil
	},
}

var vouchersPrintCmd = &cobra.Command{
	Use:   "print <batch-id>",
	Short: "Print a stored voucher batch again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid batch id: %s", args[0])
		}
		rec, err := appInstance.Storage.GetVoucherBatch(context.Background(), id)
		if err != nil {
			return fmt.Errorf("failed to load batch %d: %w", id, err)
		}
		sheet, err := voucher.FromRecord(rec, appInstance.Session.Currency())
		if err != nil {
			return err
		}
		return outputSheet(cmd, sheet)
	},
}

// outputSheet writes the sheet as HTML when --out is set, serves it when
// --serve is set and otherwise prints it as a table.
func outputSheet(cmd *cobra.Command, sheet *voucher.Sheet) error {
	out, _ := cmd.Flags().GetString("out")
	addr, _ := cmd.Flags().GetString("serve")

	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", out, err)
		}
		if err := sheet.RenderHTML(f); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Printf("Print sheet written to %s\n", out)
	}

	if addr != "" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return voucher.Serve(ctx, addr, sheet, appInstance.Log, func(url string) {
			fmt.Printf("Open %s to print the vouchers. Press Ctrl+C to stop.\n", url)
		})
	}

	if out == "" {
		return sheet.RenderText(os.Stdout)
	}
	return nil
}

func init() {
	d := form.NewVoucherForm()
	vouchersGenerateCmd.Flags().IntP("count", "n", d.Count, "number of vouchers (1-100)")
	vouchersGenerateCmd.Flags().StringP("profile", "p", "", "user profile")
	vouchersGenerateCmd.Flags().String("server", d.Server, "hotspot server")
	vouchersGenerateCmd.Flags().String("time-limit", "", "uptime limit, e.g. 1h")
	vouchersGenerateCmd.Flags().String("data-limit", "", "data limit, e.g. 500M")
	vouchersGenerateCmd.Flags().Int("name-length", d.NameLength, "username length (4-12)")
	vouchersGenerateCmd.Flags().Int("password-length", d.PasswordLength, "password length (4-12)")
	vouchersGenerateCmd.Flags().String("characters", d.Characters, "uppercase_numbers, lowercase_numbers, numbers or all")
	vouchersGenerateCmd.Flags().String("user-mode", d.UserMode, "same or different username and password")
	vouchersGenerateCmd.Flags().String("prefix", "", "username prefix")
	vouchersGenerateCmd.Flags().String("comment", "", "comment stored on each user")
	vouchersGenerateCmd.RegisterFlagCompletionFunc("profile", completeProfileNames)

	for _, c := range []*cobra.Command{vouchersGenerateCmd, vouchersPrintCmd} {
		c.Flags().StringP("out", "o", "", "write the HTML print sheet to this file")
		c.Flags().String("serve", "", "serve the print sheet on this address, e.g. 127.0.0.1:8080")
	}

	vouchersHistoryCmd.Flags().Int("limit", 20, "number of batches to show")

	vouchersCmd.AddCommand(vouchersGenerateCmd)
	vouchersCmd.AddCommand(vouchersHistoryCmd)
	vouchersCmd.AddCommand(vouchersPrintCmd)
	rootCmd.AddCommand(vouchersCmd)
}
