package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mikrodesk/internal/form"
)

// connectFlags maps connect form fields to their command line flags.
var connectFlags = map[string]string{
	form.FieldName:           "name",
	form.FieldHost:           "host",
	form.FieldUser:           "user",
	form.FieldPassword:       "password",
	form.FieldHotspotName:    "hotspot",
	form.FieldDNSName:        "dns",
	form.FieldCurrency:       "currency",
	form.FieldSessionTimeout: "session-timeout",
}

var connectCmd = &cobra.Command{
	Use:   "connect [router]",
	Short: "Connect to a router",
	Long: `Open a backend connection to a MikroTik router and make it the active session.

Pass the name or id of a saved router to reuse its details, or give every
field as a flag. Flags override the saved values.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeRouterNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()

		f := form.NewConnectForm()
		if len(args) > 0 {
			router, err := appInstance.Client.FindRouter(ctx, args[0])
			if err != nil {
				return err
			}
			f = form.FromRouter(router)
		}

		for field, flag := range connectFlags {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				if err := f.Set(field, v); err != nil {
					return err
				}
			}
		}
		if cmd.Flags().Changed("live-report") {
			f.LiveReport, _ = cmd.Flags().GetBool("live-report")
		}

		if cur := appInstance.Session.Current(); cur != nil {
			fmt.Printf("Replacing connection to %s.\n", cur.RouterName)
		}

		sess, err := appInstance.Session.Connect(ctx, f)
		if err != nil {
			return err
		}

		fmt.Printf("Connected to %s\n\n", sess.RouterName)
		fmt.Printf("  Connection: %s\n", sess.ConnectionID)
		fmt.Printf("  Host:       %s\n", sess.Host)
		fmt.Printf("  Hotspot:    %s\n", sess.HotspotName)
		fmt.Printf("  DNS name:   %s\n", sess.DNSName)
		fmt.Printf("  Currency:   %s\n", sess.Currency)
		return nil
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the active connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		cur := appInstance.Session.Current()
		if cur == nil {
			fmt.Println("Not connected.")
			return nil
		}
		ctx, cancel := commandContext()
		defer cancel()
		if err := appInstance.Session.Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to disconnect: %w", err)
		}
		fmt.Printf("Disconnected from %s\n", cur.RouterName)
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the active connection",
	RunE: func(cmd *cobra.Command, args []string) error {
		cur := appInstance.Session.Current()
		if cur == nil {
			fmt.Println("Status: Disconnected")
			fmt.Println("\nRun 'mikrodesk connect' to connect to a router.")
			return nil
		}

		fmt.Println("Status: Connected")
		fmt.Println()
		fmt.Printf("  Router:     %s\n", cur.RouterName)
		fmt.Printf("  Host:       %s\n", cur.Host)
		fmt.Printf("  Hotspot:    %s\n", cur.HotspotName)
		fmt.Printf("  DNS name:   %s\n", cur.DNSName)
		fmt.Printf("  Currency:   %s\n", cur.Currency)
		fmt.Printf("  Connection: %s\n", cur.ConnectionID)
		if !cur.ConnectedAt.IsZero() {
			fmt.Printf("  Since:      %s (%s)\n", cur.ConnectedAt.Format(time.RFC3339),
				time.Since(cur.ConnectedAt).Round(time.Second))
		}

		if check, _ := cmd.Flags().GetBool("check"); check {
			ctx, cancel := commandContext()
			defer cancel()
			if _, err := appInstance.Client.Status(ctx, cur.ConnectionID); err != nil {
				fmt.Printf("  Backend:    unreachable (%v)\n", err)
			} else {
				fmt.Printf("  Backend:    ok\n")
			}
		}
		return nil
	},
}

func init() {
	for _, field := range form.ConnectFields {
		connectCmd.Flags().String(connectFlags[field], "", form.Label(field))
	}
	connectCmd.Flags().Bool("live-report", true, "collect live revenue reports")

	statusCmd.Flags().Bool("check", false, "check that the backend still answers for this connection")

	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(disconnectCmd)
	rootCmd.AddCommand(statusCmd)
}
