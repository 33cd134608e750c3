package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mikrodesk/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive terminal UI",
	Long: `Launch the full-screen console with dashboard, hotspot, logs, report and
router tabs. Live data is refreshed in the background while it runs.

Logs go to the mikrodesk cache directory while the UI owns the terminal.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
		defer stop()

		exportDir, _ := cmd.Flags().GetString("export-dir")
		if exportDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to resolve export directory: %w", err)
			}
			exportDir = wd
		}

		log := appInstance.Log.WithField("component", "cli")
		poller, err := appInstance.NewPoller(func(resource string, err error) {
			log.WithError(err).WithField("resource", resource).Debug("poll failed")
		})
		if err != nil {
			return fmt.Errorf("failed to create poller: %w", err)
		}
		if err := poller.Start(ctx); err != nil {
			return fmt.Errorf("failed to start poller: %w", err)
		}
		defer poller.Stop()

		p, model := tui.NewProgram(tui.FromApp(appInstance, exportDir))
		defer model.Close()
		if _, err := p.Run(); err != nil {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	},
}

func init() {
	tuiCmd.Flags().String("export-dir", "", "where report exports and voucher sheets are written (default: current directory)")
	rootCmd.AddCommand(tuiCmd)
}
