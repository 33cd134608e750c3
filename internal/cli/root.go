package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mikrodesk/internal/app"
	pkgerrors "mikrodesk/pkg/errors"
)

var (
	appInstance *app.App
	version     = "dev"
)

// Timeouts for backend calls made by one command or one completion.
const (
	requestTimeout    = 30 * time.Second
	completionTimeout = 5 * time.Second
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mikrodesk",
	Short: "MikroTik hotspot admin console",
	Long: `mikrodesk - MikroTik hotspot admin console

  Manage hotspot users, profiles, vouchers and revenue reports of MikroTik
  routers through the mikrotik backend API.

  Quick start:
    mikrodesk connect --name cafe --host 192.168.88.1 --user admin \
      --password secret --hotspot hotspot1 --dns wifi.cafe --currency LRD \
      --session-timeout 1h
    mikrodesk dashboard
    mikrodesk vouchers generate --profile 1hour --count 20
    mikrodesk tui

  The backend URL is read from the config file or MIKRODESK_API_URL.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		appInstance, err = app.New(appOptions(cmd))
		if err != nil {
			return fmt.Errorf("failed to initialize application: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if appInstance != nil {
			return appInstance.Close()
		}
		return nil
	},
}

// appOptions turns the global flags into application options.
func appOptions(cmd *cobra.Command) app.Options {
	flags := cmd.Root().PersistentFlags()
	configPath, _ := flags.GetString("config")
	dbPath, _ := flags.GetString("db")
	logLevel, _ := flags.GetString("log-level")
	if verbose, _ := flags.GetBool("verbose"); verbose {
		logLevel = "debug"
	}
	return app.Options{
		ConfigPath: configPath,
		DBPath:     dbPath,
		LogLevel:   logLevel,
		LogToFile:  cmd.Name() == "tui",
	}
}

// Execute executes the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", pkgerrors.UserMessage(err))
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("db", "", "database path")

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("mikrodesk %s\n", version)
	},
}

// commandContext returns a context bounded by requestTimeout.
func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// requireSession returns the active connection id or explains how to get one.
func requireSession() (string, error) {
	id, err := appInstance.Session.Require()
	if err != nil {
		return "", fmt.Errorf("%v (run 'mikrodesk connect' first)", err)
	}
	return id, nil
}

// confirm asks a yes/no question on stdin unless --force was given.
func confirm(cmd *cobra.Command, question string) bool {
	if force, _ := cmd.Flags().GetBool("force"); force {
		return true
	}
	fmt.Printf("%s [y/N]: ", question)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	if answer != "y" && answer != "yes" {
		fmt.Println("Cancelled.")
		return false
	}
	return true
}
