package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mikrodesk/internal/config"
	"mikrodesk/internal/paths"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Print the configuration after defaults, the config file and environment overrides are applied.",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(appInstance.Config)
		if err != nil {
			return err
		}
		fmt.Printf("# %s\n", appInstance.Config.ConfigPath)
		fmt.Print(string(data))
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := appInstance.Config.ConfigPath
		if _, err := os.Stat(path); err == nil {
			if !confirm(cmd, fmt.Sprintf("Overwrite %s?", path)) {
				return nil
			}
		}

		cfg := config.Default()
		if url, _ := cmd.Flags().GetString("api-url"); url != "" {
			cfg.API.BaseURL = url
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.Save(path); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		fmt.Printf("Config written to %s\n", path)
		return nil
	},
}

var configPathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Show where mikrodesk keeps its files",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbPath, err := paths.DBFile()
		if err != nil {
			return err
		}
		logPath, err := paths.LogFile()
		if err != nil {
			return err
		}
		fmt.Printf("Config:   %s\n", appInstance.Config.ConfigPath)
		fmt.Printf("Database: %s\n", dbPath)
		fmt.Printf("TUI log:  %s\n", logPath)
		return nil
	},
}

func init() {
	configInitCmd.Flags().String("api-url", "", "backend API base URL")
	configInitCmd.Flags().BoolP("force", "f", false, "overwrite without asking")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathsCmd)
	rootCmd.AddCommand(configCmd)
}
