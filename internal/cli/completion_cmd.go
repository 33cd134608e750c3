package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// completionShells maps each supported shell to its script generator.
var completionShells = map[string]func(cmd *cobra.Command) error{
	"bash": func(cmd *cobra.Command) error {
		return cmd.Root().GenBashCompletionV2(cmd.OutOrStdout(), true)
	},
	"zsh": func(cmd *cobra.Command) error {
		return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
	},
	"fish": func(cmd *cobra.Command) error {
		return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
	},
	"powershell": func(cmd *cobra.Command) error {
		return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
	},
}

func completionHelp(name string) string {
	return fmt.Sprintf(`Print a shell completion script for %[1]s.

Besides commands and flags, the scripts complete saved router names, hotspot
profiles and hotspot users by asking the backend, so completing those needs a
reachable backend and, for profiles and users, an active connection.

Load for the current shell:
  bash:        source <(%[1]s completion bash)
  zsh:         source <(%[1]s completion zsh)
  fish:        %[1]s completion fish | source
  powershell:  %[1]s completion powershell | Out-String | Invoke-Expression

To keep them, write the script to your shell's completion directory, e.g.
  %[1]s completion zsh > "${fpath[1]}/_%[1]s"
`, name)
}

var completionCmd = &cobra.Command{
	Use:                   "completion [bash|zsh|fish|powershell]",
	Short:                 "Print a shell completion script",
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	// Completion scripts need no config or database.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		return completionShells[args[0]](cmd)
	},
}

func init() {
	completionCmd.Long = completionHelp(rootCmd.Name())
	rootCmd.AddCommand(completionCmd)
}
