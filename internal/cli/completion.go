package cli

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"mikrodesk/internal/app"
)

// ensureApp lazily initializes appInstance for shell completion.
// Cobra may invoke ValidArgsFunction without running PersistentPreRunE.
func ensureApp(cmd *cobra.Command) error {
	if appInstance != nil {
		return nil
	}
	var err error
	appInstance, err = app.New(appOptions(cmd))
	return err
}

func matchPrefix(names []string, toComplete string) []string {
	var completions []string
	for _, name := range names {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
			completions = append(completions, name)
		}
	}
	return completions
}

// completeRouterNames provides shell completion for saved router names.
func completeRouterNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := ensureApp(cmd); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()
	routers, err := appInstance.Client.ListRouters(ctx)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	names := make([]string, 0, len(routers))
	for _, r := range routers {
		names = append(names, r.Name)
	}
	return matchPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeProfileNames provides completion for hotspot profiles of the
// active connection, both as an argument and for --profile flags.
func completeProfileNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if err := ensureApp(cmd); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	connID, err := appInstance.Session.Require()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()
	profiles, err := appInstance.Client.Profiles(ctx, connID)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	names := make([]string, 0, len(profiles))
	for _, p := range profiles {
		names = append(names, p.Name)
	}
	return matchPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}

// completeUserNames provides completion for hotspot user names.
func completeUserNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	if err := ensureApp(cmd); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	connID, err := appInstance.Session.Require()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	ctx, cancel := context.WithTimeout(context.Background(), completionTimeout)
	defer cancel()
	users, err := appInstance.Client.HotspotUsers(ctx, connID)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.Name)
	}
	return matchPrefix(names, toComplete), cobra.ShellCompDirectiveNoFileComp
}
