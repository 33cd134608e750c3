package cli

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"mikrodesk/internal/api"
	"mikrodesk/internal/form"
	"mikrodesk/internal/listing"
	pkgerrors "mikrodesk/pkg/errors"
)

var usersCmd = &cobra.Command{
	Use:     "users",
	Aliases: []string{"user"},
	Short:   "Manage hotspot users",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List hotspot users",
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		users, err := appInstance.Client.HotspotUsers(ctx, connID)
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		search, _ := cmd.Flags().GetString("search")
		filter := listing.UserFilter{Search: search}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tPROFILE\tSERVER\tUPTIME\tBYTES IN\tBYTES OUT\tCOMMENT")
		fmt.Fprintln(w, "----\t-------\t------\t------\t--------\t---------\t-------")
		shown := 0
		for _, u := range users {
			if !filter.Match(u) {
				continue
			}
			shown++
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				u.Name, u.Profile, u.Server, u.Uptime, u.BytesIn, u.BytesOut, u.Comment)
		}
		w.Flush()

		fmt.Printf("\nShowing %d of %d users\n", shown, len(users))
		return nil
	},
}

// userFormFlags reads the user form fields that were given on the command line.
func userFormFlags(cmd *cobra.Command, f *form.UserForm) {
	set := func(flag string, dst *string) {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
	set("server", &f.Server)
	set("name", &f.Name)
	set("password", &f.Password)
	set("profile", &f.Profile)
	set("mac", &f.MacAddress)
	set("time-limit", &f.TimeLimit)
	set("data-limit", &f.DataLimit)
	set("comment", &f.Comment)
}

var usersAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a hotspot user",
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		f := form.NewUserForm()
		userFormFlags(cmd, f)
		if err := f.ValidateCreate(); err != nil {
			return err
		}

		ctx, cancel := commandContext()
		defer cancel()
		if err := appInstance.Client.CreateUser(ctx, connID, f.Payload()); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		fmt.Printf("User created: %s (profile %s)\n", f.Name, f.Profile)
		return nil
	},
}

func findUser(users []api.HotspotUser, name string) *api.HotspotUser {
	for i := range users {
		if users[i].Name == name {
			return &users[i]
		}
	}
	return nil
}

var usersEditCmd = &cobra.Command{
	Use:               "edit <name>",
	Short:             "Edit a hotspot user",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeUserNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		users, err := appInstance.Client.HotspotUsers(ctx, connID)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		u := findUser(users, args[0])
		if u == nil {
			return fmt.Errorf("user not found: %s", args[0])
		}

		f := form.UserFormFrom(u)
		userFormFlags(cmd, f)
		if err := f.ValidateEdit(); err != nil {
			return err
		}
		if err := appInstance.Client.UpdateUser(ctx, connID, u.Name, f.Payload()); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}
		fmt.Printf("User updated: %s\n", u.Name)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:               "delete <name>",
	Short:             "Delete a hotspot user",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeUserNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		if !confirm(cmd, fmt.Sprintf("Delete user '%s'?", args[0])) {
			return nil
		}
		ctx, cancel := commandContext()
		defer cancel()
		if err := appInstance.Client.DeleteUser(ctx, connID, args[0]); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		fmt.Printf("User deleted: %s\n", args[0])
		return nil
	},
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List active hotspot sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		active, err := appInstance.Client.ActiveUsers(ctx, connID)
		if err != nil {
			return fmt.Errorf("failed to list active users: %w", err)
		}
		if len(active) == 0 {
			fmt.Println("No active sessions.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "USER\tADDRESS\tMAC\tUPTIME\tTIME LEFT\tIN/OUT\tSERVER")
		fmt.Fprintln(w, "----\t-------\t---\t------\t---------\t------\t------")
		for _, a := range active {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s/%s\t%s\n",
				a.User, a.Address, a.MacAddress, a.Uptime, a.TimeLeft, a.BytesIn, a.BytesOut, a.Server)
		}
		w.Flush()
		fmt.Printf("\nTotal: %d active\n", len(active))
		return nil
	},
}

var hostsCmd = &cobra.Command{
	Use:   "hosts",
	Short: "List hotspot hosts",
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		hosts, err := appInstance.Client.Hosts(ctx, connID)
		if err != nil {
			return fmt.Errorf("failed to list hosts: %w", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "MAC\tADDRESS\tTO ADDRESS\tSERVER\tRX\tTX\tCOMMENT")
		fmt.Fprintln(w, "---\t-------\t----------\t------\t--\t--\t-------")
		for _, h := range hosts {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				h.MacAddress, h.Address, h.ToAddress, h.Server, h.RxRate, h.TxRate, h.Comment)
		}
		w.Flush()
		fmt.Printf("\nTotal: %d hosts\n", len(hosts))
		return nil
	},
}

var profilesCmd = &cobra.Command{
	Use:     "profiles",
	Aliases: []string{"profile"},
	Short:   "Manage hotspot user profiles",
}

var profilesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		profiles, err := appInstance.Client.Profiles(ctx, connID)
		if err != nil {
			return fmt.Errorf("failed to list profiles: %w", err)
		}

		currency := appInstance.Session.Currency()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tRATE LIMIT\tSHARED\tVALIDITY\tPRICE\tSELLING\tPOOL")
		fmt.Fprintln(w, "----\t----------\t------\t--------\t-----\t-------\t----")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%.2f %s\t%.2f %s\t%s\n",
				p.Name, p.RateLimit, p.SharedUsers, p.Validity,
				p.Price.Float(), currency, p.SellingPrice.Float(), currency, p.AddressPool)
		}
		w.Flush()
		fmt.Printf("\nTotal: %d profiles\n", len(profiles))
		return nil
	},
}

// profileFormFlags reads the profile form fields that were given on the
// command line.
func profileFormFlags(cmd *cobra.Command, f *form.ProfileForm) error {
	set := func(flag string, dst *string) {
		if cmd.Flags().Changed(flag) {
			*dst, _ = cmd.Flags().GetString(flag)
		}
	}
	set("name", &f.Name)
	set("pool", &f.AddressPool)
	set("rate-limit", &f.RateLimit)
	set("parent-queue", &f.ParentQueue)
	set("expire-mode", &f.ExpiredMode)
	set("validity", &f.Validity)
	set("price", &f.Price)
	set("selling-price", &f.SellingPrice)
	set("lock-user", &f.LockUser)
	set("lock-server", &f.LockServer)
	if cmd.Flags().Changed("shared-users") {
		raw, _ := cmd.Flags().GetString("shared-users")
		n, err := strconv.Atoi(raw)
		if err != nil {
			return pkgerrors.NewValidationError(map[string]string{"sharedUsers": "Shared users must be a whole number"})
		}
		f.SharedUsers = n
	}
	return nil
}

var profilesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a user profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		f := form.NewProfileForm()
		if err := profileFormFlags(cmd, f); err != nil {
			return err
		}
		if err := f.Validate(); err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()
		if err := appInstance.Client.CreateProfile(ctx, connID, f.Payload()); err != nil {
			return fmt.Errorf("failed to create profile: %w", err)
		}
		fmt.Printf("Profile created: %s\n", f.Name)
		return nil
	},
}

var profilesEditCmd = &cobra.Command{
	Use:               "edit <name>",
	Short:             "Edit a user profile",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProfileNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext()
		defer cancel()

		profiles, err := appInstance.Client.Profiles(ctx, connID)
		if err != nil {
			return fmt.Errorf("failed to load profiles: %w", err)
		}
		var current *api.HotspotProfile
		for i := range profiles {
			if profiles[i].Name == args[0] {
				current = &profiles[i]
				break
			}
		}
		if current == nil {
			return fmt.Errorf("profile not found: %s", args[0])
		}

		f := form.ProfileFormFrom(current)
		if err := profileFormFlags(cmd, f); err != nil {
			return err
		}
		if err := f.Validate(); err != nil {
			return err
		}
		if err := appInstance.Client.UpdateProfile(ctx, connID, current.Name, f.Payload()); err != nil {
			return fmt.Errorf("failed to update profile: %w", err)
		}
		fmt.Printf("Profile updated: %s\n", f.Name)
		return nil
	},
}

var profilesDeleteCmd = &cobra.Command{
	Use:               "delete <name>",
	Short:             "Delete a user profile",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeProfileNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		connID, err := requireSession()
		if err != nil {
			return err
		}
		if !confirm(cmd, fmt.Sprintf("Delete profile '%s'?", args[0])) {
			return nil
		}
		ctx, cancel := commandContext()
		defer cancel()
		if err := appInstance.Client.DeleteProfile(ctx, connID, args[0]); err != nil {
			return fmt.Errorf("failed to delete profile: %w", err)
		}
		fmt.Printf("Profile deleted: %s\n", args[0])
		return nil
	},
}

func init() {
	usersListCmd.Flags().StringP("search", "s", "", "filter by name, profile or comment")

	for _, c := range []*cobra.Command{usersAddCmd, usersEditCmd} {
		c.Flags().String("server", "", "hotspot server (default all)")
		c.Flags().String("password", "", "password")
		c.Flags().StringP("profile", "p", "", "user profile")
		c.Flags().String("mac", "", "MAC address")
		c.Flags().String("time-limit", "", "uptime limit, e.g. 1h")
		c.Flags().String("data-limit", "", "data limit, e.g. 500M")
		c.Flags().String("comment", "", "comment")
		c.RegisterFlagCompletionFunc("profile", completeProfileNames)
	}
	usersAddCmd.Flags().StringP("name", "n", "", "user name")
	usersDeleteCmd.Flags().BoolP("force", "f", false, "skip confirmation")

	for _, c := range []*cobra.Command{profilesAddCmd, profilesEditCmd} {
		c.Flags().StringP("name", "n", "", "profile name")
		c.Flags().String("pool", "", "address pool")
		c.Flags().String("shared-users", "", "concurrent logins per user")
		c.Flags().String("rate-limit", "", "rate limit, e.g. 2M/2M")
		c.Flags().String("parent-queue", "", "parent queue")
		c.Flags().String("expire-mode", "", "none, Remove, Notice, 'Remove & Record' or 'Notice & Record'")
		c.Flags().String("validity", "", "validity period, e.g. 1d")
		c.Flags().String("price", "", "price")
		c.Flags().String("selling-price", "", "selling price")
		c.Flags().String("lock-user", "", "enabled or disabled")
		c.Flags().String("lock-server", "", "enabled or disabled")
	}
	profilesDeleteCmd.Flags().BoolP("force", "f", false, "skip confirmation")

	usersCmd.AddCommand(usersListCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersEditCmd)
	usersCmd.AddCommand(usersDeleteCmd)

	profilesCmd.AddCommand(profilesListCmd)
	profilesCmd.AddCommand(profilesAddCmd)
	profilesCmd.AddCommand(profilesEditCmd)
	profilesCmd.AddCommand(profilesDeleteCmd)

	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(activeCmd)
	rootCmd.AddCommand(hostsCmd)
}
