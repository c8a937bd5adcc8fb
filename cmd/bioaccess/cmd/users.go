package cmd

import (
	"fmt"
	"os"

	"github.com/awnumar/memguard"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/analuiza2102/bioaccess/client"
)

var (
	createRole      string
	createClearance int
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Administrative account management",
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every account",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := api.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		for _, u := range users {
			enrolled := "-"
			if u.HasBiometric {
				enrolled = "enrolled"
			}
			fmt.Printf("%4d  %-24s %-10s clearance=%d %s\n", u.ID, u.Username, u.Role, u.Clearance, enrolled)
		}
		return nil
	},
}

var usersCreateCmd = &cobra.Command{
	Use:   "create <username>",
	Short: "Create an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("Password for new account: ")
		if err != nil {
			return err
		}
		defer password.Destroy()

		resp, err := api.CreateUser(cmd.Context(), client.CreateUserRequest{
			Username:  args[0],
			Password:  password.String(),
			Role:      createRole,
			Clearance: createClearance,
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (%s, clearance %d)\n", resp.Username, resp.Role, resp.Clearance)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Remove an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := api.DeleteUser(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var usersResetCmd = &cobra.Command{
	Use:   "reset-password <username>",
	Short: "Replace an account's password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := promptPassword("New password: ")
		if err != nil {
			return err
		}
		defer password.Destroy()

		if err := api.ResetPassword(cmd.Context(), args[0], password.String()); err != nil {
			return err
		}
		fmt.Printf("Password reset for %s\n", args[0])
		return nil
	},
}

func promptPassword(prompt string) (*memguard.LockedBuffer, error) {
	fmt.Fprint(os.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("reading password: %w", err)
	}
	return memguard.NewBufferFromBytes(raw), nil
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersListCmd, usersCreateCmd, usersDeleteCmd, usersResetCmd)
	usersCreateCmd.Flags().StringVar(&createRole, "role", "public", "Account role: public, director or minister")
	usersCreateCmd.Flags().IntVar(&createClearance, "clearance", 1, "Clearance level, 1 to 3")
}
