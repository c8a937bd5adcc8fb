package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Authenticate with a username and password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// The locked buffer owns the password bytes and wipes them on destroy.
		password, err := promptPassword("Password: ")
		if err != nil {
			return err
		}
		defer password.Destroy()

		user, err := api.Login(cmd.Context(), args[0], password.String())
		if err != nil {
			return err
		}
		fmt.Printf("Logged in as %s (%s, clearance %d)\n", user.Username, user.Role, user.Clearance)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Run: func(cmd *cobra.Command, args []string) {
		sessions.Logout()
		fmt.Println("Logged out")
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the current session",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, ok := sessions.User()
		if !ok {
			return fmt.Errorf("not logged in")
		}
		fmt.Printf("%s (%s, clearance %d)\n", user.Username, user.Role, user.Clearance)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}
