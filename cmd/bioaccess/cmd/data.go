package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/analuiza2102/bioaccess/client"
	"github.com/analuiza2102/bioaccess/guard"
)

var dataCmd = &cobra.Command{
	Use:   "data <level>",
	Short: "Read the data payload for a clearance level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("level must be a number between 1 and 3")
		}

		// Gate locally first so a doomed request never leaves the client.
		if err := guard.New(sessions, level).Err(); err != nil {
			return err
		}

		data, err := api.FetchLevel(cmd.Context(), level)
		if err != nil {
			return err
		}
		fmt.Printf("%s (level %d)\n", client.LevelLabel(data.Level), data.Level)
		for k, v := range data.Data {
			fmt.Printf("  %s: %v\n", k, v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dataCmd)
}
