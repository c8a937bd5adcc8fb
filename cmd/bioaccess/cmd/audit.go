package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/analuiza2102/bioaccess/client"
	"github.com/analuiza2102/bioaccess/guard"
	"github.com/analuiza2102/bioaccess/session"
)

var (
	auditPage    int
	auditLimit   int
	auditStart   string
	auditEnd     string
	auditAction  string
	auditSuccess string
	auditCSV     string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Inspect the access audit trail",
	Long:  `Lists audit records. Reserved for clearance level 3.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := guard.New(sessions, session.ClearanceMinister).Err(); err != nil {
			return err
		}

		filter := client.AuditFilter{
			Page:      auditPage,
			Limit:     auditLimit,
			StartDate: auditStart,
			EndDate:   auditEnd,
			Action:    auditAction,
		}
		switch auditSuccess {
		case "":
		case "true", "false":
			v := auditSuccess == "true"
			filter.Success = &v
		default:
			return fmt.Errorf("--success must be true or false")
		}

		page, err := api.FetchAudit(cmd.Context(), filter)
		if err != nil {
			return err
		}

		if auditCSV != "" {
			f, err := os.Create(auditCSV)
			if err != nil {
				return fmt.Errorf("creating %s: %w", auditCSV, err)
			}
			defer f.Close()
			if err := page.WriteCSV(f); err != nil {
				return err
			}
			fmt.Printf("Wrote %d records to %s\n", len(page.Logs), auditCSV)
			return nil
		}

		for _, l := range page.Logs {
			status := "ok"
			if !l.Success {
				status = "DENIED"
			}
			fmt.Printf("%4d  %-20s %-14s level=%d %-7s %-15s %s\n",
				l.ID, l.User, l.Action, l.LevelRequested, status, l.OriginIP, l.Timestamp)
		}
		fmt.Printf("Page %d of %d (%d records)\n", page.Page, page.PageCount(), page.Total)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auditCmd)
	auditCmd.Flags().IntVar(&auditPage, "page", 1, "Page number, starting at 1")
	auditCmd.Flags().IntVar(&auditLimit, "limit", client.DefaultAuditLimit, "Records per page, at most 100")
	auditCmd.Flags().StringVar(&auditStart, "start", "", "Earliest date, YYYY-MM-DD")
	auditCmd.Flags().StringVar(&auditEnd, "end", "", "Latest date, YYYY-MM-DD")
	auditCmd.Flags().StringVar(&auditAction, "action", "", "Filter by action name")
	auditCmd.Flags().StringVar(&auditSuccess, "success", "", "Filter by outcome: true or false")
	auditCmd.Flags().StringVar(&auditCSV, "csv", "", "Write the page to a CSV file instead of printing")
}
