package trail

import (
	"context"
	"fmt"

	"squad/internal/audit"
	"squad/internal/config"
	"squad/internal/db"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "trail <run-id>",
	Short: "Print the audit trail of a past run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		database, err := db.Open(cfg.DB.Path)
		if err != nil {
			return err
		}
		defer database.Close()
		if err := database.Migrate(); err != nil {
			return err
		}

		entries, err := audit.NewStore(database).Trail(context.Background(), args[0])
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("no audit entries for run", args[0])
			return nil
		}
		for _, e := range entries {
			status := "allowed"
			if !e.Allowed {
				status = "blocked"
			}
			executed := ""
			if e.Executed {
				executed = " executed"
			}
			fmt.Printf("#%-3d %-12s class=%-7s %s%s  %s\n", e.Seq, e.Tool, e.Class, status, executed, e.Reason)
		}
		return nil
	},
}
