package main

import (
	"os"

	"squad/cmd/squad/dispatch"
	"squad/cmd/squad/profiles"
	"squad/cmd/squad/trail"
	"squad/internal/logger"

	"github.com/spf13/cobra"
)

func main() {
	logger.Init()
	rootCmd := &cobra.Command{
		Use:   "squad",
		Short: "Squad dispatches tasks to capability-scoped sub-agents",
	}

	rootCmd.AddCommand(dispatch.Cmd)
	rootCmd.AddCommand(profiles.Cmd)
	rootCmd.AddCommand(trail.Cmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
