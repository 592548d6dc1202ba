package profiles

import (
	"fmt"

	"squad/internal/config"
	"squad/internal/profile"

	"github.com/spf13/cobra"
)

var Cmd = &cobra.Command{
	Use:   "profiles",
	Short: "List the registered agent profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		registry := profile.Load(cfg.Profiles)
		for _, name := range registry.Names() {
			p, err := registry.Lookup(name)
			if err != nil {
				continue
			}
			fmt.Printf("%-12s shell=%-10s tier=%-8s %s\n", p.Name, p.ShellMode, p.Tier, p.Description)
		}
		return nil
	},
}
