package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/state"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate approval state from a legacy installation",
	Long: `Reads the legacy flat key-value state file, merges any approval
rules and write-approval flags into the global config document, and
clears the legacy keys. Safe to run repeatedly; after the first
successful run it is a no-op.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		legacy := state.New(config.GetPaths().LegacyStatePath())
		if err := engine.MigrateFromGlobalState(legacy); err != nil {
			return err
		}
		fmt.Println("migration complete")
		return nil
	},
}
