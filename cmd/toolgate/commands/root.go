// Package commands provides the CLI commands for toolgate.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/event"
	"github.com/toolgate-ai/toolgate/internal/logging"
	"github.com/toolgate-ai/toolgate/internal/project"
	"github.com/toolgate-ai/toolgate/internal/store"
)

var (
	// Version information set at build time
	Version   = "0.1.0"
	BuildTime = "dev"
)

// Global flags
var (
	logLevel    string
	projectRoot string
)

var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "toolgate - approval policy for autonomous coding agents",
	Long: `toolgate manages the rules that decide which agent actions are
pre-approved: shell commands, file writes, and path access.

Run 'toolgate rules list' to inspect stored rules, 'toolgate check'
to evaluate a candidate action, or 'toolgate migrate' to pull
approval state forward from a legacy installation.`,
	Version: Version,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Init(logging.Config{
			Level:   logging.ParseLevel(logLevel),
			Console: true,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&projectRoot, "project", "", "Project root (defaults to the current directory)")

	rootCmd.SetVersionTemplate(fmt.Sprintf("toolgate %s (%s)\n", Version, BuildTime))

	rootCmd.AddCommand(rulesCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(migrateCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// openStore builds the store and project registry the subcommands
// operate on. The CLI never starts file watching; each invocation
// reads fresh state.
func openStore() (*store.Store, *project.Registry, error) {
	root := projectRoot
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, err
		}
		root = wd
	}

	bus := event.NewBus()
	registry := project.NewRegistry(bus)
	registry.Sync([]string{root})

	st := store.New(config.GetPaths().GlobalApprovalsPath(), bus)
	st.SyncProjects(registry.Roots())
	return st, registry, nil
}
