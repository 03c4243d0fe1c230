package commands

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/toolgate-ai/toolgate/internal/approval"
	"github.com/toolgate-ai/toolgate/internal/event"
	"github.com/toolgate-ai/toolgate/pkg/types"
)

var (
	ruleScope string
	ruleKind  string
	ruleMode  string
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Inspect and edit stored approval rules",
}

var rulesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rules in the global and project documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, registry, err := openStore()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "SCOPE\tKIND\tMODE\tPATTERN")

		printDoc := func(scope string, doc *types.ApprovalsDocument) {
			for _, r := range doc.CommandRules {
				fmt.Fprintf(w, "%s\tcommand\t%s\t%s\n", scope, r.Mode, r.Pattern)
			}
			for _, r := range doc.PathRules {
				fmt.Fprintf(w, "%s\tpath\t%s\t%s\n", scope, r.Mode, r.Pattern)
			}
			for _, r := range doc.WriteRules {
				fmt.Fprintf(w, "%s\twrite\t%s\t%s\n", scope, r.Mode, r.Pattern)
			}
		}

		printDoc("global", st.Global())
		for _, root := range registry.Roots() {
			printDoc("project", st.Project(root))
		}
		return nil
	},
}

var rulesAddCmd = &cobra.Command{
	Use:   "add <pattern>",
	Short: "Add a rule to the global or project document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		scope, kind, err := parseScopeKind()
		if err != nil {
			return err
		}
		rule := types.Rule{Pattern: args[0], Mode: types.RuleMode(ruleMode)}
		if err := engine.AddRule("", scope, kind, rule); err != nil {
			return err
		}
		fmt.Printf("added %s %s rule %q (%s)\n", scope, kind, rule.Pattern, rule.Mode)
		return nil
	},
}

var rulesRemoveCmd = &cobra.Command{
	Use:   "remove <pattern>",
	Short: "Remove rules matching a pattern from a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		scope, kind, err := parseScopeKind()
		if err != nil {
			return err
		}
		if err := engine.RemoveRule("", scope, kind, args[0]); err != nil {
			return err
		}
		fmt.Printf("removed %s %s rules with pattern %q\n", scope, kind, args[0])
		return nil
	},
}

func parseScopeKind() (types.Scope, approval.RuleKind, error) {
	var scope types.Scope
	switch ruleScope {
	case "global":
		scope = types.ScopeGlobal
	case "project":
		scope = types.ScopeProject
	default:
		return "", "", fmt.Errorf("scope must be global or project, got %q", ruleScope)
	}

	var kind approval.RuleKind
	switch ruleKind {
	case "command":
		kind = approval.KindCommand
	case "path":
		kind = approval.KindPath
	case "write":
		kind = approval.KindWrite
	default:
		return "", "", fmt.Errorf("kind must be command, path, or write, got %q", ruleKind)
	}
	return scope, kind, nil
}

// openEngine builds an engine for one-shot CLI operations.
func openEngine() (*approval.Engine, error) {
	st, registry, err := openStore()
	if err != nil {
		return nil, err
	}
	return approval.NewEngine(st, registry, nil, event.NewBus()), nil
}

func init() {
	for _, cmd := range []*cobra.Command{rulesAddCmd, rulesRemoveCmd} {
		cmd.Flags().StringVar(&ruleScope, "scope", "global", "Rule scope (global|project)")
		cmd.Flags().StringVar(&ruleKind, "kind", "command", "Rule kind (command|path|write)")
	}
	rulesAddCmd.Flags().StringVar(&ruleMode, "mode", "exact", "Rule mode (exact|prefix|regex|glob)")

	rulesCmd.AddCommand(rulesListCmd)
	rulesCmd.AddCommand(rulesAddCmd)
	rulesCmd.AddCommand(rulesRemoveCmd)
}
