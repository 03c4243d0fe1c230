package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/toolgate-ai/toolgate/internal/shell"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Evaluate a candidate action against stored rules",
}

var checkCommandCmd = &cobra.Command{
	Use:   "command <command...>",
	Short: "Check whether a shell command is pre-approved",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		command := strings.Join(args, " ")
		expanded := shell.ExpandSubCommands(shell.Split(command))

		allApproved := len(expanded) > 0
		for _, sub := range expanded {
			rule, scope, ok := engine.FindMatchingCommandRule("", sub)
			if !ok {
				allApproved = false
				fmt.Printf("deny   %q\n", sub)
				continue
			}
			fmt.Printf("allow  %q  (%s rule %q, %s)\n", sub, scope, rule.Pattern, rule.Mode)
		}

		if allApproved {
			fmt.Println("approved")
		} else {
			fmt.Println("needs approval")
		}
		return nil
	},
}

var checkWriteCmd = &cobra.Command{
	Use:   "write <path>",
	Short: "Check whether writing a file is pre-approved",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		if engine.IsWriteApproved("", args[0]) {
			fmt.Println("approved")
		} else {
			fmt.Println("needs approval")
		}
		return nil
	},
}

var checkPathCmd = &cobra.Command{
	Use:   "path <path>",
	Short: "Check whether a path outside the project is trusted",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine()
		if err != nil {
			return err
		}
		defer engine.Close()

		if engine.IsPathTrusted("", args[0]) {
			fmt.Println("trusted")
		} else {
			fmt.Println("not trusted")
		}
		return nil
	},
}

func init() {
	checkCmd.AddCommand(checkCommandCmd)
	checkCmd.AddCommand(checkWriteCmd)
	checkCmd.AddCommand(checkPathCmd)
}
