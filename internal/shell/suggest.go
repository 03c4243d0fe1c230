package shell

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"

	"github.com/toolgate-ai/toolgate/pkg/types"
)

// parsed is a structured view of one simple command, extracted for
// rule suggestion.
type parsed struct {
	name       string
	args       []string
	subcommand string // first non-flag argument
}

// parseCommand parses a single command with a real bash grammar and
// extracts the first simple command. Suggestion is best-effort; a
// parse failure just means no suggestion.
func parseCommand(command string) (parsed, bool) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)
	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return parsed{}, false
	}

	var p parsed
	found := false
	syntax.Walk(file, func(node syntax.Node) bool {
		if found {
			return false
		}
		call, ok := node.(*syntax.CallExpr)
		if !ok || len(call.Args) == 0 {
			return true
		}
		p.name = wordToString(call.Args[0])
		if p.name == "" {
			return true
		}
		for _, arg := range call.Args[1:] {
			s := wordToString(arg)
			p.args = append(p.args, s)
			if p.subcommand == "" && !strings.HasPrefix(s, "-") {
				p.subcommand = s
			}
		}
		found = true
		return false
	})
	return p, found
}

// wordToString flattens a parsed word to its literal text. Dynamic
// parts (expansions, substitutions) collapse to placeholders so they
// can never be mistaken for trusted literals.
func wordToString(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				if lit, ok := qp.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		case *syntax.ParamExp:
			sb.WriteString("$" + p.Param.Value)
		case *syntax.CmdSubst:
			sb.WriteString("$()")
		}
	}
	return sb.String()
}

// SuggestCommandRule proposes a reusable rule for a command the user
// just approved, shown as the default in the "remember this" dialog.
// "git commit -m x" suggests the prefix "git commit"; a bare command
// with no arguments suggests itself exactly. Returns false when the
// command cannot be parsed.
func SuggestCommandRule(command string) (types.Rule, bool) {
	p, ok := parseCommand(strings.TrimSpace(command))
	if !ok {
		return types.Rule{}, false
	}

	if len(p.args) == 0 {
		return types.Rule{Pattern: p.name, Mode: types.ModeExact}, true
	}
	if p.subcommand != "" && !strings.HasPrefix(p.subcommand, "$") {
		return types.Rule{Pattern: p.name + " " + p.subcommand, Mode: types.ModePrefix}, true
	}
	return types.Rule{Pattern: p.name, Mode: types.ModePrefix}, true
}
