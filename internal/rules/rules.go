// Package rules implements fail-closed matching of candidate strings
// against approval rules. A malformed rule never grants access and
// never surfaces an error: every failure mode resolves to "no match".
package rules

import (
	"path"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/toolgate-ai/toolgate/pkg/types"
)

// Matches reports whether candidate satisfies r. It is total: invalid
// patterns, unknown modes, and any panic during evaluation all yield
// false.
func Matches(candidate string, r types.Rule) (matched bool) {
	defer func() {
		if recover() != nil {
			matched = false
		}
	}()

	if r.Pattern == "" {
		return false
	}

	switch r.Mode {
	case types.ModeExact:
		return candidate == r.Pattern
	case types.ModePrefix:
		return strings.HasPrefix(candidate, r.Pattern)
	case types.ModeRegex:
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return false
		}
		return re.MatchString(candidate)
	case types.ModeGlob:
		ok, err := doublestar.Match(r.Pattern, candidate)
		if err != nil {
			return false
		}
		if ok {
			return true
		}
		// A separator-free pattern like "*.md" targets file names, so
		// it also covers the same names in nested directories.
		if !strings.Contains(r.Pattern, "/") {
			ok, err = doublestar.Match(r.Pattern, path.Base(candidate))
			if err != nil {
				return false
			}
			return ok
		}
		return false
	}
	return false
}

// MatchesAny reports whether any rule matches any of the candidates.
func MatchesAny(candidates []string, rs []types.Rule) bool {
	for _, r := range rs {
		for _, c := range candidates {
			if Matches(c, r) {
				return true
			}
		}
	}
	return false
}

// FindMatch returns the first rule matching candidate, if any.
func FindMatch(candidate string, rs []types.Rule) (types.Rule, bool) {
	for _, r := range rs {
		if Matches(candidate, r) {
			return r, true
		}
	}
	return types.Rule{}, false
}

// ValidCommandRule reports whether r is a well-formed command rule.
func ValidCommandRule(r types.Rule) bool {
	return r.Pattern != "" && types.CommandRuleModes[r.Mode]
}

// ValidPathRule reports whether r is a well-formed path or write rule.
func ValidPathRule(r types.Rule) bool {
	return r.Pattern != "" && types.PathRuleModes[r.Mode]
}
