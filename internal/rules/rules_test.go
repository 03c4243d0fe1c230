package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toolgate-ai/toolgate/pkg/types"
)

func TestMatchesExact(t *testing.T) {
	r := types.Rule{Pattern: "npm test", Mode: types.ModeExact}

	assert.True(t, Matches("npm test", r))
	assert.False(t, Matches("npm test --watch", r))
	assert.False(t, Matches("npm", r))
	assert.False(t, Matches("", r))
}

func TestMatchesPrefix(t *testing.T) {
	r := types.Rule{Pattern: "git commit", Mode: types.ModePrefix}

	assert.True(t, Matches("git commit", r))
	assert.True(t, Matches("git commit -m 'fix'", r))
	assert.False(t, Matches("git push", r))
	assert.False(t, Matches(" git commit", r))
}

func TestMatchesRegex(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		candidate string
		expected  bool
	}{
		{"anchored match", `^npm (test|run)`, "npm test", true},
		{"anchored miss", `^npm (test|run)`, "pnpm test", false},
		{"unanchored", `install`, "npm install express", true},
		{"invalid regex fails closed", `foo[`, "foo", false},
		{"invalid regex fails closed on anything", `(`, "(", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := types.Rule{Pattern: tt.pattern, Mode: types.ModeRegex}
			assert.Equal(t, tt.expected, Matches(tt.candidate, r))
		})
	}
}

func TestMatchesGlob(t *testing.T) {
	tests := []struct {
		name      string
		pattern   string
		candidate string
		expected  bool
	}{
		{"star", "*.md", "readme.md", true},
		{"bare file pattern covers nested paths", "*.md", "docs/readme.md", true},
		{"doublestar", "**/*.md", "docs/readme.md", true},
		{"question mark", "a?.txt", "ab.txt", true},
		{"character class", "[ab].txt", "a.txt", true},
		{"miss", "*.md", "main.go", false},
		{"nested miss", "*.md", "src/a.ts", false},
		{"pattern with separator stays anchored", "docs/*.md", "src/docs/readme.md", false},
		{"malformed glob fails closed", "[", "[", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := types.Rule{Pattern: tt.pattern, Mode: types.ModeGlob}
			assert.Equal(t, tt.expected, Matches(tt.candidate, r))
		})
	}
}

func TestMatchesUnknownModeAndEmptyPattern(t *testing.T) {
	assert.False(t, Matches("anything", types.Rule{Pattern: "anything", Mode: "mystery"}))
	assert.False(t, Matches("anything", types.Rule{Pattern: "", Mode: types.ModeExact}))
	assert.False(t, Matches("", types.Rule{Pattern: "", Mode: types.ModePrefix}))
}

func TestMatchesAny(t *testing.T) {
	rs := []types.Rule{
		{Pattern: "docs/**", Mode: types.ModeGlob},
		{Pattern: "/etc/hosts", Mode: types.ModeExact},
	}

	assert.True(t, MatchesAny([]string{"src/a.go", "docs/guide.md"}, rs))
	assert.True(t, MatchesAny([]string{"/etc/hosts"}, rs))
	assert.False(t, MatchesAny([]string{"src/a.go"}, rs))
	assert.False(t, MatchesAny(nil, rs))
}

func TestFindMatch(t *testing.T) {
	rs := []types.Rule{
		{Pattern: "npm run", Mode: types.ModePrefix},
		{Pattern: "npm", Mode: types.ModePrefix},
	}

	r, ok := FindMatch("npm run build", rs)
	assert.True(t, ok)
	assert.Equal(t, "npm run", r.Pattern)

	_, ok = FindMatch("yarn build", rs)
	assert.False(t, ok)
}

func TestValidation(t *testing.T) {
	assert.True(t, ValidCommandRule(types.Rule{Pattern: "git", Mode: types.ModeRegex}))
	assert.False(t, ValidCommandRule(types.Rule{Pattern: "git", Mode: types.ModeGlob}))
	assert.False(t, ValidCommandRule(types.Rule{Pattern: "", Mode: types.ModeExact}))

	assert.True(t, ValidPathRule(types.Rule{Pattern: "*.md", Mode: types.ModeGlob}))
	assert.False(t, ValidPathRule(types.Rule{Pattern: "x", Mode: types.ModeRegex}))
	assert.False(t, ValidPathRule(types.Rule{Pattern: "x", Mode: "nope"}))
}
