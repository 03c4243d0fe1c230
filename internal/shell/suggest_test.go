package shell

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toolgate-ai/toolgate/pkg/types"
)

func TestSuggestCommandRule(t *testing.T) {
	tests := []struct {
		name     string
		command  string
		expected types.Rule
		ok       bool
	}{
		{
			name:     "subcommand suggests prefix",
			command:  "git commit -m 'fix bug'",
			expected: types.Rule{Pattern: "git commit", Mode: types.ModePrefix},
			ok:       true,
		},
		{
			name:     "bare command suggests exact",
			command:  "ls",
			expected: types.Rule{Pattern: "ls", Mode: types.ModeExact},
			ok:       true,
		},
		{
			name:     "flags only suggests command prefix",
			command:  "ls -la",
			expected: types.Rule{Pattern: "ls", Mode: types.ModePrefix},
			ok:       true,
		},
		{
			name:     "dynamic subcommand is never a trusted literal",
			command:  "npm $TARGET",
			expected: types.Rule{Pattern: "npm", Mode: types.ModePrefix},
			ok:       true,
		},
		{
			name:    "unparseable command",
			command: "echo 'unterminated",
			ok:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := SuggestCommandRule(tt.command)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, rule)
			}
		})
	}
}
