package types

// RuleMode determines how a rule pattern is interpreted when it is
// tested against a candidate string.
type RuleMode string

const (
	// ModeExact matches when the candidate equals the pattern.
	ModeExact RuleMode = "exact"
	// ModePrefix matches when the candidate starts with the pattern.
	ModePrefix RuleMode = "prefix"
	// ModeRegex matches when the pattern, compiled as a regular
	// expression, matches the candidate. Command rules only.
	ModeRegex RuleMode = "regex"
	// ModeGlob matches when the pattern, interpreted as a shell-style
	// glob (including **), matches the candidate. Path rules only.
	ModeGlob RuleMode = "glob"
)

// CommandRuleModes are the modes valid for command rules.
var CommandRuleModes = map[RuleMode]bool{
	ModeExact:  true,
	ModePrefix: true,
	ModeRegex:  true,
}

// PathRuleModes are the modes valid for path rules and write rules.
var PathRuleModes = map[RuleMode]bool{
	ModeExact:  true,
	ModePrefix: true,
	ModeGlob:   true,
}

// Rule is an immutable (pattern, mode) pair used to test whether a
// candidate command or path is pre-authorized. Identity for
// deduplication is the full pair.
type Rule struct {
	Pattern string   `json:"pattern"`
	Mode    RuleMode `json:"mode"`
}

// Scope is the persistence and visibility tier of a rule or of a
// blanket write approval.
type Scope string

const (
	// ScopeSession rules live only in process memory.
	ScopeSession Scope = "session"
	// ScopeProject rules are persisted under a project root.
	ScopeProject Scope = "project"
	// ScopeGlobal rules are persisted in the user's profile directory.
	ScopeGlobal Scope = "global"
)

// ApprovalsVersion is the current approvals document schema version.
const ApprovalsVersion = 1

// ApprovalsDocument is the on-disk shape of one approvals config file.
// Exactly one global document exists per process; zero or more project
// documents exist, one per open project root.
type ApprovalsDocument struct {
	Version       int    `json:"version"`
	WriteApproved bool   `json:"writeApproved,omitempty"`
	CommandRules  []Rule `json:"commandRules,omitempty"`
	PathRules     []Rule `json:"pathRules,omitempty"`
	WriteRules    []Rule `json:"writeRules,omitempty"`
}

// NewApprovalsDocument returns an empty document at the current version.
func NewApprovalsDocument() *ApprovalsDocument {
	return &ApprovalsDocument{Version: ApprovalsVersion}
}

// Clone returns a deep copy of the document. Persisting mutates the
// copy and replaces the original only after a successful write.
func (d *ApprovalsDocument) Clone() *ApprovalsDocument {
	c := &ApprovalsDocument{
		Version:       d.Version,
		WriteApproved: d.WriteApproved,
	}
	if d.CommandRules != nil {
		c.CommandRules = append([]Rule(nil), d.CommandRules...)
	}
	if d.PathRules != nil {
		c.PathRules = append([]Rule(nil), d.PathRules...)
	}
	if d.WriteRules != nil {
		c.WriteRules = append([]Rule(nil), d.WriteRules...)
	}
	return c
}

// DedupeRules removes duplicate (pattern, mode) entries, keeping the
// first occurrence and preserving order.
func DedupeRules(rules []Rule) []Rule {
	if len(rules) == 0 {
		return rules
	}
	seen := make(map[Rule]bool, len(rules))
	out := rules[:0:0]
	for _, r := range rules {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out
}
