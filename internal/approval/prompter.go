package approval

import (
	"context"

	"github.com/toolgate-ai/toolgate/pkg/types"
)

// DecisionKind is the closed set of outcomes a prompt surface can
// return.
type DecisionKind string

const (
	// DecisionOnce authorizes this request only; nothing is stored.
	DecisionOnce DecisionKind = "once"
	// DecisionSession remembers a rule in session memory.
	DecisionSession DecisionKind = "session"
	// DecisionProject remembers a rule in the project document.
	DecisionProject DecisionKind = "project"
	// DecisionAlways remembers a rule in the global document.
	DecisionAlways DecisionKind = "always"
	// DecisionReject denies the request.
	DecisionReject DecisionKind = "reject"
)

// Decision is a user's response to an approval request.
type Decision struct {
	Kind DecisionKind
	// Rule optionally overrides the request's suggested rule when the
	// user picked an explicit pattern and mode in the dialog.
	Rule *types.Rule
	// Note carries optional free text entered by the user.
	Note string
}

// Granted reports whether the decision authorizes the request.
func (d Decision) Granted() bool {
	return d.Kind != DecisionReject && d.Kind != ""
}

// Scope maps a remembering decision to its rule scope.
func (d Decision) Scope() (types.Scope, bool) {
	switch d.Kind {
	case DecisionSession:
		return types.ScopeSession, true
	case DecisionProject:
		return types.ScopeProject, true
	case DecisionAlways:
		return types.ScopeGlobal, true
	}
	return "", false
}

// Prompter is the external prompt surface: it renders a request and a
// scope menu to the human and returns their decision. Implementations
// must return promptly on ctx cancellation.
type Prompter interface {
	Prompt(ctx context.Context, req Request) (Decision, error)
}

// PrompterFunc adapts a function to the Prompter interface.
type PrompterFunc func(ctx context.Context, req Request) (Decision, error)

func (f PrompterFunc) Prompt(ctx context.Context, req Request) (Decision, error) {
	return f(ctx, req)
}

// AutoPrompter decides without human interaction, for headless runs:
// every request resolves to once-approval or rejection.
type AutoPrompter struct {
	Approve bool
}

func (p AutoPrompter) Prompt(ctx context.Context, req Request) (Decision, error) {
	if p.Approve {
		return Decision{Kind: DecisionOnce}, nil
	}
	return Decision{Kind: DecisionReject}, nil
}
