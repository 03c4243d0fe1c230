package approval

import (
	"context"
	"strings"

	"github.com/toolgate-ai/toolgate/internal/event"
	"github.com/toolgate-ai/toolgate/internal/shell"
	"github.com/toolgate-ai/toolgate/pkg/types"
)

// Flow drives one approval end to end: consult the engine, and when
// the action is not pre-approved, collect a human decision through
// the serialized queue and apply any "remember" outcome back to the
// engine.
type Flow struct {
	engine   *Engine
	queue    *Queue
	prompter Prompter
	bus      *event.Bus
}

// NewFlow wires the engine, queue, and prompt surface together.
func NewFlow(engine *Engine, queue *Queue, prompter Prompter, bus *event.Bus) *Flow {
	if bus == nil {
		bus = event.Default()
	}
	return &Flow{engine: engine, queue: queue, prompter: prompter, bus: bus}
}

// ApproveCommand authorizes a shell command. The compound line is
// split and unwrapped; it is pre-approved only when every resulting
// sub-command matches a stored rule.
func (f *Flow) ApproveCommand(ctx context.Context, sessionID, command string) bool {
	command = strings.TrimSpace(command)

	expanded := shell.ExpandSubCommands(shell.Split(command))
	if len(expanded) > 0 {
		allApproved := true
		for _, sub := range expanded {
			if !f.engine.IsCommandApproved(sessionID, sub) {
				allApproved = false
				break
			}
		}
		if allApproved {
			return true
		}
	}

	req := NewCommandRequest(sessionID, command)
	d := f.prompt(ctx, req)
	if !d.Granted() {
		return false
	}
	f.remember(sessionID, KindCommand, req, d, types.Rule{
		Pattern: command,
		Mode:    types.ModeExact,
	})
	return true
}

// ApproveWrite authorizes overwriting path, with old and new content
// available for the dialog's change summary.
func (f *Flow) ApproveWrite(ctx context.Context, sessionID, path, oldContent, newContent string) bool {
	if f.engine.IsWriteApproved(sessionID, path) {
		return true
	}

	req := NewWriteRequest(sessionID, path, oldContent, newContent)
	d := f.prompt(ctx, req)
	if !d.Granted() {
		return false
	}
	f.remember(sessionID, KindWrite, req, d, types.Rule{
		Pattern: path,
		Mode:    types.ModeExact,
	})
	return true
}

// ApprovePath authorizes touching a path outside the open projects.
func (f *Flow) ApprovePath(ctx context.Context, sessionID, path string) bool {
	if f.engine.IsPathTrusted(sessionID, path) {
		return true
	}

	req := NewPathRequest(sessionID, path)
	d := f.prompt(ctx, req)
	if !d.Granted() {
		return false
	}
	f.remember(sessionID, KindPath, req, d, types.Rule{
		Pattern: path,
		Mode:    types.ModeExact,
	})
	return true
}

// prompt runs the interactive unit through the queue so only one
// dialog is ever active, publishing lifecycle events around it.
func (f *Flow) prompt(ctx context.Context, req Request) Decision {
	return f.queue.Do(ctx, func(ctx context.Context) Decision {
		f.bus.Publish(event.Event{
			Type: event.ApprovalRequired,
			Data: event.ApprovalRequiredData{
				ID:        req.ID,
				SessionID: req.SessionID,
				Kind:      string(req.Kind),
				Title:     req.Title,
			},
		})

		d, err := f.prompter.Prompt(ctx, req)
		if err != nil {
			d = Decision{Kind: DecisionReject}
		}

		f.bus.Publish(event.Event{
			Type: event.ApprovalResolved,
			Data: event.ApprovalResolvedData{ID: req.ID, Granted: d.Granted()},
		})
		return d
	})
}

// remember stores the rule implied by a remembering decision: the
// user's explicit rule if they picked one, else the request's
// suggestion, else the exact fallback.
func (f *Flow) remember(sessionID string, kind RuleKind, req Request, d Decision, fallback types.Rule) {
	scope, ok := d.Scope()
	if !ok {
		return
	}
	rule := fallback
	if d.Rule != nil {
		rule = *d.Rule
	} else if req.Suggested != nil {
		rule = *req.Suggested
	}
	if err := f.engine.AddRule(sessionID, scope, kind, rule); err != nil {
		f.engine.log.Warn().Err(err).Str("scope", string(scope)).Msg("failed to remember approval rule")
	}
}
