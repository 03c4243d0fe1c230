package approval

import (
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/toolgate-ai/toolgate/internal/shell"
	"github.com/toolgate-ai/toolgate/pkg/types"
)

// RequestKind says what sort of action needs approval.
type RequestKind string

const (
	RequestCommand RequestKind = "command"
	RequestWrite   RequestKind = "write"
	RequestPath    RequestKind = "path"
	RequestRename  RequestKind = "rename"
)

// Request describes one action awaiting a human decision. It carries
// everything the prompt surface needs to render the dialog.
type Request struct {
	ID        string
	SessionID string
	Kind      RequestKind
	Title     string
	// Command is set for command requests: the full compound line.
	Command string
	// Commands lists the expanded sub-commands approval must cover,
	// wrappers unwrapped.
	Commands []string
	// Path is set for write, path, and rename requests.
	Path string
	// Detail is extra context for the dialog, e.g. a change summary.
	Detail string
	// Suggested is the default rule offered by the "remember this"
	// menu; the user may override it in the decision.
	Suggested *types.Rule
}

// NewCommandRequest builds the approval request for a shell command,
// decomposing it so the dialog shows the real commands that will run.
func NewCommandRequest(sessionID, command string) Request {
	command = strings.TrimSpace(command)
	expanded := shell.ExpandSubCommands(shell.Split(command))

	req := Request{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Kind:      RequestCommand,
		Title:     fmt.Sprintf("Run %q", command),
		Command:   command,
		Commands:  expanded,
	}
	if r, ok := shell.SuggestCommandRule(command); ok {
		req.Suggested = &r
	}
	return req
}

// NewWriteRequest builds the approval request for overwriting path,
// with a short summary of the pending change.
func NewWriteRequest(sessionID, path, oldContent, newContent string) Request {
	return Request{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Kind:      RequestWrite,
		Title:     fmt.Sprintf("Write %s", path),
		Path:      path,
		Detail:    DiffSummary(oldContent, newContent),
		Suggested: &types.Rule{Pattern: path, Mode: types.ModeExact},
	}
}

// NewPathRequest builds the approval request for touching a path
// outside the open projects.
func NewPathRequest(sessionID, path string) Request {
	return Request{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Kind:      RequestPath,
		Title:     fmt.Sprintf("Access %s", path),
		Path:      path,
		Suggested: &types.Rule{Pattern: path, Mode: types.ModeExact},
	}
}

// NewRenameRequest builds the approval request for a rename, shown as
// a single summary line.
func NewRenameRequest(sessionID, oldPath, newPath string) Request {
	return Request{
		ID:        ulid.Make().String(),
		SessionID: sessionID,
		Kind:      RequestRename,
		Title:     fmt.Sprintf("Rename %s to %s", oldPath, newPath),
		Path:      newPath,
		Suggested: &types.Rule{Pattern: newPath, Mode: types.ModeExact},
	}
}

// DiffSummary condenses a pending content change into one line, e.g.
// "+120 -36 characters". Empty when nothing changes.
func DiffSummary(oldContent, newContent string) string {
	if oldContent == newContent {
		return ""
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldContent, newContent, true)
	added, removed := 0, 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += len(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += len(d.Text)
		}
	}
	return fmt.Sprintf("+%d -%d characters", added, removed)
}
