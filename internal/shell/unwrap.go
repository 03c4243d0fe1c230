package shell

import (
	"regexp"
	"strings"
)

// maxUnwrapDepth bounds repeated unwrapping against pathological
// nesting like "sudo sudo sudo ...".
const maxUnwrapDepth = 5

// wrapper describes one command that re-invokes another command as its
// argument. valueFlags are the flags that consume a following value
// token; every other flag is treated as boolean. Extending coverage to
// a new wrapper means adding a table entry, nothing else.
type wrapper struct {
	// valueFlags consume the token that follows them. A --flag=value
	// token is self-contained and never consumes a follower.
	valueFlags map[string]bool
	// skipAssignments skips leading VAR=value tokens (env).
	skipAssignments bool
	// skipDuration skips one leading numeric duration token (timeout).
	skipDuration bool
}

func flagSet(flags ...string) map[string]bool {
	m := make(map[string]bool, len(flags))
	for _, f := range flags {
		m[f] = true
	}
	return m
}

var wrappers = map[string]wrapper{
	"sudo": {valueFlags: flagSet(
		"-u", "--user", "-g", "--group", "-h", "--host", "-p", "--prompt",
		"-U", "--other-user", "-C", "--close-from", "-D", "--chdir",
		"-R", "--chroot", "-T", "--command-timeout",
	)},
	"doas": {valueFlags: flagSet("-u", "-C")},
	"env": {
		valueFlags:      flagSet("-u", "--unset", "-C", "--chdir", "-S", "--split-string"),
		skipAssignments: true,
	},
	"xargs": {valueFlags: flagSet(
		"-a", "--arg-file", "-d", "--delimiter", "-E", "-e", "--eof",
		"-I", "-i", "--replace", "-L", "-l", "--max-lines",
		"-n", "--max-args", "-P", "--max-procs", "-s", "--max-chars",
	)},
	"nice":   {valueFlags: flagSet("-n", "--adjustment")},
	"nohup":  {},
	"setsid": {},
	"stdbuf": {valueFlags: flagSet("-i", "--input", "-o", "--output", "-e", "--error")},
	"timeout": {
		valueFlags:   flagSet("-k", "--kill-after", "-s", "--signal"),
		skipDuration: true,
	},
	"strace": {valueFlags: flagSet(
		"-e", "-o", "-p", "-s", "-a", "-b", "-E", "-I", "-P", "-u", "-x", "-X",
	)},
	"time":   {},
	"ionice": {valueFlags: flagSet("-c", "--class", "-n", "--classdata", "-p", "--pid", "-P", "--pgid", "-u", "--uid")},
}

var (
	assignmentRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)
	durationRE   = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[smhd]?$`)
)

// Unwrap strips one layer of wrapper indirection from cmd. If the
// first token is a known wrapper it skips the wrapper's flags (and
// value tokens, positional assignments, durations) and returns the
// remaining tokens rejoined as the inner command. Returns false when
// cmd is not wrapped or the wrapper has no inner command.
func Unwrap(cmd string) (string, bool) {
	tokens := Tokenize(cmd)
	if len(tokens) < 2 {
		return "", false
	}

	w, ok := wrappers[tokens[0]]
	if !ok {
		return "", false
	}

	durationSkipped := false
	for i := 1; i < len(tokens); i++ {
		tok := tokens[i]

		if w.skipAssignments && assignmentRE.MatchString(tok) {
			continue
		}
		if w.skipDuration && !durationSkipped && durationRE.MatchString(tok) {
			durationSkipped = true
			continue
		}
		if strings.HasPrefix(tok, "-") {
			if !strings.Contains(tok, "=") && w.valueFlags[tok] {
				i++ // flag consumes the following value token
			}
			continue
		}

		return strings.Join(tokens[i:], " "), true
	}

	return "", false
}

// UnwrapCommand applies Unwrap repeatedly, bounded at maxUnwrapDepth,
// and returns the fully unwrapped inner command. Returns false when no
// unwrap occurred at all.
func UnwrapCommand(cmd string) (string, bool) {
	current := cmd
	unwrapped := false
	for i := 0; i < maxUnwrapDepth; i++ {
		inner, ok := Unwrap(current)
		if !ok {
			break
		}
		current = inner
		unwrapped = true
	}
	if !unwrapped {
		return "", false
	}
	return current, true
}

// ExpandSubCommands widens a list of sub-commands so authorization
// targets real commands, not their wrapper shells: each sub-command
// that unwraps contributes both the wrapper name alone and the inner
// command. Sub-commands that do not unwrap pass through unchanged.
func ExpandSubCommands(commands []string) []string {
	var out []string
	for _, cmd := range commands {
		inner, ok := UnwrapCommand(cmd)
		if !ok {
			out = append(out, cmd)
			continue
		}
		tokens := Tokenize(cmd)
		if len(tokens) > 0 {
			out = append(out, tokens[0])
		}
		out = append(out, inner)
	}
	return out
}
