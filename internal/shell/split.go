// Package shell decomposes compound shell commands for approval
// purposes: splitting on control operators, tokenizing with quote
// awareness, and unwrapping command-wrapper indirection so a rule for
// an inner command cannot be bypassed by prefixing it with sudo, env,
// or similar. It is deliberately not a shell interpreter.
package shell

import "strings"

// Split breaks a compound command line into its ordered sub-commands.
// Segments are separated by &&, ||, | or ; outside of quotes. A
// backslash consumes the following character verbatim except inside
// single quotes. Segments are trimmed and empty segments dropped.
func Split(command string) []string {
	var segments []string
	var cur strings.Builder
	inSingle := false
	inDouble := false

	flush := func() {
		s := strings.TrimSpace(cur.String())
		if s != "" {
			segments = append(segments, s)
		}
		cur.Reset()
	}

	for i := 0; i < len(command); i++ {
		c := command[i]

		if inSingle {
			cur.WriteByte(c)
			if c == '\'' {
				inSingle = false
			}
			continue
		}

		if c == '\\' {
			cur.WriteByte(c)
			if i+1 < len(command) {
				i++
				cur.WriteByte(command[i])
			}
			continue
		}

		if inDouble {
			cur.WriteByte(c)
			if c == '"' {
				inDouble = false
			}
			continue
		}

		switch c {
		case '\'':
			inSingle = true
			cur.WriteByte(c)
		case '"':
			inDouble = true
			cur.WriteByte(c)
		case '&':
			if i+1 < len(command) && command[i+1] == '&' {
				flush()
				i++
			} else {
				cur.WriteByte(c)
			}
		case '|':
			flush()
			if i+1 < len(command) && command[i+1] == '|' {
				i++
			}
		case ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	return segments
}

// Tokenize splits a single command into whitespace-separated tokens.
// Quoted regions are kept intact and tokens retain their quoting, so
// joining tokens with spaces reproduces an equivalent command.
func Tokenize(command string) []string {
	var tokens []string
	var cur strings.Builder
	inSingle := false
	inDouble := false

	for i := 0; i < len(command); i++ {
		c := command[i]

		if inSingle {
			cur.WriteByte(c)
			if c == '\'' {
				inSingle = false
			}
			continue
		}

		if c == '\\' {
			cur.WriteByte(c)
			if i+1 < len(command) {
				i++
				cur.WriteByte(command[i])
			}
			continue
		}

		if inDouble {
			cur.WriteByte(c)
			if c == '"' {
				inDouble = false
			}
			continue
		}

		switch c {
		case '\'':
			inSingle = true
			cur.WriteByte(c)
		case '"':
			inDouble = true
			cur.WriteByte(c)
		case ' ', '\t':
			if cur.Len() > 0 {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		tokens = append(tokens, cur.String())
	}

	return tokens
}
