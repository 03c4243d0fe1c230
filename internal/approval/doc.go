// Package approval is the policy core that mediates dangerous agent
// actions: running shell commands, touching paths outside the open
// projects, and overwriting files inside them.
//
// The Engine answers "is this action authorized?" against rules drawn
// from three scopes: ephemeral session memory, the per-project config
// document, and the global config document. Authorization is a union
// across scopes: a match anywhere grants. The blanket write flag is
// the one exception, checked in fixed order (global, then project,
// then session). Every lookup is total and defaults to deny.
//
// When a lookup denies, the Flow collects a human decision through
// the Queue, which serializes interactive prompts so the host surface
// only ever shows one, and a "remember" decision writes a rule back
// into the chosen scope. Persisted scopes write through the config
// store's copy-mutate-atomic-persist protocol; session scope mutates
// memory and refreshes the session's activity clock.
//
// Sessions are created lazily, keyed by an opaque caller-supplied
// identifier, and swept hourly; a session idle for more than 24 hours
// is discarded. Nothing about sessions survives a process restart.
package approval
