/*
Package event provides the pub/sub change-notification bus connecting
the approval engine, the config store, and the host surfaces observing
them.

The package is built on top of watermill's gochannel for infrastructure
while maintaining direct-call semantics to preserve type information.
It provides both synchronous and asynchronous publishing patterns.

# Event Types

Approval Events:
  - approvals.updated: Approval state mutated in any scope
  - approval.required: An interactive approval dialog is about to open
  - approval.resolved: An interactive approval dialog was decided

Config Events:
  - config.reloaded: Documents were re-read after an external edit

Project Events:
  - projects.changed: The set of open project roots was resynchronized

# Basic Usage

Publishing events:

	// Asynchronous publishing (non-blocking)
	event.Publish(event.Event{Type: event.ApprovalsUpdated})

	// Synchronous publishing (blocking until all subscribers complete)
	event.PublishSync(event.Event{
		Type: event.ApprovalResolved,
		Data: event.ApprovalResolvedData{ID: id, Granted: true},
	})

Subscribing to specific events:

	unsubscribe := event.Subscribe(event.ConfigReloaded, func(e event.Event) {
		refresh()
	})
	defer unsubscribe()

# Subscriber Safety Guidelines

When using PublishSync, subscribers are called synchronously in the
publisher's goroutine. To avoid blocking or deadlocks, subscribers MUST:

  - Complete quickly (avoid long-running operations)
  - Use non-blocking channel sends (select with default case)
  - Never call Publish/PublishSync from within a subscriber
  - Never acquire locks that the publisher might hold

# Testing

Reset global bus state in test cleanup:

	event.Reset()

# Integration with Watermill

The underlying pubsub is exposed for callers that bridge events onto a
router or a distributed backend:

	pubsub := bus.PubSub()
*/
package event
