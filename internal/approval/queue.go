package approval

import (
	"context"
	"sync"
)

// Unit is one complete interactive approval flow, including any
// follow-up scope or pattern sub-dialogs. It must honor ctx and
// resolve to a rejecting decision rather than hang when the caller
// abandons the request.
type Unit func(ctx context.Context) Decision

type queuedUnit struct {
	ctx    context.Context
	run    Unit
	result chan Decision
}

// Queue serializes interactive approval requests so only one prompt
// is ever presented at a time. Units run first-in-first-out; the
// queue advances only after a unit settles.
type Queue struct {
	units    chan *queuedUnit
	done     chan struct{}
	stopOnce sync.Once
}

// NewQueue creates the queue and starts its worker.
func NewQueue() *Queue {
	q := &Queue{
		units: make(chan *queuedUnit, 128),
		done:  make(chan struct{}),
	}
	go q.loop()
	return q
}

// Close stops the worker. Queued units resolve to rejection.
func (q *Queue) Close() {
	q.stopOnce.Do(func() {
		close(q.done)
	})
}

// Do submits run and waits for its decision. If ctx is cancelled
// while the unit is queued, the caller gets a rejecting decision
// immediately and the unit is skipped when dequeued.
func (q *Queue) Do(ctx context.Context, run Unit) Decision {
	u := &queuedUnit{
		ctx:    ctx,
		run:    run,
		result: make(chan Decision, 1),
	}

	select {
	case q.units <- u:
	case <-ctx.Done():
		return Decision{Kind: DecisionReject}
	case <-q.done:
		return Decision{Kind: DecisionReject}
	}

	select {
	case d := <-u.result:
		return d
	case <-ctx.Done():
		return Decision{Kind: DecisionReject}
	}
}

func (q *Queue) loop() {
	for {
		select {
		case <-q.done:
			return
		case u := <-q.units:
			if u.ctx.Err() != nil {
				u.result <- Decision{Kind: DecisionReject}
				continue
			}
			u.result <- u.run(u.ctx)
		}
	}
}
