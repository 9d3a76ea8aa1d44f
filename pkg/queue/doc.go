// Package queue implements the bounded offline delivery queue.
//
// Messages that could not be published immediately are held here in strict
// FIFO order until connectivity returns. The queue is a fixed-capacity ring
// buffer: at capacity the oldest entry is evicted to admit the newest,
// because a fresh faculty response outranks a stale one.
//
// Response and status messages share one queue ordered purely by enqueue
// time. There is no cross-class priority; the central system sees faculty
// actions in the order they happened.
//
// The queue is exclusively owned by the publisher; all mutation goes
// through Push, Pop and BumpHeadRetry.
//
// A Store persists the queue to a JSON snapshot so queued faculty responses
// survive a unit restart.
package queue
