package queue

import (
	"time"
)

// DefaultCapacity is the default queue bound, matching the reference
// firmware's offline queue size.
const DefaultCapacity = 10

// Message is one outbound payload held for later delivery.
// Messages are created on a failed immediate publish, mutated only by
// retry accounting, and destroyed on success or retry exhaustion.
type Message struct {
	// ID uniquely identifies the message across restarts.
	ID string `json:"id"`

	// Topic is the destination topic.
	Topic string `json:"topic"`

	// Payload is the encoded wire payload.
	Payload []byte `json:"payload"`

	// IsResponse marks a faculty response (at-least-once delivery) as
	// opposed to a status/heartbeat message (best effort).
	IsResponse bool `json:"is_response"`

	// Retained marks messages published with the broker retain flag.
	Retained bool `json:"retained,omitempty"`

	// EnqueuedAt is when the message entered the queue.
	EnqueuedAt time.Time `json:"enqueued_at"`

	// RetryCount is how many drain attempts have failed.
	RetryCount int `json:"retry_count"`
}

// Queue is a fixed-capacity FIFO ring buffer of outbound messages.
// It is owned and driven by a single goroutine; methods are not safe for
// concurrent use.
type Queue struct {
	buf  []Message
	head int // index of the oldest message
	size int
}

// New creates a queue with the given capacity.
// Non-positive capacities fall back to DefaultCapacity.
func New(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Queue{buf: make([]Message, capacity)}
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	return q.size
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return len(q.buf)
}

// Push appends a message. At capacity the oldest entry is evicted and
// returned so the caller can log the intentional loss.
func (q *Queue) Push(msg Message) (evicted Message, didEvict bool) {
	if q.size == len(q.buf) {
		evicted, didEvict = q.popFront()
	}
	q.buf[(q.head+q.size)%len(q.buf)] = msg
	q.size++
	return evicted, didEvict
}

// Peek returns the oldest message without removing it.
func (q *Queue) Peek() (Message, bool) {
	if q.size == 0 {
		return Message{}, false
	}
	return q.buf[q.head], true
}

// Pop removes and returns the oldest message.
func (q *Queue) Pop() (Message, bool) {
	return q.popFront()
}

// BumpHeadRetry increments the head message's retry count and returns the
// new count. It returns 0 if the queue is empty.
func (q *Queue) BumpHeadRetry() int {
	if q.size == 0 {
		return 0
	}
	q.buf[q.head].RetryCount++
	return q.buf[q.head].RetryCount
}

// Snapshot returns the queued messages oldest first.
func (q *Queue) Snapshot() []Message {
	out := make([]Message, q.size)
	for i := 0; i < q.size; i++ {
		out[i] = q.buf[(q.head+i)%len(q.buf)]
	}
	return out
}

// popFront removes the oldest message.
func (q *Queue) popFront() (Message, bool) {
	if q.size == 0 {
		return Message{}, false
	}
	msg := q.buf[q.head]
	q.buf[q.head] = Message{} // release payload reference
	q.head = (q.head + 1) % len(q.buf)
	q.size--
	return msg, true
}
