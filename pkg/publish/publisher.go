package publish

import (
	"time"

	"github.com/google/uuid"

	"github.com/consultease/deskunit/pkg/log"
	"github.com/consultease/deskunit/pkg/queue"
)

// Default delivery constants, tuned against the reference broker.
// All of them are configuration, not invariants.
const (
	// DefaultMaxPayloadSize is the largest payload the transport accepts.
	DefaultMaxPayloadSize = 1024

	// DefaultImmediateAttempts is how many immediate sends are tried
	// before degrading to the queue.
	DefaultImmediateAttempts = 2

	// DefaultAttemptDelay is the pause between immediate attempts; the
	// link may spuriously fail and recover within it.
	DefaultAttemptDelay = 500 * time.Millisecond

	// DefaultMaxRetries is the drain failure bound per queued message.
	DefaultMaxRetries = 3

	// DefaultResponseSettle is the post-publish window for responses.
	DefaultResponseSettle = 100 * time.Millisecond

	// DefaultStatusSettle is the post-publish window for status/heartbeat.
	DefaultStatusSettle = 10 * time.Millisecond
)

// Class identifies the delivery semantics of a message.
type Class uint8

const (
	// ClassStatus is a best-effort status message, published retained.
	ClassStatus Class = iota

	// ClassResponse is an at-least-once faculty response, never retained.
	ClassResponse

	// ClassHeartbeat is a best-effort liveness message, not retained.
	ClassHeartbeat
)

// String returns the class name.
func (c Class) String() string {
	switch c {
	case ClassStatus:
		return "STATUS"
	case ClassResponse:
		return "RESPONSE"
	case ClassHeartbeat:
		return "HEARTBEAT"
	default:
		return "UNKNOWN"
	}
}

// retained reports whether this class is published with the retain flag.
func (c Class) retained() bool {
	return c == ClassStatus
}

// Outcome is the coarse result surfaced to the caller. Faculty only ever
// see "sent" vs "queued"; the retry machinery stays invisible.
type Outcome uint8

const (
	// OutcomeSent means the broker accepted the message synchronously.
	OutcomeSent Outcome = iota

	// OutcomeQueued means the message is held for later delivery.
	OutcomeQueued

	// OutcomeRejected means the message can never be delivered
	// (payload too large) and was dropped without queueing.
	OutcomeRejected
)

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeQueued:
		return "queued"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Config holds the publisher configuration.
type Config struct {
	// MaxPayloadSize is the largest payload accepted for publishing.
	MaxPayloadSize int

	// ImmediateAttempts bounds the synchronous attempts in PublishReliable.
	ImmediateAttempts int

	// AttemptDelay is the pause between immediate attempts.
	AttemptDelay time.Duration

	// MaxRetries is the drain failure bound per queued message.
	MaxRetries int

	// ResponseSettle is the post-publish window for response messages.
	ResponseSettle time.Duration

	// StatusSettle is the post-publish window for status/heartbeat messages.
	StatusSettle time.Duration
}

// DefaultConfig returns the default publisher configuration.
func DefaultConfig() Config {
	return Config{
		MaxPayloadSize:    DefaultMaxPayloadSize,
		ImmediateAttempts: DefaultImmediateAttempts,
		AttemptDelay:      DefaultAttemptDelay,
		MaxRetries:        DefaultMaxRetries,
		ResponseSettle:    DefaultResponseSettle,
		StatusSettle:      DefaultStatusSettle,
	}
}

// Publisher implements reliable delivery on top of a Transport and the
// bounded offline queue. It is owned and driven by a single goroutine;
// methods are not safe for concurrent use.
type Publisher struct {
	config    Config
	transport Transport
	queue     *queue.Queue
	store     *queue.Store // optional snapshot persistence
	logger    log.Logger

	facultyID int

	// sleep is replaceable in tests to keep them instantaneous.
	sleep func(time.Duration)
}

// NewPublisher creates a publisher draining into the given queue.
// store may be nil to disable snapshot persistence.
func NewPublisher(config Config, transport Transport, q *queue.Queue, store *queue.Store, logger log.Logger, facultyID int) *Publisher {
	if config.MaxPayloadSize <= 0 {
		config.MaxPayloadSize = DefaultMaxPayloadSize
	}
	if config.ImmediateAttempts <= 0 {
		config.ImmediateAttempts = DefaultImmediateAttempts
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = DefaultMaxRetries
	}

	return &Publisher{
		config:    config,
		transport: transport,
		queue:     q,
		store:     store,
		logger:    log.OrNoop(logger),
		facultyID: facultyID,
		sleep:     time.Sleep,
	}
}

// QueueLen returns the pending delivery backlog.
func (p *Publisher) QueueLen() int {
	return p.queue.Len()
}

// RestoreQueue loads a previously saved queue snapshot, if any.
func (p *Publisher) RestoreQueue() error {
	if p.store == nil {
		return nil
	}
	n, err := p.store.Load(p.queue)
	if err != nil {
		return err
	}
	if n > 0 {
		p.logQueue(log.SeverityInfo, log.QueueEvent{
			Op:   log.QueueRestored,
			Size: p.queue.Len(),
		})
	}
	return nil
}

// PublishReliable attempts an immediate send and degrades to the queue on
// failure. It returns synchronously with the coarse outcome.
func (p *Publisher) PublishReliable(topic string, payload []byte, class Class) Outcome {
	if len(payload) > p.config.MaxPayloadSize {
		// A configuration/programming error: retrying cannot shrink it.
		p.logger.Log(log.Event{
			Timestamp: time.Now(),
			FacultyID: p.facultyID,
			Severity:  log.SeverityError,
			Component: log.ComponentPublish,
			Error: &log.ErrorEventData{
				Message: "payload exceeds transport maximum",
				Context: topic,
			},
		})
		return OutcomeRejected
	}

	if p.transport.Connected() {
		for attempt := 1; attempt <= p.config.ImmediateAttempts; attempt++ {
			err := p.transport.Publish(topic, payload, class.retained())
			p.logAttempt(topic, payload, attempt, err, class)
			if err == nil {
				return OutcomeSent
			}
			if attempt < p.config.ImmediateAttempts {
				p.sleep(p.config.AttemptDelay)
			}
		}
	}

	p.enqueue(topic, payload, class)
	return OutcomeQueued
}

// DrainQueue attempts exactly the head-of-queue message. It runs once per
// orchestrator tick and only while connectivity is established.
// It reports whether a message was delivered.
func (p *Publisher) DrainQueue(now time.Time) bool {
	if !p.transport.Connected() {
		return false
	}
	head, ok := p.queue.Peek()
	if !ok {
		return false
	}

	err := p.transport.Publish(head.Topic, head.Payload, head.Retained)
	p.logAttempt(head.Topic, head.Payload, head.RetryCount+1, err, classOf(head))

	if err == nil {
		p.settle(head)
		p.queue.Pop()
		p.logQueue(log.SeverityDebug, log.QueueEvent{
			Op:        log.QueueDelivered,
			MessageID: head.ID,
			Topic:     head.Topic,
			Size:      p.queue.Len(),
		})
		p.saveSnapshot()
		return true
	}

	retries := p.queue.BumpHeadRetry()
	if retries >= p.config.MaxRetries {
		// A stale message must not block fresher ones behind it.
		dropped, _ := p.queue.Pop()
		p.logQueue(log.SeverityError, log.QueueEvent{
			Op:         log.QueueRetryExhausted,
			MessageID:  dropped.ID,
			Topic:      dropped.Topic,
			Size:       p.queue.Len(),
			RetryCount: dropped.RetryCount,
		})
	}
	p.saveSnapshot()
	return false
}

// enqueue hands a message to the offline queue.
func (p *Publisher) enqueue(topic string, payload []byte, class Class) {
	msg := queue.Message{
		ID:         uuid.NewString(),
		Topic:      topic,
		Payload:    payload,
		IsResponse: class == ClassResponse,
		Retained:   class.retained(),
		EnqueuedAt: time.Now(),
	}

	evicted, didEvict := p.queue.Push(msg)
	if didEvict {
		// Bounded, intentional loss: the newest message outranks the oldest.
		p.logQueue(log.SeverityWarn, log.QueueEvent{
			Op:        log.QueueEvicted,
			MessageID: evicted.ID,
			Topic:     evicted.Topic,
			Size:      p.queue.Len(),
		})
	}
	p.logQueue(log.SeverityInfo, log.QueueEvent{
		Op:        log.QueueEnqueued,
		MessageID: msg.ID,
		Topic:     msg.Topic,
		Size:      p.queue.Len(),
	})
	p.saveSnapshot()
}

// settle waits the class-dependent post-publish window.
func (p *Publisher) settle(msg queue.Message) {
	if msg.IsResponse {
		p.sleep(p.config.ResponseSettle)
	} else {
		p.sleep(p.config.StatusSettle)
	}
}

// saveSnapshot persists the queue if a store is configured.
func (p *Publisher) saveSnapshot() {
	if p.store == nil {
		return
	}
	if err := p.store.Save(p.queue); err != nil {
		p.logger.Log(log.Event{
			Timestamp: time.Now(),
			FacultyID: p.facultyID,
			Severity:  log.SeverityWarn,
			Component: log.ComponentQueue,
			Error: &log.ErrorEventData{
				Message: err.Error(),
				Context: "queue snapshot save",
			},
		})
	}
}

// logAttempt emits a publish-attempt event.
func (p *Publisher) logAttempt(topic string, payload []byte, attempt int, err error, class Class) {
	outcome := "sent"
	severity := log.SeverityDebug
	if err != nil {
		outcome = "failed"
	}
	p.logger.Log(log.Event{
		Timestamp: time.Now(),
		FacultyID: p.facultyID,
		Severity:  severity,
		Component: log.ComponentPublish,
		Publish: &log.PublishEvent{
			Topic:    topic,
			Bytes:    len(payload),
			Attempt:  attempt,
			Outcome:  outcome,
			Response: class == ClassResponse,
			Retained: class.retained(),
		},
	})
}

// logQueue emits a queue mutation event.
func (p *Publisher) logQueue(severity log.Severity, ev log.QueueEvent) {
	p.logger.Log(log.Event{
		Timestamp: time.Now(),
		FacultyID: p.facultyID,
		Severity:  severity,
		Component: log.ComponentQueue,
		Queue:     &ev,
	})
}

// classOf recovers the delivery class of a queued message.
func classOf(msg queue.Message) Class {
	if msg.IsResponse {
		return ClassResponse
	}
	if msg.Retained {
		return ClassStatus
	}
	return ClassHeartbeat
}
