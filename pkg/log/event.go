package log

import (
	"time"
)

// Event represents a unit log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// FacultyID identifies the unit that produced the event.
	FacultyID int `cbor:"2,keyasint"`

	// Severity classifies how serious the event is.
	Severity Severity `cbor:"3,keyasint"`

	// Component is the subsystem that produced the event.
	Component Component `cbor:"4,keyasint"`

	// Type-specific payload (one of these will be set).
	Scan      *ScanEvent       `cbor:"5,keyasint,omitempty"`  // Single scan result
	Mode      *ModeChangeEvent `cbor:"6,keyasint,omitempty"`  // Scan cadence mode change
	Presence  *PresenceEvent   `cbor:"7,keyasint,omitempty"`  // Presence/grace transition
	Queue     *QueueEvent      `cbor:"8,keyasint,omitempty"`  // Delivery queue mutation
	Publish   *PublishEvent    `cbor:"9,keyasint,omitempty"`  // Publish attempt outcome
	Transport *TransportEvent  `cbor:"10,keyasint,omitempty"` // Broker connectivity
	Stats     *StatsEvent      `cbor:"11,keyasint,omitempty"` // Periodic scan statistics
	Error     *ErrorEventData  `cbor:"12,keyasint,omitempty"` // Errors at any layer
}

// Severity classifies the seriousness of an event.
type Severity uint8

const (
	// SeverityDebug is routine detail (per-scan results).
	SeverityDebug Severity = 0
	// SeverityInfo is a notable but expected event (mode change, arrival).
	SeverityInfo Severity = 1
	// SeverityWarn is bounded, intentional degradation (queue eviction).
	SeverityWarn Severity = 2
	// SeverityError is unexpected loss or misconfiguration (retry exhaustion).
	SeverityError Severity = 3
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarn:
		return "WARN"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Component identifies the subsystem that produced an event.
type Component uint8

const (
	// ComponentScan is the adaptive scan scheduler.
	ComponentScan Component = 0
	// ComponentPresence is the presence tracker.
	ComponentPresence Component = 1
	// ComponentQueue is the delivery queue.
	ComponentQueue Component = 2
	// ComponentPublish is the reliable publisher.
	ComponentPublish Component = 3
	// ComponentTransport is the broker transport.
	ComponentTransport Component = 4
	// ComponentUnit is the orchestrator.
	ComponentUnit Component = 5
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentScan:
		return "SCAN"
	case ComponentPresence:
		return "PRESENCE"
	case ComponentQueue:
		return "QUEUE"
	case ComponentPublish:
		return "PUBLISH"
	case ComponentTransport:
		return "TRANSPORT"
	case ComponentUnit:
		return "UNIT"
	default:
		return "UNKNOWN"
	}
}

// ScanEvent captures the result of a single beacon scan.
type ScanEvent struct {
	// Mode is the cadence mode the scan ran under.
	Mode string `cbor:"1,keyasint"`

	// Matched indicates whether the target beacon was observed.
	Matched bool `cbor:"2,keyasint"`

	// RSSI is the observed signal strength in dBm (0 if not matched).
	RSSI int `cbor:"3,keyasint,omitempty"`

	// Duration is how long the scan ran.
	Duration time.Duration `cbor:"4,keyasint"`

	// Failed indicates the radio returned an error (treated as a miss).
	Failed bool `cbor:"5,keyasint,omitempty"`
}

// ModeChangeEvent captures a scan cadence mode transition.
type ModeChangeEvent struct {
	// OldMode is the previous cadence mode.
	OldMode string `cbor:"1,keyasint"`

	// NewMode is the new cadence mode.
	NewMode string `cbor:"2,keyasint"`

	// Reason describes what triggered the transition.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// PresenceChange identifies the kind of presence transition.
type PresenceChange uint8

const (
	// PresenceGraceEntered indicates consecutive misses started the grace timer.
	PresenceGraceEntered PresenceChange = 0
	// PresenceGraceCancelled indicates a hit arrived before grace expiry.
	PresenceGraceCancelled PresenceChange = 1
	// PresenceGraceExpired indicates the grace timer expired (now away).
	PresenceGraceExpired PresenceChange = 2
	// PresenceArrived indicates consecutive hits confirmed arrival.
	PresenceArrived PresenceChange = 3
)

// String returns the presence change name.
func (p PresenceChange) String() string {
	switch p {
	case PresenceGraceEntered:
		return "GRACE_ENTERED"
	case PresenceGraceCancelled:
		return "GRACE_CANCELLED"
	case PresenceGraceExpired:
		return "GRACE_EXPIRED"
	case PresenceArrived:
		return "ARRIVED"
	default:
		return "UNKNOWN"
	}
}

// PresenceEvent captures a presence or grace-period transition.
type PresenceEvent struct {
	// Change is the kind of transition.
	Change PresenceChange `cbor:"1,keyasint"`

	// Present is the externally visible presence value after the transition.
	Present bool `cbor:"2,keyasint"`

	// GraceRemaining is the grace time left when the transition happened
	// (grace-cancelled events only). Stored as nanoseconds.
	GraceRemaining *time.Duration `cbor:"3,keyasint,omitempty"`
}

// QueueOp identifies a delivery queue mutation.
type QueueOp uint8

const (
	// QueueEnqueued indicates a message was added to the queue.
	QueueEnqueued QueueOp = 0
	// QueueEvicted indicates the oldest message was dropped to admit a newer one.
	QueueEvicted QueueOp = 1
	// QueueDelivered indicates the head message was published and popped.
	QueueDelivered QueueOp = 2
	// QueueRetryExhausted indicates a message was dropped after too many failures.
	QueueRetryExhausted QueueOp = 3
	// QueueRestored indicates messages were restored from a snapshot at startup.
	QueueRestored QueueOp = 4
)

// String returns the queue operation name.
func (q QueueOp) String() string {
	switch q {
	case QueueEnqueued:
		return "ENQUEUED"
	case QueueEvicted:
		return "EVICTED"
	case QueueDelivered:
		return "DELIVERED"
	case QueueRetryExhausted:
		return "RETRY_EXHAUSTED"
	case QueueRestored:
		return "RESTORED"
	default:
		return "UNKNOWN"
	}
}

// QueueEvent captures a delivery queue mutation.
type QueueEvent struct {
	// Op is the mutation kind.
	Op QueueOp `cbor:"1,keyasint"`

	// MessageID identifies the affected message.
	MessageID string `cbor:"2,keyasint,omitempty"`

	// Topic is the destination topic of the affected message.
	Topic string `cbor:"3,keyasint,omitempty"`

	// Size is the queue size after the mutation.
	Size int `cbor:"4,keyasint"`

	// RetryCount is the message's retry count (retry exhaustion only).
	RetryCount int `cbor:"5,keyasint,omitempty"`
}

// PublishEvent captures a publish attempt.
type PublishEvent struct {
	// Topic is the destination topic.
	Topic string `cbor:"1,keyasint"`

	// Bytes is the payload size.
	Bytes int `cbor:"2,keyasint"`

	// Attempt is the 1-based attempt number for this message.
	Attempt int `cbor:"3,keyasint"`

	// Outcome describes the result ("sent", "queued", "failed", "rejected").
	Outcome string `cbor:"4,keyasint"`

	// Response indicates the message carries a faculty response.
	Response bool `cbor:"5,keyasint,omitempty"`

	// Retained indicates the message was published retained.
	Retained bool `cbor:"6,keyasint,omitempty"`
}

// TransportEvent captures broker connectivity changes.
type TransportEvent struct {
	// Connected is the new connectivity state.
	Connected bool `cbor:"1,keyasint"`

	// Broker is the broker address.
	Broker string `cbor:"2,keyasint,omitempty"`

	// Reason describes the cause of a disconnect (if known).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// StatsEvent captures periodic scan statistics.
type StatsEvent struct {
	// Scans is the total number of scans performed.
	Scans uint64 `cbor:"1,keyasint"`

	// Hits is the number of scans that observed the beacon.
	Hits uint64 `cbor:"2,keyasint"`

	// Misses is the number of scans that did not.
	Misses uint64 `cbor:"3,keyasint"`

	// ModeChanges is the number of cadence mode transitions.
	ModeChanges uint64 `cbor:"4,keyasint"`

	// Mode is the cadence mode at report time.
	Mode string `cbor:"5,keyasint"`

	// Present is the externally visible presence at report time.
	Present bool `cbor:"6,keyasint"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
