package presence

import (
	"time"

	"github.com/consultease/deskunit/pkg/beacon"
	"github.com/consultease/deskunit/pkg/log"
	"github.com/consultease/deskunit/pkg/wire"
)

// Default tracker constants, matching the reference firmware tuning.
const (
	// DefaultMissThreshold is the consecutive misses before the grace
	// period starts.
	DefaultMissThreshold = 3

	// DefaultHitThreshold is the consecutive hits confirming arrival.
	DefaultHitThreshold = 2

	// DefaultGracePeriod is how long absence is withheld after misses.
	DefaultGracePeriod = 60 * time.Second

	// DefaultRSSIFloor is the weakest signal accepted as a hit, in dBm.
	DefaultRSSIFloor = -80
)

// State represents the tracker's internal layered state.
type State uint8

const (
	// StateConfirmedAway: absence is confirmed; externally AWAY.
	StateConfirmedAway State = iota

	// StateConfirmedPresent: presence is confirmed; externally PRESENT.
	StateConfirmedPresent

	// StateGracePeriod: presence is suspect but externally still PRESENT.
	StateGracePeriod
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateConfirmedAway:
		return "CONFIRMED_AWAY"
	case StateConfirmedPresent:
		return "CONFIRMED_PRESENT"
	case StateGracePeriod:
		return "GRACE_PERIOD"
	default:
		return "UNKNOWN"
	}
}

// Config holds the tracker configuration.
type Config struct {
	// MissThreshold is the consecutive misses starting the grace period.
	MissThreshold int

	// HitThreshold is the consecutive hits confirming arrival.
	HitThreshold int

	// GracePeriod is the grace window length.
	GracePeriod time.Duration

	// RSSIFloor treats hits weaker than this (dBm) as misses.
	// Zero disables the filter; executors without signal strength report
	// RSSI zero and are never filtered.
	RSSIFloor int
}

// DefaultConfig returns the default tracker configuration.
func DefaultConfig() Config {
	return Config{
		MissThreshold: DefaultMissThreshold,
		HitThreshold:  DefaultHitThreshold,
		GracePeriod:   DefaultGracePeriod,
		RSSIFloor:     DefaultRSSIFloor,
	}
}

// Tracker is the debounced presence state machine.
// It is owned and driven by a single goroutine; methods are not safe for
// concurrent use.
type Tracker struct {
	config Config
	logger log.Logger

	facultyID int

	state             State
	consecutiveHits   int
	consecutiveMisses int

	// graceStarted anchors the grace window while in StateGracePeriod.
	graceStarted time.Time

	onStatusChange func(present bool)
}

// NewTracker creates a tracker in CONFIRMED_AWAY: presence must be proven,
// not assumed, after a restart.
func NewTracker(config Config, logger log.Logger, facultyID int) *Tracker {
	return &Tracker{
		config:    config,
		logger:    log.OrNoop(logger),
		facultyID: facultyID,
		state:     StateConfirmedAway,
	}
}

// OnStatusChange sets the callback fired exactly once per externally
// visible presence flip.
func (t *Tracker) OnStatusChange(fn func(present bool)) {
	t.onStatusChange = fn
}

// State returns the internal layered state.
func (t *Tracker) State() State {
	return t.state
}

// Present returns the externally visible presence value. During the grace
// period it returns the pre-grace value (true), hiding the flapping.
func (t *Tracker) Present() bool {
	return t.state == StateConfirmedPresent || t.state == StateGracePeriod
}

// InGracePeriod reports whether the grace timer is running.
func (t *Tracker) InGracePeriod() bool {
	return t.state == StateGracePeriod
}

// GraceRemaining returns the grace time left at the given instant.
// Zero when not in the grace period.
func (t *Tracker) GraceRemaining(now time.Time) time.Duration {
	if t.state != StateGracePeriod {
		return 0
	}
	remaining := t.config.GracePeriod - now.Sub(t.graceStarted)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// StatusString returns the wire status for the current presence value.
func (t *Tracker) StatusString() string {
	if t.Present() {
		return wire.StatusAvailable
	}
	return wire.StatusAway
}

// CheckBeacon consumes one completed scan observation.
// A hit below the RSSI floor counts as a miss.
func (t *Tracker) CheckBeacon(obs beacon.Observation) {
	found := obs.Matched
	if found && t.config.RSSIFloor != 0 && obs.RSSI != 0 && obs.RSSI < t.config.RSSIFloor {
		found = false
	}

	if found {
		t.hit(obs.ObservedAt)
	} else {
		t.miss(obs.ObservedAt)
	}
}

// Tick checks the grace timer against the given instant. The orchestrator
// calls it every tick so grace expiry is not delayed until the next scan.
func (t *Tracker) Tick(now time.Time) {
	if t.state != StateGracePeriod {
		return
	}
	if now.Sub(t.graceStarted) < t.config.GracePeriod {
		return
	}

	t.state = StateConfirmedAway
	t.consecutiveHits = 0
	t.consecutiveMisses = 0

	t.logEvent(now, log.SeverityInfo, log.PresenceEvent{
		Change:  log.PresenceGraceExpired,
		Present: false,
	})
	if t.onStatusChange != nil {
		t.onStatusChange(false)
	}
}

// hit processes an accepted detection.
func (t *Tracker) hit(now time.Time) {
	t.consecutiveMisses = 0

	switch t.state {
	case StateConfirmedPresent:
		// Already present: nothing changes, nothing fires.

	case StateGracePeriod:
		// Any hit before expiry cancels the grace period silently; the
		// external value never moved, so no status change fires.
		remaining := t.GraceRemaining(now)
		t.state = StateConfirmedPresent
		t.logEvent(now, log.SeverityInfo, log.PresenceEvent{
			Change:         log.PresenceGraceCancelled,
			Present:        true,
			GraceRemaining: &remaining,
		})

	case StateConfirmedAway:
		t.consecutiveHits++
		if t.consecutiveHits < t.config.HitThreshold {
			return
		}
		// Arrival is unambiguous and not time-critical: no grace period.
		t.state = StateConfirmedPresent
		t.consecutiveHits = 0
		t.logEvent(now, log.SeverityInfo, log.PresenceEvent{
			Change:  log.PresenceArrived,
			Present: true,
		})
		if t.onStatusChange != nil {
			t.onStatusChange(true)
		}
	}
}

// miss processes a non-detection (or filtered weak detection).
func (t *Tracker) miss(now time.Time) {
	t.consecutiveHits = 0

	switch t.state {
	case StateConfirmedPresent:
		t.consecutiveMisses++
		if t.consecutiveMisses < t.config.MissThreshold {
			return
		}
		t.state = StateGracePeriod
		t.graceStarted = now
		t.consecutiveMisses = 0
		t.logEvent(now, log.SeverityInfo, log.PresenceEvent{
			Change:  log.PresenceGraceEntered,
			Present: true, // externally unchanged
		})

	case StateGracePeriod:
		// Expiry is checked by Tick; misses here carry no extra weight.
		t.Tick(now)

	case StateConfirmedAway:
		// Already away: nothing changes.
	}
}

// logEvent emits a presence event.
func (t *Tracker) logEvent(now time.Time, severity log.Severity, ev log.PresenceEvent) {
	t.logger.Log(log.Event{
		Timestamp: now,
		FacultyID: t.facultyID,
		Severity:  severity,
		Component: log.ComponentPresence,
		Presence:  &ev,
	})
}
