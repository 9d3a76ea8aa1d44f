package presence

import (
	"testing"
	"time"

	"github.com/consultease/deskunit/pkg/beacon"
)

// statusRecorder counts status-change callback firings.
type statusRecorder struct {
	changes []bool
}

func (r *statusRecorder) record(present bool) {
	r.changes = append(r.changes, present)
}

func obs(matched bool, rssi int, at time.Time) beacon.Observation {
	return beacon.Observation{Matched: matched, RSSI: rssi, ObservedAt: at}
}

// newPresentTracker returns a tracker confirmed present at the given time,
// with the recorder attached after the setup hits.
func newPresentTracker(t *testing.T, at time.Time) (*Tracker, *statusRecorder) {
	t.Helper()
	tr := NewTracker(DefaultConfig(), nil, 1)
	tr.CheckBeacon(obs(true, -50, at))
	tr.CheckBeacon(obs(true, -50, at))
	if tr.State() != StateConfirmedPresent {
		t.Fatalf("setup: state = %v, want CONFIRMED_PRESENT", tr.State())
	}

	rec := &statusRecorder{}
	tr.OnStatusChange(rec.record)
	return tr, rec
}

func TestTrackerStartsAway(t *testing.T) {
	tr := NewTracker(DefaultConfig(), nil, 1)

	if tr.Present() {
		t.Error("Present() = true at start, want false")
	}
	if tr.StatusString() != "AWAY" {
		t.Errorf("StatusString() = %q, want AWAY", tr.StatusString())
	}
}

func TestTrackerArrivalNeedsConsecutiveHits(t *testing.T) {
	tr := NewTracker(DefaultConfig(), nil, 1)
	rec := &statusRecorder{}
	tr.OnStatusChange(rec.record)

	now := time.Now()

	tr.CheckBeacon(obs(true, -50, now))
	if tr.Present() {
		t.Error("Present() = true after 1 hit, want false")
	}

	// A miss resets the hit run.
	tr.CheckBeacon(obs(false, 0, now))
	tr.CheckBeacon(obs(true, -50, now))
	if tr.Present() {
		t.Error("Present() = true after miss+hit, want false")
	}

	tr.CheckBeacon(obs(true, -50, now))
	if !tr.Present() {
		t.Error("Present() = false after 2 consecutive hits, want true")
	}
	if tr.StatusString() != "AVAILABLE" {
		t.Errorf("StatusString() = %q, want AVAILABLE", tr.StatusString())
	}
	if len(rec.changes) != 1 || rec.changes[0] != true {
		t.Errorf("status changes = %v, want exactly [true]", rec.changes)
	}
}

func TestTrackerHitsWhilePresentAreIdempotent(t *testing.T) {
	now := time.Now()
	tr, rec := newPresentTracker(t, now)

	for i := 0; i < 10; i++ {
		tr.CheckBeacon(obs(true, -50, now))
	}

	if len(rec.changes) != 0 {
		t.Errorf("status changes = %v, want none", rec.changes)
	}
	if tr.State() != StateConfirmedPresent {
		t.Errorf("state = %v, want CONFIRMED_PRESENT", tr.State())
	}
}

func TestTrackerGraceAbsorption(t *testing.T) {
	now := time.Now()
	tr, rec := newPresentTracker(t, now)

	// Three misses start the grace period; presence must not move.
	for i := 0; i < 3; i++ {
		now = now.Add(2 * time.Second)
		tr.CheckBeacon(obs(false, 0, now))
		if !tr.Present() {
			t.Fatalf("Present() = false after %d misses, want true", i+1)
		}
	}
	if !tr.InGracePeriod() {
		t.Fatal("InGracePeriod() = false after 3 misses, want true")
	}

	// A hit before expiry cancels the grace period silently.
	now = now.Add(5 * time.Second)
	tr.CheckBeacon(obs(true, -60, now))

	if tr.InGracePeriod() {
		t.Error("InGracePeriod() = true after hit, want false")
	}
	if !tr.Present() {
		t.Error("Present() = false after grace cancelled, want true")
	}
	if len(rec.changes) != 0 {
		t.Errorf("status changes = %v, want none (grace absorbed the dropout)", rec.changes)
	}
}

func TestTrackerGraceExpiry(t *testing.T) {
	now := time.Now()
	tr, rec := newPresentTracker(t, now)

	for i := 0; i < 3; i++ {
		tr.CheckBeacon(obs(false, 0, now))
	}
	if !tr.InGracePeriod() {
		t.Fatal("setup: not in grace period")
	}

	// Just before expiry nothing happens.
	tr.Tick(now.Add(DefaultGracePeriod - time.Second))
	if !tr.Present() {
		t.Fatal("Present() = false before grace expiry, want true")
	}
	if len(rec.changes) != 0 {
		t.Fatalf("status changed before expiry: %v", rec.changes)
	}

	// Expiry flips to away exactly once.
	tr.Tick(now.Add(DefaultGracePeriod + time.Second))
	if tr.Present() {
		t.Error("Present() = true after grace expiry, want false")
	}
	if len(rec.changes) != 1 || rec.changes[0] != false {
		t.Errorf("status changes = %v, want exactly [false]", rec.changes)
	}

	// Further ticks and misses fire nothing.
	tr.Tick(now.Add(DefaultGracePeriod + 2*time.Second))
	tr.CheckBeacon(obs(false, 0, now.Add(DefaultGracePeriod+3*time.Second)))
	if len(rec.changes) != 1 {
		t.Errorf("status changes = %v, want exactly one", rec.changes)
	}
}

func TestTrackerGraceRemaining(t *testing.T) {
	now := time.Now()
	tr, _ := newPresentTracker(t, now)

	if tr.GraceRemaining(now) != 0 {
		t.Error("GraceRemaining != 0 outside grace period")
	}

	for i := 0; i < 3; i++ {
		tr.CheckBeacon(obs(false, 0, now))
	}

	remaining := tr.GraceRemaining(now.Add(20 * time.Second))
	if remaining != 40*time.Second {
		t.Errorf("GraceRemaining = %v, want 40s", remaining)
	}
	if tr.GraceRemaining(now.Add(2*DefaultGracePeriod)) != 0 {
		t.Error("GraceRemaining went negative")
	}
}

func TestTrackerRSSIFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RSSIFloor = -80
	tr := NewTracker(cfg, nil, 1)

	now := time.Now()

	// Weak corridor detections never confirm arrival.
	for i := 0; i < 5; i++ {
		tr.CheckBeacon(obs(true, -90, now))
	}
	if tr.Present() {
		t.Error("Present() = true from below-floor hits, want false")
	}

	// Strong detections do.
	tr.CheckBeacon(obs(true, -60, now))
	tr.CheckBeacon(obs(true, -60, now))
	if !tr.Present() {
		t.Error("Present() = false from above-floor hits, want true")
	}

	// RSSI zero means "unknown" (mDNS executor) and passes the filter.
	tr2 := NewTracker(cfg, nil, 1)
	tr2.CheckBeacon(obs(true, 0, now))
	tr2.CheckBeacon(obs(true, 0, now))
	if !tr2.Present() {
		t.Error("Present() = false for unknown-RSSI hits, want true")
	}
}

func TestTrackerFullDepartureArrivalCycle(t *testing.T) {
	now := time.Now()
	tr, rec := newPresentTracker(t, now)

	// Depart: 3 misses, grace expiry.
	for i := 0; i < 3; i++ {
		tr.CheckBeacon(obs(false, 0, now))
	}
	tr.Tick(now.Add(DefaultGracePeriod + time.Second))

	// Return: 2 hits.
	later := now.Add(DefaultGracePeriod + 10*time.Second)
	tr.CheckBeacon(obs(true, -50, later))
	tr.CheckBeacon(obs(true, -50, later))

	want := []bool{false, true}
	if len(rec.changes) != len(want) {
		t.Fatalf("status changes = %v, want %v", rec.changes, want)
	}
	for i := range want {
		if rec.changes[i] != want[i] {
			t.Errorf("status change %d = %v, want %v", i, rec.changes[i], want[i])
		}
	}
}
