package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/consultease/deskunit/pkg/beacon"
)

// testConfig returns a cadence with distinct, easily advanced intervals.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.StatsInterval = 0
	return cfg
}

// stepUntilDue advances now past the scheduler's active interval and calls
// Update, asserting that a scan actually ran.
func stepUntilDue(t *testing.T, s *Scheduler, now *time.Time, inGrace bool) beacon.Observation {
	t.Helper()
	for i := 0; i < 20; i++ {
		obs, scanned := s.Update(context.Background(), *now, inGrace, false)
		if scanned {
			return obs
		}
		*now = now.Add(500 * time.Millisecond)
	}
	t.Fatal("scheduler never became due")
	return beacon.Observation{}
}

func TestSchedulerScansImmediatelyOnFirstUpdate(t *testing.T) {
	exec := beacon.NewScriptedExecutor(beacon.Step{Matched: false})
	s := NewScheduler(testConfig(), exec, nil, 1)

	_, scanned := s.Update(context.Background(), time.Now(), false, false)
	if !scanned {
		t.Error("first Update did not scan")
	}
	if exec.Calls() != 1 {
		t.Errorf("executor calls = %d, want 1", exec.Calls())
	}
}

func TestSchedulerNoOpUntilDue(t *testing.T) {
	exec := beacon.NewScriptedExecutor(beacon.Step{Matched: false})
	s := NewScheduler(testConfig(), exec, nil, 1)

	now := time.Now()
	s.Update(context.Background(), now, false, false)

	// Within the SEARCHING interval nothing should happen.
	_, scanned := s.Update(context.Background(), now.Add(time.Second), false, false)
	if scanned {
		t.Error("Update scanned before the cadence was due")
	}

	_, scanned = s.Update(context.Background(), now.Add(2*time.Second), false, false)
	if !scanned {
		t.Error("Update did not scan once the cadence was due")
	}
}

func TestSchedulerSearchingToMonitoringOnArrival(t *testing.T) {
	// Beacon present from the start: hit, hit promotes SEARCHING->VERIFYING,
	// then the dwell's hit majority promotes VERIFYING->MONITORING.
	exec := beacon.NewScriptedExecutor(beacon.Step{Matched: true, RSSI: -55})
	s := NewScheduler(testConfig(), exec, nil, 1)

	now := time.Now()
	stepUntilDue(t, s, &now, false)
	if s.Mode() != ModeSearching {
		t.Fatalf("after 1 hit: mode = %v, want SEARCHING", s.Mode())
	}

	stepUntilDue(t, s, &now, false)
	if s.Mode() != ModeVerifying {
		t.Fatalf("after 2 hits: mode = %v, want VERIFYING", s.Mode())
	}

	// Keep hitting through the verify dwell.
	for i := 0; i < 10 && s.Mode() == ModeVerifying; i++ {
		stepUntilDue(t, s, &now, false)
	}
	if s.Mode() != ModeMonitoring {
		t.Errorf("after dwell with hits: mode = %v, want MONITORING", s.Mode())
	}
}

func TestSchedulerMonitoringToSearchingOnDeparture(t *testing.T) {
	exec := beacon.NewScriptedExecutor(beacon.Step{Matched: true})
	s := NewScheduler(testConfig(), exec, nil, 1)

	now := time.Now()
	for i := 0; i < 12 && s.Mode() != ModeMonitoring; i++ {
		stepUntilDue(t, s, &now, false)
	}
	if s.Mode() != ModeMonitoring {
		t.Fatalf("setup failed: mode = %v, want MONITORING", s.Mode())
	}

	// Beacon disappears.
	exec.Set(beacon.Step{Matched: false})

	stepUntilDue(t, s, &now, false)
	if s.Mode() != ModeMonitoring {
		t.Fatalf("after 1 miss: mode = %v, want MONITORING (no instant demotion)", s.Mode())
	}

	stepUntilDue(t, s, &now, false)
	if s.Mode() != ModeVerifying {
		t.Fatalf("after 2 misses: mode = %v, want VERIFYING", s.Mode())
	}

	for i := 0; i < 10 && s.Mode() == ModeVerifying; i++ {
		stepUntilDue(t, s, &now, false)
	}
	if s.Mode() != ModeSearching {
		t.Errorf("after dwell with misses: mode = %v, want SEARCHING", s.Mode())
	}
}

func TestSchedulerGraceOverridesCadence(t *testing.T) {
	cfg := testConfig()
	exec := beacon.NewScriptedExecutor(beacon.Step{Matched: true})
	s := NewScheduler(cfg, exec, nil, 1)

	now := time.Now()
	for i := 0; i < 12 && s.Mode() != ModeMonitoring; i++ {
		stepUntilDue(t, s, &now, false)
	}
	if s.Mode() != ModeMonitoring {
		t.Fatalf("setup failed: mode = %v, want MONITORING", s.Mode())
	}
	calls := exec.Calls()

	// MONITORING interval is 8s, the reconnect override 5s: at +5s a scan
	// must run only because the grace override is active.
	now = now.Add(cfg.ReconnectInterval)
	_, scanned := s.Update(context.Background(), now, true, true)
	if !scanned {
		t.Error("grace override did not make the scan due")
	}
	if exec.Calls() != calls+1 {
		t.Errorf("executor calls = %d, want %d", exec.Calls(), calls+1)
	}
}

func TestSchedulerRadioErrorIsAMiss(t *testing.T) {
	exec := beacon.NewScriptedExecutor(beacon.Step{Err: errors.New("hci reset")})
	s := NewScheduler(testConfig(), exec, nil, 1)

	now := time.Now()
	obs := stepUntilDue(t, s, &now, false)
	if obs.Matched {
		t.Error("radio error produced a matched observation")
	}

	stats := s.Stats()
	if stats.Failures != 1 {
		t.Errorf("Failures = %d, want 1", stats.Failures)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
}

func TestSchedulerStatsAccumulate(t *testing.T) {
	exec := beacon.NewScriptedExecutor(
		beacon.Step{Matched: true},
		beacon.Step{Matched: false},
	)
	s := NewScheduler(testConfig(), exec, nil, 1)

	now := time.Now()
	stepUntilDue(t, s, &now, false)
	stepUntilDue(t, s, &now, false)

	stats := s.Stats()
	if stats.Scans != 2 || stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 2 scans, 1 hit, 1 miss", stats)
	}
}
