package scan

import (
	"context"
	"time"

	"github.com/consultease/deskunit/pkg/beacon"
	"github.com/consultease/deskunit/pkg/log"
)

// Default cadence constants, tuned for the ESP32 reference hardware against
// a consumer BLE tag. All of them are configuration, not invariants.
const (
	// DefaultSearchInterval is how often to scan while away.
	DefaultSearchInterval = 2 * time.Second

	// DefaultSearchDuration is the scan length while away.
	DefaultSearchDuration = 3 * time.Second

	// DefaultVerifyInterval is the fixed interval during verification.
	DefaultVerifyInterval = 1 * time.Second

	// DefaultVerifyDuration is the scan length during verification.
	DefaultVerifyDuration = 1 * time.Second

	// DefaultMonitorInterval is how often to scan while present.
	DefaultMonitorInterval = 8 * time.Second

	// DefaultMonitorDuration is the scan length while present.
	DefaultMonitorDuration = 1 * time.Second

	// DefaultVerifyDwell is the minimum time spent in VERIFYING before
	// the hit/miss majority resolves it.
	DefaultVerifyDwell = 6 * time.Second

	// DefaultReconnectInterval overrides the cadence during a presence
	// grace period.
	DefaultReconnectInterval = 5 * time.Second

	// DefaultHitThreshold is the consecutive hits needed to leave SEARCHING.
	DefaultHitThreshold = 2

	// DefaultMissThreshold is the consecutive misses needed to leave MONITORING.
	DefaultMissThreshold = 2

	// DefaultStatsInterval is how often scan statistics are reported.
	DefaultStatsInterval = 60 * time.Second
)

// Config holds the scheduler cadence configuration.
type Config struct {
	// SearchInterval/SearchDuration are the SEARCHING cadence.
	SearchInterval time.Duration
	SearchDuration time.Duration

	// VerifyInterval/VerifyDuration are the VERIFYING cadence.
	VerifyInterval time.Duration
	VerifyDuration time.Duration

	// MonitorInterval/MonitorDuration are the MONITORING cadence.
	MonitorInterval time.Duration
	MonitorDuration time.Duration

	// VerifyDwell is the minimum dwell time in VERIFYING.
	VerifyDwell time.Duration

	// ReconnectInterval is the fixed cadence during a grace period.
	ReconnectInterval time.Duration

	// HitThreshold is the consecutive hits to promote SEARCHING to VERIFYING.
	HitThreshold int

	// MissThreshold is the consecutive misses to demote MONITORING to VERIFYING.
	MissThreshold int

	// StatsInterval is how often a statistics event is emitted.
	// Zero disables reporting.
	StatsInterval time.Duration
}

// DefaultConfig returns the default scheduler configuration.
func DefaultConfig() Config {
	return Config{
		SearchInterval:    DefaultSearchInterval,
		SearchDuration:    DefaultSearchDuration,
		VerifyInterval:    DefaultVerifyInterval,
		VerifyDuration:    DefaultVerifyDuration,
		MonitorInterval:   DefaultMonitorInterval,
		MonitorDuration:   DefaultMonitorDuration,
		VerifyDwell:       DefaultVerifyDwell,
		ReconnectInterval: DefaultReconnectInterval,
		HitThreshold:      DefaultHitThreshold,
		MissThreshold:     DefaultMissThreshold,
		StatsInterval:     DefaultStatsInterval,
	}
}

// Interval returns the scan interval for a mode.
func (c Config) Interval(m Mode) time.Duration {
	switch m {
	case ModeVerifying:
		return c.VerifyInterval
	case ModeMonitoring:
		return c.MonitorInterval
	default:
		return c.SearchInterval
	}
}

// ScanDuration returns the scan duration for a mode.
func (c Config) ScanDuration(m Mode) time.Duration {
	switch m {
	case ModeVerifying:
		return c.VerifyDuration
	case ModeMonitoring:
		return c.MonitorDuration
	default:
		return c.SearchDuration
	}
}

// Stats holds cumulative scan statistics.
type Stats struct {
	// Scans is the total number of scans performed.
	Scans uint64

	// Hits is the number of scans that observed the beacon.
	Hits uint64

	// Misses is the number of scans that did not.
	Misses uint64

	// Failures is the number of scans where the radio returned an error.
	Failures uint64

	// ModeChanges is the number of cadence mode transitions.
	ModeChanges uint64
}

// Scheduler is the 3-mode adaptive scan cadence controller.
// It is owned and driven by a single goroutine; methods are not safe for
// concurrent use.
type Scheduler struct {
	config   Config
	executor beacon.Executor
	logger   log.Logger

	facultyID int

	mode     Mode
	lastScan time.Time

	consecutiveHits   int
	consecutiveMisses int

	// VERIFYING dwell bookkeeping
	verifyStarted time.Time
	verifyHits    int
	verifyMisses  int

	stats           Stats
	lastStatsReport time.Time
}

// NewScheduler creates a scheduler in SEARCHING mode.
func NewScheduler(config Config, executor beacon.Executor, logger log.Logger, facultyID int) *Scheduler {
	return &Scheduler{
		config:    config,
		executor:  executor,
		logger:    log.OrNoop(logger),
		facultyID: facultyID,
		mode:      ModeSearching,
	}
}

// Mode returns the active cadence mode.
func (s *Scheduler) Mode() Mode {
	return s.mode
}

// Stats returns a copy of the cumulative scan statistics.
func (s *Scheduler) Stats() Stats {
	return s.stats
}

// Update runs once per orchestrator tick. It is a no-op unless the active
// cadence (or the grace-period reconnect override) makes a scan due. When
// due it runs exactly one bounded scan, updates the cadence state machine,
// and returns the observation for the presence tracker.
//
// inGrace and present are the tracker's current externally visible state;
// inGrace switches the cadence to the fixed reconnect interval and present
// feeds the periodic statistics report.
func (s *Scheduler) Update(ctx context.Context, now time.Time, inGrace, present bool) (beacon.Observation, bool) {
	interval := s.config.Interval(s.mode)
	if inGrace {
		interval = s.config.ReconnectInterval
	}

	if !s.lastScan.IsZero() && now.Sub(s.lastScan) < interval {
		s.maybeReportStats(now, present)
		return beacon.Observation{}, false
	}

	duration := s.config.ScanDuration(s.mode)
	obs, err := s.executor.Scan(ctx, duration)
	s.lastScan = now

	// Downstream components share the loop clock; the executor's own
	// stamp is discarded.
	obs.ObservedAt = now

	s.stats.Scans++
	if err != nil {
		// Transient radio failure: a miss for this tick, debug only.
		s.stats.Failures++
		obs.Matched = false
	}
	if obs.Matched {
		s.stats.Hits++
	} else {
		s.stats.Misses++
	}

	s.logger.Log(log.Event{
		Timestamp: now,
		FacultyID: s.facultyID,
		Severity:  log.SeverityDebug,
		Component: log.ComponentScan,
		Scan: &log.ScanEvent{
			Mode:     s.mode.String(),
			Matched:  obs.Matched,
			RSSI:     obs.RSSI,
			Duration: duration,
			Failed:   err != nil,
		},
	})

	s.observe(now, obs.Matched)
	s.maybeReportStats(now, present)

	return obs, true
}

// observe feeds one scan result into the cadence state machine.
func (s *Scheduler) observe(now time.Time, matched bool) {
	if matched {
		s.consecutiveHits++
		s.consecutiveMisses = 0
	} else {
		s.consecutiveMisses++
		s.consecutiveHits = 0
	}

	switch s.mode {
	case ModeSearching:
		if s.consecutiveHits >= s.config.HitThreshold {
			s.transition(now, ModeVerifying, "consecutive hits")
		}

	case ModeMonitoring:
		if s.consecutiveMisses >= s.config.MissThreshold {
			s.transition(now, ModeVerifying, "consecutive misses")
		}

	case ModeVerifying:
		if matched {
			s.verifyHits++
		} else {
			s.verifyMisses++
		}
		if now.Sub(s.verifyStarted) >= s.config.VerifyDwell {
			if s.verifyHits > s.verifyMisses {
				s.transition(now, ModeMonitoring, "verification confirmed presence")
			} else {
				s.transition(now, ModeSearching, "verification confirmed absence")
			}
		}
	}
}

// transition switches cadence mode and resets the per-mode counters.
func (s *Scheduler) transition(now time.Time, to Mode, reason string) {
	from := s.mode
	if from == to {
		return
	}

	s.mode = to
	s.consecutiveHits = 0
	s.consecutiveMisses = 0
	s.stats.ModeChanges++

	if to == ModeVerifying {
		s.verifyStarted = now
		s.verifyHits = 0
		s.verifyMisses = 0
	}

	s.logger.Log(log.Event{
		Timestamp: now,
		FacultyID: s.facultyID,
		Severity:  log.SeverityInfo,
		Component: log.ComponentScan,
		Mode: &log.ModeChangeEvent{
			OldMode: from.String(),
			NewMode: to.String(),
			Reason:  reason,
		},
	})
}

// maybeReportStats emits a periodic statistics event.
func (s *Scheduler) maybeReportStats(now time.Time, present bool) {
	if s.config.StatsInterval <= 0 {
		return
	}
	if s.lastStatsReport.IsZero() {
		s.lastStatsReport = now
		return
	}
	if now.Sub(s.lastStatsReport) < s.config.StatsInterval {
		return
	}
	s.lastStatsReport = now

	s.logger.Log(log.Event{
		Timestamp: now,
		FacultyID: s.facultyID,
		Severity:  log.SeverityInfo,
		Component: log.ComponentScan,
		Stats: &log.StatsEvent{
			Scans:       s.stats.Scans,
			Hits:        s.stats.Hits,
			Misses:      s.stats.Misses,
			ModeChanges: s.stats.ModeChanges,
			Mode:        s.mode.String(),
			Present:     present,
		},
	})
}
