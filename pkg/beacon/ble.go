package beacon

import (
	"context"
	"sync"
	"time"

	"tinygo.org/x/bluetooth"
)

// BLEExecutor scans for BLE advertisements from the target beacon using the
// platform's default adapter.
//
// The adapter is enabled lazily on first scan and kept enabled; enabling is
// expensive on some platforms and the scheduler scans frequently.
type BLEExecutor struct {
	matcher *Matcher
	adapter *bluetooth.Adapter

	mu      sync.Mutex
	enabled bool
}

// NewBLEExecutor creates a BLE scan executor for the given target matcher.
func NewBLEExecutor(matcher *Matcher) *BLEExecutor {
	return &BLEExecutor{
		matcher: matcher,
		adapter: bluetooth.DefaultAdapter,
	}
}

// Scan runs one BLE scan bounded to the given duration. It returns early on
// the first advertisement from the target beacon, reporting its RSSI.
func (e *BLEExecutor) Scan(ctx context.Context, duration time.Duration) (Observation, error) {
	if err := e.ensureEnabled(); err != nil {
		return Observation{ObservedAt: time.Now()}, err
	}

	var (
		resultMu sync.Mutex
		matched  bool
		rssi     int
	)

	done := make(chan error, 1)
	go func() {
		done <- e.adapter.Scan(func(adapter *bluetooth.Adapter, device bluetooth.ScanResult) {
			if !e.matcher.Matches(device.Address.String()) {
				return
			}
			resultMu.Lock()
			if !matched || int(device.RSSI) > rssi {
				rssi = int(device.RSSI)
			}
			matched = true
			resultMu.Unlock()
			_ = adapter.StopScan()
		})
	}()

	timer := time.NewTimer(duration)
	defer timer.Stop()

	var scanErr error
	select {
	case scanErr = <-done:
		// Scan stopped itself (match or adapter error).
	case <-timer.C:
		_ = e.adapter.StopScan()
		scanErr = <-done
	case <-ctx.Done():
		_ = e.adapter.StopScan()
		<-done
		scanErr = ctx.Err()
	}

	resultMu.Lock()
	obs := Observation{Matched: matched, RSSI: rssi, ObservedAt: time.Now()}
	resultMu.Unlock()

	if obs.Matched {
		// A match outranks a late adapter error.
		return obs, nil
	}
	return obs, scanErr
}

// ensureEnabled enables the BLE adapter once.
func (e *BLEExecutor) ensureEnabled() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.enabled {
		return nil
	}
	if err := e.adapter.Enable(); err != nil {
		return err
	}
	e.enabled = true
	return nil
}

// Compile-time interface satisfaction check.
var _ Executor = (*BLEExecutor)(nil)
