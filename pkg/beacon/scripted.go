package beacon

import (
	"context"
	"sync"
	"time"
)

// Step is one scripted scan outcome.
type Step struct {
	// Matched indicates the scripted scan observes the beacon.
	Matched bool

	// RSSI is the scripted signal strength (dBm).
	RSSI int

	// Err is returned alongside a miss to simulate a radio failure.
	Err error
}

// ScriptedExecutor replays a fixed sequence of scan outcomes.
// After the script is exhausted it keeps returning the last step, so a test
// can script a transition and then let the scheduler settle.
//
// It is used by tests and by the interactive simulator, where the script is
// replaced live via Set.
type ScriptedExecutor struct {
	mu    sync.Mutex
	steps []Step
	index int
	calls int
}

// NewScriptedExecutor creates an executor that replays the given steps.
// With no steps it always reports a miss.
func NewScriptedExecutor(steps ...Step) *ScriptedExecutor {
	return &ScriptedExecutor{steps: steps}
}

// Scan returns the next scripted observation. It never sleeps; scripted
// scans are instantaneous regardless of the requested duration.
func (e *ScriptedExecutor) Scan(ctx context.Context, duration time.Duration) (Observation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.calls++

	if len(e.steps) == 0 {
		return Observation{ObservedAt: time.Now()}, nil
	}

	step := e.steps[e.index]
	if e.index < len(e.steps)-1 {
		e.index++
	}

	obs := Observation{
		Matched:    step.Matched && step.Err == nil,
		RSSI:       step.RSSI,
		ObservedAt: time.Now(),
	}
	return obs, step.Err
}

// Set replaces the script and rewinds to its start.
func (e *ScriptedExecutor) Set(steps ...Step) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.steps = steps
	e.index = 0
}

// Calls returns how many scans have been executed.
func (e *ScriptedExecutor) Calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls
}

// Compile-time interface satisfaction check.
var _ Executor = (*ScriptedExecutor)(nil)
