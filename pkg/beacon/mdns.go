package beacon

import (
	"context"
	"strings"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// mDNS service constants for network beacons.
const (
	// MDNSServiceType is the service type a desk-beacon agent advertises.
	MDNSServiceType = "_deskbeacon._tcp"

	// MDNSDomain is the mDNS domain to browse.
	MDNSDomain = "local."

	// MDNSTXTKey is the TXT record key carrying the beacon MAC.
	MDNSTXTKey = "mac"
)

// MDNSExecutor observes the target beacon via mDNS instead of BLE.
//
// Some faculty carry no BLE tag; a phone or laptop agent advertises a
// desk-beacon service whose TXT record carries the beacon identity. mDNS
// provides no signal strength, so RSSI is always zero and the presence
// tracker's RSSI floor should be disabled for these units.
type MDNSExecutor struct {
	matcher *Matcher
}

// NewMDNSExecutor creates an mDNS scan executor for the given target matcher.
func NewMDNSExecutor(matcher *Matcher) *MDNSExecutor {
	return &MDNSExecutor{matcher: matcher}
}

// Scan browses for the desk-beacon service for at most the given duration,
// returning early when the target is observed.
func (e *MDNSExecutor) Scan(ctx context.Context, duration time.Duration) (Observation, error) {
	browseCtx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	browseDone := make(chan error, 1)
	go func() {
		browseDone <- zeroconf.Browse(browseCtx, MDNSServiceType, MDNSDomain, entries, removed)
	}()

	matched := false
	for !matched {
		select {
		case entry, ok := <-entries:
			if !ok {
				entries = nil
				break
			}
			if e.entryMatches(entry) {
				matched = true
			}
		case _, ok := <-removed:
			if !ok {
				removed = nil
			}
		case <-browseCtx.Done():
			matched = false
		}
		if browseCtx.Err() != nil {
			break
		}
		if entries == nil && removed == nil {
			break
		}
	}
	cancel()

	err := <-browseDone
	obs := Observation{Matched: matched, ObservedAt: time.Now()}
	if matched {
		return obs, nil
	}
	// Context expiry is the normal end of a bounded browse, not a failure.
	if err == context.DeadlineExceeded || err == context.Canceled {
		err = nil
	}
	return obs, err
}

// entryMatches checks whether a service entry advertises the target beacon.
func (e *MDNSExecutor) entryMatches(entry *zeroconf.ServiceEntry) bool {
	if entry == nil {
		return false
	}
	for _, txt := range entry.Text {
		key, value, found := strings.Cut(txt, "=")
		if found && key == MDNSTXTKey && e.matcher.Matches(value) {
			return true
		}
	}
	return false
}

// Compile-time interface satisfaction check.
var _ Executor = (*MDNSExecutor)(nil)
