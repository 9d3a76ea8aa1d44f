package scan

// Mode represents the active scan cadence mode.
// Exactly one mode is active at a time; transitions happen only inside
// Scheduler.Update.
type Mode uint8

const (
	// ModeSearching scans often and long while the faculty member is away.
	ModeSearching Mode = iota

	// ModeVerifying scans at a short fixed interval to resolve ambiguity.
	ModeVerifying

	// ModeMonitoring scans rarely and briefly while the faculty member is
	// present.
	ModeMonitoring
)

// String returns a human-readable mode name.
func (m Mode) String() string {
	switch m {
	case ModeSearching:
		return "SEARCHING"
	case ModeVerifying:
		return "VERIFYING"
	case ModeMonitoring:
		return "MONITORING"
	default:
		return "UNKNOWN"
	}
}
