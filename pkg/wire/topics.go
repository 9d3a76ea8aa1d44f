package wire

import "fmt"

// Topic name components.
const (
	// TopicPrefix is the root of the unit's topic namespace.
	TopicPrefix = "consultease/faculty"

	// LegacyStatusPrefix is the root of the pre-v2 status topic namespace.
	// Older central-system deployments still subscribe here, so status is
	// published to both the primary and legacy topics.
	LegacyStatusPrefix = "faculty"
)

// Topics holds the per-unit MQTT topic set.
type Topics struct {
	// Status carries presence status payloads (retained).
	Status string

	// Messages carries inbound consultation requests from the central system.
	Messages string

	// Responses carries outbound faculty responses (never retained).
	Responses string

	// Heartbeat carries periodic liveness payloads.
	Heartbeat string

	// LegacyStatus mirrors Status for older subscribers.
	LegacyStatus string
}

// TopicsFor returns the topic set for the given faculty ID.
func TopicsFor(facultyID int) Topics {
	return Topics{
		Status:       fmt.Sprintf("%s/%d/status", TopicPrefix, facultyID),
		Messages:     fmt.Sprintf("%s/%d/messages", TopicPrefix, facultyID),
		Responses:    fmt.Sprintf("%s/%d/responses", TopicPrefix, facultyID),
		Heartbeat:    fmt.Sprintf("%s/%d/heartbeat", TopicPrefix, facultyID),
		LegacyStatus: fmt.Sprintf("%s/%d/status", LegacyStatusPrefix, facultyID),
	}
}
