// Package config loads and validates the desk unit configuration.
//
// Every field has a working default, so an empty file (or no file at all)
// yields a unit that runs against a local broker with the reference
// faculty identity. A config file only has to name what differs.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/consultease/deskunit/pkg/presence"
	"github.com/consultease/deskunit/pkg/publish"
	"github.com/consultease/deskunit/pkg/queue"
	"github.com/consultease/deskunit/pkg/scan"
)

// Duration is a time.Duration that unmarshals from YAML strings like "60s".
type Duration time.Duration

// UnmarshalYAML parses a duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full desk unit configuration.
type Config struct {
	Faculty  FacultyConfig  `yaml:"faculty"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Beacon   BeaconConfig   `yaml:"beacon"`
	Scan     ScanConfig     `yaml:"scan"`
	Presence PresenceConfig `yaml:"presence"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Unit     UnitConfig     `yaml:"unit"`
	Log      LogConfig      `yaml:"log"`
}

// FacultyConfig identifies the faculty member the unit belongs to.
type FacultyConfig struct {
	// ID is the faculty identifier used in topic names and payloads.
	ID int `yaml:"id"`

	// Name is the display name carried in status payloads.
	Name string `yaml:"name"`
}

// MQTTConfig is the broker connection configuration.
type MQTTConfig struct {
	// Broker is the broker address, e.g. "tcp://192.168.1.10:1883".
	Broker string `yaml:"broker"`

	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`

	// KeepAlive is the MQTT keepalive interval.
	KeepAlive Duration `yaml:"keep_alive,omitempty"`
}

// BeaconConfig describes the presence beacon to look for.
type BeaconConfig struct {
	// MAC is the target beacon address (XX:XX:XX:XX:XX:XX).
	MAC string `yaml:"mac"`

	// Executor selects the scan backend: "ble", "mdns" or "scripted".
	Executor string `yaml:"executor"`

	// MDNSService overrides the service name for the mdns executor.
	MDNSService string `yaml:"mdns_service,omitempty"`
}

// ScanConfig is the adaptive scan scheduler configuration.
type ScanConfig struct {
	SearchInterval  Duration `yaml:"search_interval"`
	SearchDuration  Duration `yaml:"search_duration"`
	VerifyInterval  Duration `yaml:"verify_interval"`
	VerifyDuration  Duration `yaml:"verify_duration"`
	MonitorInterval Duration `yaml:"monitor_interval"`
	MonitorDuration Duration `yaml:"monitor_duration"`

	// VerifyDwell is how long the scheduler stays in the verification
	// cadence before resolving.
	VerifyDwell Duration `yaml:"verify_dwell"`

	// ReconnectInterval is the cadence used while the radio is failing.
	ReconnectInterval Duration `yaml:"reconnect_interval"`

	// HitThreshold and MissThreshold drive cadence transitions.
	HitThreshold  int `yaml:"hit_threshold"`
	MissThreshold int `yaml:"miss_threshold"`

	// StatsInterval is how often scan statistics are reported.
	StatsInterval Duration `yaml:"stats_interval"`
}

// PresenceConfig is the presence tracker configuration.
type PresenceConfig struct {
	// MissThreshold is how many consecutive misses start the grace period.
	MissThreshold int `yaml:"miss_threshold"`

	// HitThreshold is how many consecutive hits confirm arrival.
	HitThreshold int `yaml:"hit_threshold"`

	// GracePeriod is how long absence is absorbed before AWAY.
	GracePeriod Duration `yaml:"grace_period"`

	// RSSIFloor rejects matches weaker than this many dBm. 0 disables.
	RSSIFloor int `yaml:"rssi_floor"`
}

// DeliveryConfig is the reliable publisher configuration.
type DeliveryConfig struct {
	// QueueCapacity bounds the offline queue.
	QueueCapacity int `yaml:"queue_capacity"`

	// SnapshotPath persists queued messages across restarts. Empty disables.
	SnapshotPath string `yaml:"snapshot_path,omitempty"`

	MaxPayloadSize    int      `yaml:"max_payload_size"`
	ImmediateAttempts int      `yaml:"immediate_attempts"`
	AttemptDelay      Duration `yaml:"attempt_delay"`
	MaxRetries        int      `yaml:"max_retries"`
}

// UnitConfig is the orchestrator configuration.
type UnitConfig struct {
	// TickInterval is the orchestrator loop cadence.
	TickInterval Duration `yaml:"tick_interval"`

	// HeartbeatInterval is how often liveness is published.
	HeartbeatInterval Duration `yaml:"heartbeat_interval"`
}

// LogConfig is the event log configuration.
type LogConfig struct {
	// Dir is where binary event log files are written. Empty disables.
	Dir string `yaml:"dir,omitempty"`

	// Level is the minimum console severity: debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the configuration the reference unit ships with.
func Default() Config {
	return Config{
		Faculty: FacultyConfig{
			ID:   1,
			Name: "Cris Angelo Salonga",
		},
		MQTT: MQTTConfig{
			Broker:    "tcp://localhost:1883",
			KeepAlive: Duration(publish.DefaultKeepAlive),
		},
		Beacon: BeaconConfig{
			Executor: "ble",
		},
		Scan: ScanConfig{
			SearchInterval:    Duration(scan.DefaultSearchInterval),
			SearchDuration:    Duration(scan.DefaultSearchDuration),
			VerifyInterval:    Duration(scan.DefaultVerifyInterval),
			VerifyDuration:    Duration(scan.DefaultVerifyDuration),
			MonitorInterval:   Duration(scan.DefaultMonitorInterval),
			MonitorDuration:   Duration(scan.DefaultMonitorDuration),
			VerifyDwell:       Duration(scan.DefaultVerifyDwell),
			ReconnectInterval: Duration(scan.DefaultReconnectInterval),
			HitThreshold:      scan.DefaultHitThreshold,
			MissThreshold:     scan.DefaultMissThreshold,
			StatsInterval:     Duration(scan.DefaultStatsInterval),
		},
		Presence: PresenceConfig{
			MissThreshold: presence.DefaultMissThreshold,
			HitThreshold:  presence.DefaultHitThreshold,
			GracePeriod:   Duration(presence.DefaultGracePeriod),
			RSSIFloor:     presence.DefaultRSSIFloor,
		},
		Delivery: DeliveryConfig{
			QueueCapacity:     queue.DefaultCapacity,
			MaxPayloadSize:    publish.DefaultMaxPayloadSize,
			ImmediateAttempts: publish.DefaultImmediateAttempts,
			AttemptDelay:      Duration(publish.DefaultAttemptDelay),
			MaxRetries:        publish.DefaultMaxRetries,
		},
		Unit: UnitConfig{
			TickInterval:      Duration(100 * time.Millisecond),
			HeartbeatInterval: Duration(300 * time.Second),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate checks the configuration for values the unit cannot run with.
func (c *Config) Validate() error {
	if c.Faculty.ID <= 0 {
		return fmt.Errorf("faculty.id must be positive, got %d", c.Faculty.ID)
	}
	if c.Faculty.Name == "" {
		return fmt.Errorf("faculty.name is required")
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}
	switch c.Beacon.Executor {
	case "ble", "mdns", "scripted":
	default:
		return fmt.Errorf("beacon.executor must be ble, mdns or scripted, got %q", c.Beacon.Executor)
	}
	if c.Beacon.Executor != "scripted" && c.Beacon.MAC == "" {
		return fmt.Errorf("beacon.mac is required for the %s executor", c.Beacon.Executor)
	}
	if c.Scan.HitThreshold <= 0 || c.Scan.MissThreshold <= 0 {
		return fmt.Errorf("scan thresholds must be positive")
	}
	if c.Presence.MissThreshold <= 0 || c.Presence.HitThreshold <= 0 {
		return fmt.Errorf("presence thresholds must be positive")
	}
	if c.Presence.GracePeriod <= 0 {
		return fmt.Errorf("presence.grace_period must be positive")
	}
	if c.Delivery.QueueCapacity <= 0 {
		return fmt.Errorf("delivery.queue_capacity must be positive")
	}
	if c.Delivery.MaxRetries <= 0 {
		return fmt.Errorf("delivery.max_retries must be positive")
	}
	if c.Unit.TickInterval <= 0 {
		return fmt.Errorf("unit.tick_interval must be positive")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	return nil
}

// ScanConfig converts the scan section to the scheduler's config type.
func (c *Config) ScanConfig() scan.Config {
	return scan.Config{
		SearchInterval:    c.Scan.SearchInterval.Std(),
		SearchDuration:    c.Scan.SearchDuration.Std(),
		VerifyInterval:    c.Scan.VerifyInterval.Std(),
		VerifyDuration:    c.Scan.VerifyDuration.Std(),
		MonitorInterval:   c.Scan.MonitorInterval.Std(),
		MonitorDuration:   c.Scan.MonitorDuration.Std(),
		VerifyDwell:       c.Scan.VerifyDwell.Std(),
		ReconnectInterval: c.Scan.ReconnectInterval.Std(),
		HitThreshold:      c.Scan.HitThreshold,
		MissThreshold:     c.Scan.MissThreshold,
		StatsInterval:     c.Scan.StatsInterval.Std(),
	}
}

// PresenceConfig converts the presence section to the tracker's config type.
func (c *Config) PresenceConfig() presence.Config {
	return presence.Config{
		MissThreshold: c.Presence.MissThreshold,
		HitThreshold:  c.Presence.HitThreshold,
		GracePeriod:   c.Presence.GracePeriod.Std(),
		RSSIFloor:     c.Presence.RSSIFloor,
	}
}

// PublishConfig converts the delivery section to the publisher's config type.
func (c *Config) PublishConfig() publish.Config {
	return publish.Config{
		MaxPayloadSize:    c.Delivery.MaxPayloadSize,
		ImmediateAttempts: c.Delivery.ImmediateAttempts,
		AttemptDelay:      c.Delivery.AttemptDelay.Std(),
		MaxRetries:        c.Delivery.MaxRetries,
		ResponseSettle:    publish.DefaultResponseSettle,
		StatusSettle:      publish.DefaultStatusSettle,
	}
}
