// Command deskunit runs the faculty desk unit presence core.
//
// The unit scans for the faculty member's BLE beacon, debounces the
// observations into a presence value, and publishes status, responses and
// heartbeats to the central system over MQTT. Outbound messages survive
// broker outages in a bounded queue.
//
// Usage:
//
//	deskunit [flags]
//
// Flags:
//
//	-config string        Configuration file path (YAML)
//	-broker string        MQTT broker address, e.g. tcp://192.168.1.10:1883
//	-faculty-id int       Faculty identifier
//	-faculty-name string  Faculty display name
//	-beacon-mac string    Target beacon MAC (XX:XX:XX:XX:XX:XX)
//	-executor string      Scan backend: ble, mdns, scripted
//	-snapshot string      Queue snapshot file path
//	-log-dir string       Directory for binary event logs
//	-log-level string     Console log level: debug, info, warn, error
//	-interactive          Run the interactive simulator console
//
// Examples:
//
//	# Run against a real beacon and broker
//	deskunit -broker tcp://192.168.1.10:1883 -beacon-mac AA:BB:CC:DD:EE:FF
//
//	# Simulate scans and button presses from a console
//	deskunit -broker tcp://localhost:1883 -interactive
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/consultease/deskunit/cmd/deskunit/interactive"
	"github.com/consultease/deskunit/pkg/beacon"
	"github.com/consultease/deskunit/pkg/config"
	"github.com/consultease/deskunit/pkg/log"
	"github.com/consultease/deskunit/pkg/presence"
	"github.com/consultease/deskunit/pkg/publish"
	"github.com/consultease/deskunit/pkg/queue"
	"github.com/consultease/deskunit/pkg/scan"
	"github.com/consultease/deskunit/pkg/unit"
)

var flags struct {
	configFile  string
	broker      string
	facultyID   int
	facultyName string
	beaconMAC   string
	executor    string
	snapshot    string
	logDir      string
	logLevel    string
	interactive bool
}

func init() {
	flag.StringVar(&flags.configFile, "config", "", "Configuration file path (YAML)")
	flag.StringVar(&flags.broker, "broker", "", "MQTT broker address, e.g. tcp://192.168.1.10:1883")
	flag.IntVar(&flags.facultyID, "faculty-id", 0, "Faculty identifier")
	flag.StringVar(&flags.facultyName, "faculty-name", "", "Faculty display name")
	flag.StringVar(&flags.beaconMAC, "beacon-mac", "", "Target beacon MAC (XX:XX:XX:XX:XX:XX)")
	flag.StringVar(&flags.executor, "executor", "", "Scan backend: ble, mdns, scripted")
	flag.StringVar(&flags.snapshot, "snapshot", "", "Queue snapshot file path")
	flag.StringVar(&flags.logDir, "log-dir", "", "Directory for binary event logs")
	flag.StringVar(&flags.logLevel, "log-level", "", "Console log level: debug, info, warn, error")
	flag.BoolVar(&flags.interactive, "interactive", false, "Run the interactive simulator console")
}

func main() {
	flag.Parse()

	cfg, err := config.Load(flags.configFile)
	if err != nil {
		stdlog.Fatalf("Failed to load configuration: %v", err)
	}
	applyFlags(cfg)

	if flags.interactive {
		// The simulator owns the scan script; a radio backend would
		// fight it.
		cfg.Beacon.Executor = "scripted"
	}

	if err := cfg.Validate(); err != nil {
		stdlog.Fatalf("Invalid configuration: %v", err)
	}

	logger, closeLogs, err := buildLogger(cfg)
	if err != nil {
		stdlog.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLogs()

	executor, err := buildExecutor(cfg)
	if err != nil {
		stdlog.Fatalf("Failed to set up the scan backend: %v", err)
	}

	transport := publish.NewMQTTTransport(publish.MQTTConfig{
		Broker:    cfg.MQTT.Broker,
		Username:  cfg.MQTT.Username,
		Password:  cfg.MQTT.Password,
		FacultyID: cfg.Faculty.ID,
		KeepAlive: cfg.MQTT.KeepAlive.Std(),
	}, logger)
	if err := transport.Connect(); err != nil {
		stdlog.Printf("Broker not reachable yet: %v", err)
	}
	defer transport.Close()

	var store *queue.Store
	if cfg.Delivery.SnapshotPath != "" {
		store = queue.NewStore(cfg.Delivery.SnapshotPath)
	}
	publisher := publish.NewPublisher(cfg.PublishConfig(), transport,
		queue.New(cfg.Delivery.QueueCapacity), store, logger, cfg.Faculty.ID)

	scheduler := scan.NewScheduler(cfg.ScanConfig(), executor, logger, cfg.Faculty.ID)
	tracker := presence.NewTracker(cfg.PresenceConfig(), logger, cfg.Faculty.ID)
	input := unit.NewChannelInput()

	u := unit.NewUnit(unit.Config{
		FacultyID:         cfg.Faculty.ID,
		FacultyName:       cfg.Faculty.Name,
		TickInterval:      cfg.Unit.TickInterval.Std(),
		HeartbeatInterval: cfg.Unit.HeartbeatInterval.Std(),
	}, scheduler, tracker, publisher, transport, input, logger)

	if err := u.Start(time.Now()); err != nil {
		stdlog.Fatalf("Failed to start the unit: %v", err)
	}

	stdlog.Printf("Faculty desk unit for %s (id %d), broker %s, %s scan backend",
		cfg.Faculty.Name, cfg.Faculty.ID, cfg.MQTT.Broker, cfg.Beacon.Executor)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = u.Run(ctx)
	}()

	if flags.interactive {
		console, err := interactive.New(u, executor.(*beacon.ScriptedExecutor), input)
		if err != nil {
			stdlog.Fatalf("Failed to start the console: %v", err)
		}
		console.Run(ctx, cancel)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	stdlog.Printf("Received signal: %v, shutting down", sig)
}

// applyFlags layers the command line over the loaded configuration.
func applyFlags(cfg *config.Config) {
	if flags.broker != "" {
		cfg.MQTT.Broker = flags.broker
	}
	if flags.facultyID != 0 {
		cfg.Faculty.ID = flags.facultyID
	}
	if flags.facultyName != "" {
		cfg.Faculty.Name = flags.facultyName
	}
	if flags.beaconMAC != "" {
		cfg.Beacon.MAC = flags.beaconMAC
	}
	if flags.executor != "" {
		cfg.Beacon.Executor = flags.executor
	}
	if flags.snapshot != "" {
		cfg.Delivery.SnapshotPath = flags.snapshot
	}
	if flags.logDir != "" {
		cfg.Log.Dir = flags.logDir
	}
	if flags.logLevel != "" {
		cfg.Log.Level = flags.logLevel
	}
}

// buildLogger assembles the console and optional file event loggers.
func buildLogger(cfg *config.Config) (log.Logger, func(), error) {
	level := slog.LevelInfo
	switch cfg.Log.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	loggers := []log.Logger{log.NewSlogAdapter(slog.New(handler))}

	closeLogs := func() {}
	if cfg.Log.Dir != "" {
		if err := os.MkdirAll(cfg.Log.Dir, 0755); err != nil {
			return nil, nil, err
		}
		path := filepath.Join(cfg.Log.Dir, fmt.Sprintf("deskunit-%d.dlog", time.Now().Unix()))
		fileLogger, err := log.NewFileLogger(path)
		if err != nil {
			return nil, nil, err
		}
		loggers = append(loggers, fileLogger)
		closeLogs = func() { _ = fileLogger.Close() }
	}

	return log.NewMultiLogger(loggers...), closeLogs, nil
}

// buildExecutor creates the configured scan backend.
func buildExecutor(cfg *config.Config) (beacon.Executor, error) {
	if cfg.Beacon.Executor == "scripted" {
		return beacon.NewScriptedExecutor(), nil
	}

	matcher, err := beacon.NewMatcher(cfg.Beacon.MAC)
	if err != nil {
		return nil, err
	}
	switch cfg.Beacon.Executor {
	case "ble":
		return beacon.NewBLEExecutor(matcher), nil
	case "mdns":
		return beacon.NewMDNSExecutor(matcher), nil
	default:
		return nil, fmt.Errorf("unknown scan backend %q", cfg.Beacon.Executor)
	}
}
