package unit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/consultease/deskunit/pkg/log"
	"github.com/consultease/deskunit/pkg/presence"
	"github.com/consultease/deskunit/pkg/publish"
	"github.com/consultease/deskunit/pkg/scan"
	"github.com/consultease/deskunit/pkg/wire"
)

// Orchestrator defaults.
const (
	// DefaultTickInterval is the control loop cadence.
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultHeartbeatInterval is the liveness publish cadence.
	DefaultHeartbeatInterval = 300 * time.Second

	// inboundBuffer bounds pending consultation messages between ticks.
	inboundBuffer = 16
)

// Config holds the orchestrator configuration.
type Config struct {
	// FacultyID identifies the faculty member in topics and payloads.
	FacultyID int

	// FacultyName is the display name carried in payloads.
	FacultyName string

	// TickInterval is the control loop cadence.
	TickInterval time.Duration

	// HeartbeatInterval is the liveness publish cadence. Zero disables.
	HeartbeatInterval time.Duration
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() Config {
	return Config{
		TickInterval:      DefaultTickInterval,
		HeartbeatInterval: DefaultHeartbeatInterval,
	}
}

// inboundMessage carries a raw broker message from the transport's router
// goroutine into the tick loop.
type inboundMessage struct {
	topic   string
	payload []byte
}

// Unit is the desk unit control loop. A single goroutine calls Start, then
// Tick (directly or via Run); nothing else may touch the components it owns.
type Unit struct {
	config    Config
	topics    wire.Topics
	scheduler *scan.Scheduler
	tracker   *presence.Tracker
	publisher *publish.Publisher
	transport publish.Transport
	input     ButtonInput
	logger    log.Logger

	startTime     time.Time
	lastHeartbeat time.Time

	inbound chan inboundMessage

	// pending is the consultation awaiting a button response; a newer
	// request replaces an unanswered one.
	pending *wire.ConsultationMessage

	statusDirty bool

	onConsultation func(msg wire.ConsultationMessage)
}

// NewUnit creates the control loop. input may be nil for units without
// buttons attached.
func NewUnit(config Config, scheduler *scan.Scheduler, tracker *presence.Tracker, publisher *publish.Publisher, transport publish.Transport, input ButtonInput, logger log.Logger) *Unit {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultTickInterval
	}

	u := &Unit{
		config:    config,
		topics:    wire.TopicsFor(config.FacultyID),
		scheduler: scheduler,
		tracker:   tracker,
		publisher: publisher,
		transport: transport,
		input:     input,
		logger:    log.OrNoop(logger),
		inbound:   make(chan inboundMessage, inboundBuffer),
	}

	tracker.OnStatusChange(func(bool) {
		// Deferred to the tick so one tick produces at most one publish
		// pass even if several components fire.
		u.statusDirty = true
	})

	return u
}

// OnConsultation sets a callback fired on the tick goroutine for every
// accepted consultation request. The display subsystem hooks in here.
func (u *Unit) OnConsultation(fn func(msg wire.ConsultationMessage)) {
	u.onConsultation = fn
}

// Topics returns the unit's topic set.
func (u *Unit) Topics() wire.Topics {
	return u.topics
}

// Present returns the externally visible presence value.
func (u *Unit) Present() bool {
	return u.tracker.Present()
}

// Mode returns the active scan cadence mode.
func (u *Unit) Mode() scan.Mode {
	return u.scheduler.Mode()
}

// Stats returns the cumulative scan statistics.
func (u *Unit) Stats() scan.Stats {
	return u.scheduler.Stats()
}

// QueueLen returns the pending delivery backlog.
func (u *Unit) QueueLen() int {
	return u.publisher.QueueLen()
}

// Pending returns the consultation awaiting a response, if any.
func (u *Unit) Pending() (wire.ConsultationMessage, bool) {
	if u.pending == nil {
		return wire.ConsultationMessage{}, false
	}
	return *u.pending, true
}

// Start prepares the unit: restores any persisted queue, subscribes to the
// consultation topic, and publishes the initial AWAY status so subscribers
// never see a stale retained value from a previous run.
func (u *Unit) Start(now time.Time) error {
	u.startTime = now
	u.lastHeartbeat = now

	if err := u.publisher.RestoreQueue(); err != nil {
		u.logUnitError(now, log.SeverityWarn, err.Error(), "queue restore")
	}

	if err := u.transport.Subscribe(u.topics.Messages, u.Deliver); err != nil {
		return err
	}

	u.publishStatus(now)
	return nil
}

// Run drives the tick loop until the context is cancelled.
func (u *Unit) Run(ctx context.Context) error {
	ticker := time.NewTicker(u.config.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			u.Tick(ctx, now)
		}
	}
}

// Tick runs one pass of the control loop. The order is fixed: inbound
// messages, button input, scan, grace timer, status edge, queue drain,
// heartbeat.
func (u *Unit) Tick(ctx context.Context, now time.Time) {
	u.drainInbound(now)
	u.pollInput(now)

	obs, scanned := u.scheduler.Update(ctx, now, u.tracker.InGracePeriod(), u.tracker.Present())
	if scanned {
		u.tracker.CheckBeacon(obs)
	}
	u.tracker.Tick(now)

	if u.statusDirty {
		u.statusDirty = false
		u.publishStatus(now)
	}

	u.publisher.DrainQueue(now)

	u.maybeHeartbeat(now)
}

// Deliver hands a raw inbound message to the tick loop. The transport
// subscription calls it from its router goroutine; the interactive
// simulator calls it directly.
func (u *Unit) Deliver(topic string, payload []byte) {
	select {
	case u.inbound <- inboundMessage{topic: topic, payload: payload}:
	default:
		// The loop is stalled or flooded; dropping here is safer than
		// blocking the transport's router.
		u.logUnitError(time.Now(), log.SeverityWarn, "inbound message dropped", topic)
	}
}

// drainInbound consumes every message the transport delivered since the
// last tick.
func (u *Unit) drainInbound(now time.Time) {
	for {
		select {
		case in := <-u.inbound:
			u.handleConsultation(now, in)
		default:
			return
		}
	}
}

// handleConsultation decodes and accepts one consultation request.
func (u *Unit) handleConsultation(now time.Time, in inboundMessage) {
	var msg wire.ConsultationMessage
	if err := json.Unmarshal(in.payload, &msg); err != nil {
		u.logUnitError(now, log.SeverityWarn, "malformed consultation payload", in.topic)
		return
	}
	if msg.MessageID == "" {
		// Older central systems omit the ID; generate one so the
		// response can still be correlated by timestamp.
		msg.MessageID = uuid.NewString()
	}

	u.pending = &msg
	if u.onConsultation != nil {
		u.onConsultation(msg)
	}
}

// pollInput consumes at most one button press per tick.
func (u *Unit) pollInput(now time.Time) {
	if u.input == nil {
		return
	}
	button, ok := u.input.Poll()
	if !ok {
		return
	}

	if !u.tracker.Present() {
		u.logUnitError(now, log.SeverityWarn, "button press ignored while away", button.String())
		return
	}
	if u.pending == nil {
		u.logUnitError(now, log.SeverityWarn, "button press without pending consultation", button.String())
		return
	}

	u.respond(now, button)
}

// respond publishes the faculty response for the pending consultation.
func (u *Unit) respond(now time.Time, button Button) {
	responseType := wire.ResponseAcknowledge
	status := "Professor acknowledges your request"
	if button == ButtonBusy {
		responseType = wire.ResponseBusy
		status = "Professor is busy, please try again later"
	}

	payload := wire.ResponsePayload{
		FacultyID:      u.config.FacultyID,
		FacultyName:    u.config.FacultyName,
		ResponseType:   responseType,
		MessageID:      u.pending.MessageID,
		Timestamp:      wire.UptimeMillis(u.startTime, now),
		FacultyPresent: true,
		ResponseMethod: wire.ResponseMethodButton,
		Status:         status,
	}

	data, err := wire.Encode(&payload)
	if err != nil {
		u.logUnitError(now, log.SeverityError, err.Error(), "encode response")
		return
	}

	u.publisher.PublishReliable(u.topics.Responses, data, publish.ClassResponse)
	u.pending = nil
}

// publishStatus publishes the current presence to the primary and legacy
// status topics.
func (u *Unit) publishStatus(now time.Time) {
	payload := wire.StatusPayload{
		FacultyID:     u.config.FacultyID,
		FacultyName:   u.config.FacultyName,
		Present:       u.tracker.Present(),
		Status:        u.tracker.StatusString(),
		Timestamp:     wire.UptimeMillis(u.startTime, now),
		InGracePeriod: u.tracker.InGracePeriod(),
	}
	if payload.InGracePeriod {
		remaining := u.tracker.GraceRemaining(now).Milliseconds()
		payload.GracePeriodRemaining = &remaining
	}

	data, err := wire.Encode(&payload)
	if err != nil {
		u.logUnitError(now, log.SeverityError, err.Error(), "encode status")
		return
	}

	u.publisher.PublishReliable(u.topics.Status, data, publish.ClassStatus)
	u.publisher.PublishReliable(u.topics.LegacyStatus, data, publish.ClassStatus)
}

// maybeHeartbeat publishes liveness on the configured cadence.
func (u *Unit) maybeHeartbeat(now time.Time) {
	if u.config.HeartbeatInterval <= 0 {
		return
	}
	if now.Sub(u.lastHeartbeat) < u.config.HeartbeatInterval {
		return
	}
	u.lastHeartbeat = now

	payload := wire.HeartbeatPayload{
		FacultyID: u.config.FacultyID,
		Timestamp: wire.UptimeMillis(u.startTime, now),
		Present:   u.tracker.Present(),
		QueueSize: u.publisher.QueueLen(),
	}

	data, err := wire.Encode(&payload)
	if err != nil {
		u.logUnitError(now, log.SeverityError, err.Error(), "encode heartbeat")
		return
	}

	u.publisher.PublishReliable(u.topics.Heartbeat, data, publish.ClassHeartbeat)
}

// logUnitError emits an orchestrator-level event.
func (u *Unit) logUnitError(now time.Time, severity log.Severity, message, context string) {
	u.logger.Log(log.Event{
		Timestamp: now,
		FacultyID: u.config.FacultyID,
		Severity:  severity,
		Component: log.ComponentUnit,
		Error: &log.ErrorEventData{
			Message: message,
			Context: context,
		},
	})
}
