package publish

import (
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/consultease/deskunit/pkg/log"
)

// MQTT transport defaults.
const (
	// DefaultPublishQoS is the quality-of-service level for all publishes.
	DefaultPublishQoS = 1

	// DefaultKeepAlive is the MQTT keepalive interval.
	DefaultKeepAlive = 60 * time.Second

	// DefaultConnectTimeout bounds the initial broker connection.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultPublishTimeout bounds a single synchronous publish.
	DefaultPublishTimeout = 5 * time.Second
)

// MQTTConfig holds the broker transport configuration.
type MQTTConfig struct {
	// Broker is the broker address, e.g. "tcp://192.168.1.10:1883".
	Broker string

	// Username is the optional broker username.
	Username string

	// Password is the optional broker password.
	Password string

	// FacultyID is used to derive the client ID.
	FacultyID int

	// KeepAlive is the MQTT keepalive interval.
	KeepAlive time.Duration

	// ConnectTimeout bounds the initial connection attempt.
	ConnectTimeout time.Duration

	// PublishTimeout bounds each synchronous publish.
	PublishTimeout time.Duration

	// WillTopic, if non-empty, registers a last-will message the broker
	// publishes when the unit drops off without a clean disconnect.
	WillTopic string

	// WillPayload is the last-will payload.
	WillPayload []byte
}

// MQTTTransport is the paho-backed broker link.
type MQTTTransport struct {
	config MQTTConfig
	client mqtt.Client
	logger log.Logger

	// subscriptions are replayed on every (re)connect; the clean session
	// drops them broker-side on disconnect.
	mu            sync.Mutex
	subscriptions map[string]func(topic string, payload []byte)
}

// Compile-time check.
var _ Transport = (*MQTTTransport)(nil)

// NewMQTTTransport creates a broker transport. The connection is not
// established until Connect is called.
func NewMQTTTransport(config MQTTConfig, logger log.Logger) *MQTTTransport {
	if config.KeepAlive == 0 {
		config.KeepAlive = DefaultKeepAlive
	}
	if config.ConnectTimeout == 0 {
		config.ConnectTimeout = DefaultConnectTimeout
	}
	if config.PublishTimeout == 0 {
		config.PublishTimeout = DefaultPublishTimeout
	}

	t := &MQTTTransport{
		config:        config,
		logger:        log.OrNoop(logger),
		subscriptions: make(map[string]func(topic string, payload []byte)),
	}

	// A random suffix keeps a restarted unit from fighting its old
	// session over the same client ID.
	clientID := fmt.Sprintf("Faculty_Desk_Unit_%d_%s", config.FacultyID, uuid.NewString()[:8])

	opts := mqtt.NewClientOptions().
		AddBroker(config.Broker).
		SetClientID(clientID).
		SetKeepAlive(config.KeepAlive).
		SetConnectTimeout(config.ConnectTimeout).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetCleanSession(true).
		SetOnConnectHandler(t.onConnect).
		SetConnectionLostHandler(t.onConnectionLost)

	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	if config.WillTopic != "" {
		opts.SetBinaryWill(config.WillTopic, config.WillPayload, DefaultPublishQoS, true)
	}

	t.client = mqtt.NewClient(opts)
	return t
}

// Connect starts the broker connection. If the broker is unreachable the
// client keeps retrying in the background and the error only reports that
// the first attempt did not complete in time; the unit runs on its queue
// until the link comes up.
func (t *MQTTTransport) Connect() error {
	token := t.client.Connect()
	if !token.WaitTimeout(t.config.ConnectTimeout) {
		return fmt.Errorf("connect to %s: not connected after %s, retrying in background", t.config.Broker, t.config.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", t.config.Broker, err)
	}
	return nil
}

// Publish sends one message at QoS 1 and waits for broker acknowledgement.
func (t *MQTTTransport) Publish(topic string, payload []byte, retained bool) error {
	token := t.client.Publish(topic, DefaultPublishQoS, retained, payload)
	if !token.WaitTimeout(t.config.PublishTimeout) {
		return fmt.Errorf("publish to %s: timeout after %s", topic, t.config.PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe registers a handler for inbound messages on a topic. The
// subscription is established once the connection is up and re-established
// on every reconnect.
//
// Handlers run on paho's router goroutine; they must hand work off to the
// owning goroutine rather than touch unit state directly.
func (t *MQTTTransport) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	t.mu.Lock()
	t.subscriptions[topic] = handler
	t.mu.Unlock()

	if t.client.IsConnectionOpen() {
		return t.subscribe(topic, handler)
	}
	return nil
}

// subscribe performs one broker subscription.
func (t *MQTTTransport) subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := t.client.Subscribe(topic, DefaultPublishQoS, func(_ mqtt.Client, msg mqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(t.config.ConnectTimeout) {
		return fmt.Errorf("subscribe to %s: timeout after %s", topic, t.config.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}
	return nil
}

// Connected reports whether the broker link is currently up.
func (t *MQTTTransport) Connected() bool {
	return t.client.IsConnectionOpen()
}

// Close disconnects from the broker, allowing in-flight messages to finish.
func (t *MQTTTransport) Close() {
	t.client.Disconnect(250)
}

func (t *MQTTTransport) onConnect(_ mqtt.Client) {
	t.mu.Lock()
	subs := make(map[string]func(topic string, payload []byte), len(t.subscriptions))
	for topic, handler := range t.subscriptions {
		subs[topic] = handler
	}
	t.mu.Unlock()

	for topic, handler := range subs {
		if err := t.subscribe(topic, handler); err != nil {
			t.logger.Log(log.Event{
				Timestamp: time.Now(),
				FacultyID: t.config.FacultyID,
				Severity:  log.SeverityWarn,
				Component: log.ComponentTransport,
				Error: &log.ErrorEventData{
					Message: err.Error(),
					Context: "resubscribe",
				},
			})
		}
	}

	t.logger.Log(log.Event{
		Timestamp: time.Now(),
		FacultyID: t.config.FacultyID,
		Severity:  log.SeverityInfo,
		Component: log.ComponentTransport,
		Transport: &log.TransportEvent{
			Connected: true,
			Broker:    t.config.Broker,
		},
	})
}

func (t *MQTTTransport) onConnectionLost(_ mqtt.Client, err error) {
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	t.logger.Log(log.Event{
		Timestamp: time.Now(),
		FacultyID: t.config.FacultyID,
		Severity:  log.SeverityWarn,
		Component: log.ComponentTransport,
		Transport: &log.TransportEvent{
			Connected: false,
			Broker:    t.config.Broker,
			Reason:    reason,
		},
	})
}
