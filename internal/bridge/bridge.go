package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-capture/internal/capture"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/mqtt"
)

// ackQoS is used for acks and health messages.
const ackQoS = 1

// MQTTClient is the subset of the MQTT client the bridge needs.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Logger is the logging surface used by the bridge.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds configuration for creating a bridge.
type Options struct {
	// Commanders maps stream names to their dispatchers. Required.
	Commanders capture.Commanders

	// MQTTClient carries requests, acks and health. Required.
	MQTTClient MQTTClient

	// Version is reported in health messages.
	Version string

	// HealthInterval defaults to 30 seconds.
	HealthInterval time.Duration

	Logger Logger
}

// Bridge routes MQTT capture requests to commanders.
//
// Thread Safety: Execute and the MQTT handler are safe for concurrent use.
// The MQTT client runs each handler on its own goroutine, since the handler
// blocks on QoS 1 ack publishes, so requests arriving together on MQTT may
// execute in any order. Send one request at a time when order matters.
type Bridge struct {
	commanders capture.Commanders
	mqtt       MQTTClient
	logger     Logger
	health     *HealthReporter

	received atomic.Uint64
	accepted atomic.Uint64
	failed   atomic.Uint64

	stopOnce sync.Once
}

// NewBridge validates options and builds a bridge. Call Start to subscribe.
func NewBridge(opts Options) (*Bridge, error) {
	if len(opts.Commanders) == 0 {
		return nil, errors.New("bridge: at least one stream commander is required")
	}
	if opts.MQTTClient == nil {
		return nil, errors.New("bridge: MQTT client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	b := &Bridge{
		commanders: opts.Commanders,
		mqtt:       opts.MQTTClient,
		logger:     logger,
	}
	b.health = NewHealthReporter(HealthReporterConfig{
		Version:   opts.Version,
		Interval:  opts.HealthInterval,
		Publisher: opts.MQTTClient,
		Streams:   opts.Commanders.Names(),
		Stats:     b.Statistics,
		Logger:    logger,
	})

	return b, nil
}

// Start subscribes to capture requests and begins health reporting.
// Health reporting stops when ctx is cancelled or Stop is called.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStatus(HealthStarting, ""); err != nil {
		b.logger.Warn("publishing starting status failed", "error", err)
	}

	topic := mqtt.Topics{}.AllStreamCommands()
	if err := b.mqtt.Subscribe(topic, ackQoS, b.HandleMessage); err != nil {
		return fmt.Errorf("subscribe to capture requests: %w", err)
	}

	b.health.Start(ctx)

	b.logger.Info("capture bridge started",
		"topic", topic,
		"streams", b.commanders.Names(),
	)
	return nil
}

// Stop unsubscribes and publishes a final stopping status.
// Safe to call more than once.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		if err := b.mqtt.Unsubscribe(mqtt.Topics{}.AllStreamCommands()); err != nil {
			b.logger.Debug("unsubscribe on stop failed", "error", err)
		}
		b.health.Stop()
		b.logger.Info("capture bridge stopped")
	})
}

// Statistics returns a snapshot of the request counters.
func (b *Bridge) Statistics() Statistics {
	return Statistics{
		Received: b.received.Load(),
		Accepted: b.accepted.Load(),
		Failed:   b.failed.Load(),
	}
}

// streamFromTopic extracts {stream} from graylogic/command/capture/{stream}.
func streamFromTopic(topic string) (string, bool) {
	prefix := strings.TrimSuffix(mqtt.Topics{}.AllStreamCommands(), "+")
	stream, ok := strings.CutPrefix(topic, prefix)
	if !ok || stream == "" || strings.Contains(stream, "/") {
		return "", false
	}
	return stream, true
}

// HandleMessage is the MQTT handler for capture requests. It always
// publishes an ack when the stream can be determined; the returned error
// is for the client's log only.
func (b *Bridge) HandleMessage(topic string, payload []byte) error {
	stream, ok := streamFromTopic(topic)
	if !ok {
		b.received.Add(1)
		b.failed.Add(1)
		return fmt.Errorf("%w: unexpected topic %q", errInvalidMessage, topic)
	}

	var cmd CommandMessage
	if err := json.Unmarshal(payload, &cmd); err != nil {
		b.received.Add(1)
		b.failed.Add(1)
		err = fmt.Errorf("%w: %w", errInvalidMessage, err)
		b.publishAck(NewAckError(cmd, stream, AckFailed, err))
		return err
	}

	if cmd.Stream != "" && cmd.Stream != stream {
		b.received.Add(1)
		b.failed.Add(1)
		err := fmt.Errorf("%w: stream %q does not match topic stream %q", errInvalidMessage, cmd.Stream, stream)
		b.publishAck(NewAckError(cmd, stream, AckFailed, err))
		return err
	}
	cmd.Stream = stream
	if cmd.Source == "" {
		cmd.Source = "mqtt"
	}

	ack := b.Execute(cmd)
	b.publishAck(ack)
	if ack.Status == AckFailed {
		return fmt.Errorf("capture request %s failed: %s", cmd.ID, ack.Error.Message)
	}
	return nil
}

// Execute runs one request against its stream's commander and returns the
// ack. It does not publish anything itself.
func (b *Bridge) Execute(cmd CommandMessage) AckMessage {
	b.received.Add(1)

	commander, err := b.commanders.Lookup(cmd.Stream)
	if err != nil {
		b.failed.Add(1)
		return NewAckError(cmd, cmd.Stream, AckFailed, err)
	}

	err = commander.Execute(cmd.Request())
	switch {
	case err == nil:
		b.accepted.Add(1)
		b.logger.Info("capture request accepted",
			"command_id", cmd.ID,
			"stream", cmd.Stream,
			"command", cmd.Command,
			"source", cmd.Source,
		)
		return NewAckMessage(cmd, cmd.Stream, AckAccepted)

	case errors.Is(err, capture.ErrPayloadTruncated) && commander.TruncationPolicy() == capture.TruncationSend:
		// Sent, but shortened.
		b.accepted.Add(1)
		return NewAckError(cmd, cmd.Stream, AckAccepted, err)

	default:
		b.failed.Add(1)
		b.logger.Warn("capture request failed",
			"command_id", cmd.ID,
			"stream", cmd.Stream,
			"command", cmd.Command,
			"error", err,
		)
		return NewAckError(cmd, cmd.Stream, AckFailed, err)
	}
}

func (b *Bridge) publishAck(ack AckMessage) {
	payload, err := json.Marshal(ack)
	if err != nil {
		b.logger.Error("marshalling ack failed", "error", err)
		return
	}

	topic := mqtt.Topics{}.StreamAck(ack.Stream)
	if err := b.mqtt.Publish(topic, payload, ackQoS, false); err != nil {
		b.logger.Warn("publishing ack failed", "topic", topic, "error", err)
	}
}
