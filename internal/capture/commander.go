package capture

import (
	"errors"
	"fmt"
	"strings"
)

// Notifier delivers a packet to every observer attached to a stream.
//
// Implementations may invoke observers synchronously or asynchronously and
// must surface their own failures; nothing is reported back to the caller.
type Notifier interface {
	Notify(stream StreamInfo, packet Packet)
}

// NotifierFunc adapts an ordinary function to the Notifier interface.
type NotifierFunc func(stream StreamInfo, packet Packet)

// Notify implements Notifier.
func (f NotifierFunc) Notify(stream StreamInfo, packet Packet) {
	f(stream, packet)
}

// discard is used when a Commander is built without a notifier.
var discard = NotifierFunc(func(StreamInfo, Packet) {})

// TruncationPolicy decides what happens to an ISP 3A command that does not
// fit the payload limit.
type TruncationPolicy string

const (
	// TruncationReject drops the command and returns the *TruncationError.
	TruncationReject TruncationPolicy = "reject"

	// TruncationSend sends the shortened, NUL-terminated payload and still
	// returns the *TruncationError so callers know characters were lost.
	TruncationSend TruncationPolicy = "truncate"
)

// ParseTruncationPolicy converts a config value to a TruncationPolicy.
// An empty value selects TruncationReject.
func ParseTruncationPolicy(s string) (TruncationPolicy, error) {
	switch TruncationPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", TruncationReject:
		return TruncationReject, nil
	case TruncationSend:
		return TruncationSend, nil
	default:
		return "", fmt.Errorf("capture: unknown truncation policy %q (want reject or truncate)", s)
	}
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Commander encodes capture-control commands and forwards each packet to the
// observers of one stream.
//
// Thread Safety:
//   - A Commander holds only immutable state after construction. It is safe
//     for concurrent use if its Notifier is.
type Commander struct {
	stream   StreamInfo
	notifier Notifier
	policy   TruncationPolicy
	logger   Logger
}

// Option configures a Commander.
type Option func(*Commander)

// WithTruncationPolicy sets the ISP 3A truncation policy (default TruncationReject).
func WithTruncationPolicy(p TruncationPolicy) Option {
	return func(c *Commander) {
		c.policy = p
	}
}

// WithLogger sets a logger for dispatch tracing and truncation warnings.
func WithLogger(l Logger) Option {
	return func(c *Commander) {
		c.logger = l
	}
}

// NewCommander binds a Commander to a stream and a notification primitive.
// A nil notifier makes every command a silent no-op.
func NewCommander(stream StreamInfo, notifier Notifier, opts ...Option) *Commander {
	if notifier == nil {
		notifier = discard
	}
	c := &Commander{
		stream:   stream,
		notifier: notifier,
		policy:   TruncationReject,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Stream returns the stream this Commander targets.
func (c *Commander) Stream() StreamInfo {
	return c.stream
}

// TruncationPolicy returns the ISP 3A truncation policy in effect.
func (c *Commander) TruncationPolicy() TruncationPolicy {
	return c.policy
}

// dispatch hands one packet to the notifier.
func (c *Commander) dispatch(pkt Packet) {
	if c.logger != nil {
		c.logger.Debug("dispatching capture packet",
			"stream", c.stream.Name,
			"kind", pkt.Kind.String(),
			"size", pkt.Size,
		)
	}
	c.notifier.Notify(c.stream, pkt)
}

// SendCaptureMetadata sends any CaptureMetadata value. Capture,
// SetAutofocusMode and TriggerAutofocus are built on it.
func (c *Commander) SendCaptureMetadata(meta CaptureMetadata) {
	c.dispatch(EncodeMetadata(meta))
}

// Capture requests a single still capture.
func (c *Commander) Capture() {
	c.SendCaptureMetadata(NewStillCapture())
}

// SetAutofocusMode switches the autofocus mode.
func (c *Commander) SetAutofocusMode(mode AutofocusMode) {
	c.SendCaptureMetadata(NewAutofocusMode(mode))
}

// TriggerAutofocus starts one autofocus cycle.
func (c *Commander) TriggerAutofocus() {
	c.SendCaptureMetadata(NewAutofocusTrigger())
}

// SendConfidenceThreshold sets the disparity confidence threshold.
func (c *Commander) SendConfidenceThreshold(threshold uint8) {
	c.dispatch(EncodeConfidenceThreshold(threshold))
}

// SendDeviceReset asks the device to reset.
func (c *Commander) SendDeviceReset() {
	c.dispatch(EncodeDeviceReset())
}

// SendISP3A sends a free-form ISP 3A command.
//
// Returns:
//   - error: nil when the full text was sent; a *TruncationError when the
//     text exceeded ISP3AMaxText characters. Under TruncationReject nothing
//     is sent; under TruncationSend the shortened text is sent.
func (c *Commander) SendISP3A(cameraID, commandID int, extraArgs string) error {
	pkt, err := EncodeISP3A(cameraID, commandID, extraArgs)
	if err != nil {
		var truncErr *TruncationError
		if !errors.As(err, &truncErr) || c.policy != TruncationSend {
			return err
		}
		if c.logger != nil {
			c.logger.Warn("sending truncated ISP 3A command",
				"stream", c.stream.Name,
				"dropped", truncErr.Dropped,
			)
		}
	}
	c.dispatch(pkt)
	return err
}
