package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-capture/internal/capture"
)

// CommandMessage is a capture request.
// Topic: graylogic/command/capture/{stream}
type CommandMessage struct {
	// ID correlates the request with its acknowledgement.
	ID string `json:"id"`

	Timestamp time.Time `json:"timestamp"`

	// Stream must match the topic's stream segment when set.
	Stream string `json:"stream,omitempty"`

	// Command is one of the capture command names (still_capture, af_mode,
	// af_trigger, confidence_threshold, device_reset, isp_3a).
	Command string `json:"command"`

	// Parameters are command specific, e.g. {"mode":"macro"} for af_mode.
	Parameters map[string]any `json:"parameters,omitempty"`

	// Source indicates where the request originated ("api", "mqtt", ...).
	Source string `json:"source,omitempty"`
}

// Request converts the message into a capture.Request.
func (m CommandMessage) Request() capture.Request {
	return capture.Request{Command: m.Command, Parameters: m.Parameters}
}

// UnmarshalJSON accepts a missing or RFC 3339 timestamp.
func (m *CommandMessage) UnmarshalJSON(data []byte) error {
	type alias CommandMessage
	aux := &struct {
		*alias
		Timestamp string `json:"timestamp"`
	}{alias: (*alias)(m)}

	if err := json.Unmarshal(data, aux); err != nil {
		return fmt.Errorf("unmarshal command message: %w", err)
	}
	if aux.Timestamp != "" {
		t, err := time.Parse(time.RFC3339, aux.Timestamp)
		if err != nil {
			return fmt.Errorf("parse timestamp: %w", err)
		}
		m.Timestamp = t
	}
	return nil
}

// AckStatus is the outcome of a request.
type AckStatus string

const (
	// AckAccepted means the packet was handed to the stream's observers.
	AckAccepted AckStatus = "accepted"

	// AckFailed means nothing was sent.
	AckFailed AckStatus = "failed"
)

// AckMessage acknowledges a request.
// Topic: graylogic/ack/capture/{stream}
type AckMessage struct {
	CommandID string    `json:"command_id"`
	Timestamp time.Time `json:"timestamp"`
	Stream    string    `json:"stream"`
	Status    AckStatus `json:"status"`

	// Error is set when the request failed, and also on an accepted ISP 3A
	// request whose text was truncated before sending.
	Error *AckError `json:"error,omitempty"`
}

// AckError describes why a request failed or was altered.
type AckError struct {
	Code    string `json:"code"`
	Message string `json:"message"`

	// Dropped is the number of ISP 3A characters cut off.
	Dropped int `json:"dropped,omitempty"`
}

// Error codes carried in AckError.
const (
	ErrCodeInvalidMessage    = "INVALID_MESSAGE"
	ErrCodeUnknownStream     = "UNKNOWN_STREAM"
	ErrCodeInvalidCommand    = "INVALID_COMMAND"
	ErrCodeInvalidParameters = "INVALID_PARAMETERS"
	ErrCodePayloadTruncated  = "PAYLOAD_TRUNCATED"
	ErrCodeBridgeError       = "BRIDGE_ERROR"
)

// NewAckMessage creates an ack without error details.
func NewAckMessage(cmd CommandMessage, stream string, status AckStatus) AckMessage {
	return AckMessage{
		CommandID: cmd.ID,
		Timestamp: time.Now().UTC(),
		Stream:    stream,
		Status:    status,
	}
}

// NewAckError creates an ack carrying err, classified by ErrorCode.
func NewAckError(cmd CommandMessage, stream string, status AckStatus, err error) AckMessage {
	ack := NewAckMessage(cmd, stream, status)
	ack.Error = &AckError{Code: ErrorCode(err), Message: err.Error()}

	var truncErr *capture.TruncationError
	if errors.As(err, &truncErr) {
		ack.Error.Dropped = truncErr.Dropped
	}
	return ack
}

// errInvalidMessage marks requests that could not be parsed or routed.
var errInvalidMessage = errors.New("bridge: invalid message")

// ErrorCode maps an error to its ack code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, errInvalidMessage):
		return ErrCodeInvalidMessage
	case errors.Is(err, capture.ErrUnknownStream):
		return ErrCodeUnknownStream
	case errors.Is(err, capture.ErrUnknownCommand):
		return ErrCodeInvalidCommand
	case errors.Is(err, capture.ErrInvalidParameters):
		return ErrCodeInvalidParameters
	case errors.Is(err, capture.ErrPayloadTruncated):
		return ErrCodePayloadTruncated
	default:
		return ErrCodeBridgeError
	}
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	HealthHealthy  HealthStatus = "healthy"
	HealthDegraded HealthStatus = "degraded"
	HealthStarting HealthStatus = "starting"
	HealthStopping HealthStatus = "stopping"
)

// Statistics are cumulative request counters.
type Statistics struct {
	Received uint64 `json:"received"`
	Accepted uint64 `json:"accepted"`
	Failed   uint64 `json:"failed"`
}

// HealthMessage reports bridge status.
// Topic: graylogic/health/capture (retained)
type HealthMessage struct {
	Bridge        string       `json:"bridge"`
	Timestamp     time.Time    `json:"timestamp"`
	Status        HealthStatus `json:"status"`
	Version       string       `json:"version"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Streams       []string     `json:"streams"`
	Statistics    Statistics   `json:"statistics"`
	Reason        string       `json:"reason,omitempty"`
}
