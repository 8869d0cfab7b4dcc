package capture

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Kind identifies the payload shape of a packet.
type Kind uint8

// Packet kinds. Receivers select a decoder by kind, never by size.
const (
	KindMetadata            Kind = 1
	KindConfidenceThreshold Kind = 2
	KindDeviceReset         Kind = 3
	KindISP3A               Kind = 4
)

// kindNames maps kinds to their wire names (used in MQTT topics and logs).
var kindNames = map[Kind]string{
	KindMetadata:            "metadata",
	KindConfidenceThreshold: "confidence_threshold",
	KindDeviceReset:         "device_reset",
	KindISP3A:               "isp_3a",
}

// String returns the wire name of the kind (e.g. "device_reset").
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind converts a wire name back to a Kind.
func ParseKind(name string) (Kind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for k, n := range kindNames {
		if n == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// ResetSentinel is the magic value a device recognises as a reset request.
const ResetSentinel uint32 = 0xDEADDEAD

// resetPayloadSize is the serialized size of a DeviceReset payload.
const resetPayloadSize = 4

// Payload is one encodable command. The set of variants is closed:
// MetadataPayload, ConfidenceThreshold, DeviceReset and ISP3ACommand.
type Payload interface {
	// Kind reports which wire layout the payload serializes to.
	Kind() Kind

	// marshal serializes the payload. A *TruncationError may be returned
	// together with valid (shortened) bytes.
	marshal() ([]byte, error)
}

// MetadataPayload carries a CaptureMetadata value.
type MetadataPayload struct {
	Metadata CaptureMetadata
}

// Kind implements Payload.
func (MetadataPayload) Kind() Kind { return KindMetadata }

func (p MetadataPayload) marshal() ([]byte, error) {
	return p.Metadata.MarshalBinary()
}

// ConfidenceThreshold carries the disparity confidence threshold (0-255).
type ConfidenceThreshold uint8

// Kind implements Payload.
func (ConfidenceThreshold) Kind() Kind { return KindConfidenceThreshold }

func (p ConfidenceThreshold) marshal() ([]byte, error) {
	return []byte{byte(p)}, nil
}

// DeviceReset requests a device reset. It has no parameters; its payload is
// always ResetSentinel.
type DeviceReset struct{}

// Kind implements Payload.
func (DeviceReset) Kind() Kind { return KindDeviceReset }

func (DeviceReset) marshal() ([]byte, error) {
	buf := make([]byte, resetPayloadSize)
	binary.LittleEndian.PutUint32(buf, ResetSentinel)
	return buf, nil
}

// ISP3ACommand is a free-form auto-exposure/auto-focus/auto-white-balance
// command for the image signal processor.
type ISP3ACommand struct {
	CameraID  int
	CommandID int
	ExtraArgs string
}

// Kind implements Payload.
func (ISP3ACommand) Kind() Kind { return KindISP3A }

func (p ISP3ACommand) marshal() ([]byte, error) {
	text, err := FormatISP3A(p.CameraID, p.CommandID, p.ExtraArgs)
	buf := make([]byte, len(text)+1)
	copy(buf, text)
	return buf, err
}
