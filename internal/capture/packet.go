package capture

import (
	"errors"
	"fmt"
)

// unsequenced is the packet number carried by every control packet. This
// layer does not sequence packets; ordering belongs to the transport.
const unsequenced = 0

// StreamInfo identifies the logical output stream a command targets.
// It is immutable and safe to share between goroutines.
type StreamInfo struct {
	// Name is the logical stream name (e.g. "color", "left").
	Name string

	// DeviceID identifies the physical or virtual device behind the stream.
	DeviceID string

	// Channel is the device-side channel index.
	Channel int
}

// String returns "name@device" or just the name when no device is set.
func (s StreamInfo) String() string {
	if s.DeviceID == "" {
		return s.Name
	}
	return fmt.Sprintf("%s@%s", s.Name, s.DeviceID)
}

// Packet is the wire unit handed to stream observers.
//
// Data is allocated fresh for each packet and is not reused after the
// notification call returns; observers that keep it past Notify may do so
// without copying, but must not modify it.
type Packet struct {
	// Number is always 0: control packets are unsequenced.
	Number uint32

	// Kind identifies the payload layout.
	Kind Kind

	// Data holds the serialized payload.
	Data []byte

	// Size is the exact payload length in bytes. Receivers bound reads by Size.
	Size int
}

// Encode serializes a payload into a packet.
//
// For ISP3ACommand payloads that exceed the text limit, Encode returns a
// valid packet holding the truncated, NUL-terminated text together with a
// *TruncationError. Callers decide whether to send it.
func Encode(p Payload) (Packet, error) {
	data, err := p.marshal()
	var truncErr *TruncationError
	if err != nil && !errors.As(err, &truncErr) {
		return Packet{}, fmt.Errorf("encoding %s payload: %w", p.Kind(), err)
	}

	pkt := Packet{
		Number: unsequenced,
		Kind:   p.Kind(),
		Data:   data,
		Size:   len(data),
	}
	if truncErr != nil {
		return pkt, truncErr
	}
	return pkt, nil
}

// mustEncode encodes payloads whose marshalling cannot fail.
func mustEncode(p Payload) Packet {
	pkt, err := Encode(p)
	if err != nil {
		panic(fmt.Sprintf("capture: encoding fixed-size %s payload: %v", p.Kind(), err))
	}
	return pkt
}

// EncodeMetadata builds the packet for a CaptureMetadata value.
func EncodeMetadata(meta CaptureMetadata) Packet {
	return mustEncode(MetadataPayload{Metadata: meta})
}

// EncodeConfidenceThreshold builds the 1-byte confidence threshold packet.
func EncodeConfidenceThreshold(threshold uint8) Packet {
	return mustEncode(ConfidenceThreshold(threshold))
}

// EncodeDeviceReset builds the 4-byte reset sentinel packet.
func EncodeDeviceReset() Packet {
	return mustEncode(DeviceReset{})
}

// EncodeISP3A builds the NUL-terminated ISP 3A text packet.
// See Encode for the truncation contract.
func EncodeISP3A(cameraID, commandID int, extraArgs string) (Packet, error) {
	return Encode(ISP3ACommand{CameraID: cameraID, CommandID: commandID, ExtraArgs: extraArgs})
}
