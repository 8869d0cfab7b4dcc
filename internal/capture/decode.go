package capture

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// Decode parses packet bytes back into a typed Payload.
//
// It is the receiver-side counterpart of Encode. Reads are bounded by
// len(data); any deviation from the layout documented for kind returns
// ErrMalformedPayload.
func Decode(kind Kind, data []byte) (Payload, error) {
	switch kind {
	case KindMetadata:
		var meta CaptureMetadata
		if err := meta.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return MetadataPayload{Metadata: meta}, nil

	case KindConfidenceThreshold:
		if len(data) != 1 {
			return nil, fmt.Errorf("%w: confidence threshold is %d bytes, want 1", ErrMalformedPayload, len(data))
		}
		return ConfidenceThreshold(data[0]), nil

	case KindDeviceReset:
		if len(data) != resetPayloadSize {
			return nil, fmt.Errorf("%w: reset is %d bytes, want %d", ErrMalformedPayload, len(data), resetPayloadSize)
		}
		if v := binary.LittleEndian.Uint32(data); v != ResetSentinel {
			return nil, fmt.Errorf("%w: reset sentinel 0x%08X", ErrMalformedPayload, v)
		}
		return DeviceReset{}, nil

	case KindISP3A:
		return decodeISP3A(data)

	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(kind))
	}
}

// decodeISP3A parses "3A <command_id> <camera_id> <extra_args>\x00".
func decodeISP3A(data []byte) (Payload, error) {
	if len(data) == 0 || len(data) > ISP3ABufferSize {
		return nil, fmt.Errorf("%w: isp 3a payload is %d bytes", ErrMalformedPayload, len(data))
	}
	end := bytes.IndexByte(data, 0)
	if end != len(data)-1 {
		return nil, fmt.Errorf("%w: isp 3a payload is not NUL-terminated", ErrMalformedPayload)
	}

	text, ok := strings.CutPrefix(string(data[:end]), "3A ")
	if !ok {
		return nil, fmt.Errorf("%w: isp 3a payload missing \"3A \" prefix", ErrMalformedPayload)
	}

	fields := strings.SplitN(text, " ", 3) //nolint:mnd // command id, camera id, extra args
	if len(fields) < 2 {
		return nil, fmt.Errorf("%w: isp 3a payload %q", ErrMalformedPayload, text)
	}

	commandID, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: isp 3a command id %q", ErrMalformedPayload, fields[0])
	}
	cameraID, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("%w: isp 3a camera id %q", ErrMalformedPayload, fields[1])
	}

	cmd := ISP3ACommand{CameraID: cameraID, CommandID: commandID}
	if len(fields) == 3 { //nolint:mnd // extra args present
		cmd.ExtraArgs = fields[2]
	}
	return cmd, nil
}
