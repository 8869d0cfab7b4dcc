package capture

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// MetadataSize is the exact serialized size of a CaptureMetadata value.
const MetadataSize = 8

// MetadataKind identifies which capture-control intent a CaptureMetadata carries.
type MetadataKind uint32

// Metadata kinds. Zero is reserved so an empty value never encodes a real command.
const (
	MetadataStillCapture     MetadataKind = 1
	MetadataAutofocusMode    MetadataKind = 2
	MetadataAutofocusTrigger MetadataKind = 3
)

// String returns the wire name of the metadata kind.
func (k MetadataKind) String() string {
	switch k {
	case MetadataStillCapture:
		return "still_capture"
	case MetadataAutofocusMode:
		return "af_mode"
	case MetadataAutofocusTrigger:
		return "af_trigger"
	default:
		return fmt.Sprintf("metadata(%d)", uint32(k))
	}
}

// AutofocusMode selects the camera's autofocus behaviour.
type AutofocusMode uint32

// Autofocus modes understood by the device firmware.
const (
	AutofocusAuto              AutofocusMode = 0
	AutofocusMacro             AutofocusMode = 1
	AutofocusContinuousVideo   AutofocusMode = 2
	AutofocusContinuousPicture AutofocusMode = 3
	AutofocusEDOF              AutofocusMode = 4
)

// autofocusModeNames maps modes to their request/config names.
var autofocusModeNames = map[AutofocusMode]string{
	AutofocusAuto:              "auto",
	AutofocusMacro:             "macro",
	AutofocusContinuousVideo:   "continuous_video",
	AutofocusContinuousPicture: "continuous_picture",
	AutofocusEDOF:              "edof",
}

// String returns the request name of the mode (e.g. "continuous_video").
func (m AutofocusMode) String() string {
	if name, ok := autofocusModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("af_mode(%d)", uint32(m))
}

// ParseAutofocusMode converts a request name to an AutofocusMode.
// Matching is case-insensitive and accepts '-' in place of '_'.
func ParseAutofocusMode(name string) (AutofocusMode, error) {
	normalised := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	for mode, modeName := range autofocusModeNames {
		if modeName == normalised {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown autofocus mode %q", ErrInvalidParameters, name)
}

// CaptureMetadata describes one capture-control intent. Values are built by
// the named factories below and consumed immediately by the encoder.
type CaptureMetadata struct {
	Kind          MetadataKind
	AutofocusMode AutofocusMode
}

// NewStillCapture returns metadata requesting a single still capture.
func NewStillCapture() CaptureMetadata {
	return CaptureMetadata{Kind: MetadataStillCapture}
}

// NewAutofocusMode returns metadata switching the autofocus mode.
func NewAutofocusMode(mode AutofocusMode) CaptureMetadata {
	return CaptureMetadata{Kind: MetadataAutofocusMode, AutofocusMode: mode}
}

// NewAutofocusTrigger returns metadata triggering one autofocus cycle.
func NewAutofocusTrigger() CaptureMetadata {
	return CaptureMetadata{Kind: MetadataAutofocusTrigger}
}

// MarshalBinary encodes the metadata into its fixed 8-byte layout.
// It never fails; the error return satisfies encoding.BinaryMarshaler.
func (m CaptureMetadata) MarshalBinary() ([]byte, error) {
	buf := make([]byte, MetadataSize)
	binary.LittleEndian.PutUint32(buf[0:4], uint32(m.Kind))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(m.AutofocusMode))
	return buf, nil
}

// UnmarshalBinary decodes the fixed 8-byte layout.
func (m *CaptureMetadata) UnmarshalBinary(data []byte) error {
	if len(data) != MetadataSize {
		return fmt.Errorf("%w: metadata is %d bytes, want %d", ErrMalformedPayload, len(data), MetadataSize)
	}
	m.Kind = MetadataKind(binary.LittleEndian.Uint32(data[0:4]))
	m.AutofocusMode = AutofocusMode(binary.LittleEndian.Uint32(data[4:8]))
	return nil
}
