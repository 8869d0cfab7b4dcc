package capture

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"
)

func TestEncode_SizeMatchesPayload(t *testing.T) {
	tests := []struct {
		name     string
		packet   Packet
		wantKind Kind
		wantData []byte
	}{
		{
			name:     "still capture",
			packet:   EncodeMetadata(NewStillCapture()),
			wantKind: KindMetadata,
			wantData: []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:     "autofocus mode continuous video",
			packet:   EncodeMetadata(NewAutofocusMode(AutofocusContinuousVideo)),
			wantKind: KindMetadata,
			wantData: []byte{0x02, 0x00, 0x00, 0x00, 0x02, 0x00, 0x00, 0x00},
		},
		{
			name:     "autofocus trigger",
			packet:   EncodeMetadata(NewAutofocusTrigger()),
			wantKind: KindMetadata,
			wantData: []byte{0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
		},
		{
			name:     "confidence threshold",
			packet:   EncodeConfidenceThreshold(200),
			wantKind: KindConfidenceThreshold,
			wantData: []byte{200},
		},
		{
			name:     "device reset",
			packet:   EncodeDeviceReset(),
			wantKind: KindDeviceReset,
			wantData: []byte{0xAD, 0xDE, 0xAD, 0xDE},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.packet.Number != 0 {
				t.Errorf("Number = %d, want 0", tt.packet.Number)
			}
			if tt.packet.Kind != tt.wantKind {
				t.Errorf("Kind = %v, want %v", tt.packet.Kind, tt.wantKind)
			}
			if tt.packet.Size != len(tt.packet.Data) {
				t.Errorf("Size = %d, len(Data) = %d", tt.packet.Size, len(tt.packet.Data))
			}
			if !bytes.Equal(tt.packet.Data, tt.wantData) {
				t.Errorf("Data = % X, want % X", tt.packet.Data, tt.wantData)
			}
		})
	}
}

func TestEncodeMetadata_Size(t *testing.T) {
	pkt := EncodeMetadata(NewStillCapture())
	if pkt.Size != MetadataSize {
		t.Errorf("Size = %d, want %d", pkt.Size, MetadataSize)
	}
}

func TestEncodeDeviceReset_Sentinel(t *testing.T) {
	for i := 0; i < 3; i++ {
		pkt := EncodeDeviceReset()
		if pkt.Size != 4 {
			t.Fatalf("Size = %d, want 4", pkt.Size)
		}
		if got := binary.LittleEndian.Uint32(pkt.Data); got != 0xDEADDEAD {
			t.Errorf("sentinel = 0x%08X, want 0xDEADDEAD", got)
		}
	}
}

func TestEncodeISP3A(t *testing.T) {
	pkt, err := EncodeISP3A(2, 7, "foo")
	if err != nil {
		t.Fatalf("EncodeISP3A() error = %v", err)
	}

	want := []byte("3A 7 2 foo\x00")
	if !bytes.Equal(pkt.Data, want) {
		t.Errorf("Data = %q, want %q", pkt.Data, want)
	}
	if pkt.Size != 11 {
		t.Errorf("Size = %d, want 11", pkt.Size)
	}
	if pkt.Number != 0 {
		t.Errorf("Number = %d, want 0", pkt.Number)
	}
	if pkt.Kind != KindISP3A {
		t.Errorf("Kind = %v, want %v", pkt.Kind, KindISP3A)
	}
}

func TestEncodeISP3A_EmptyArgs(t *testing.T) {
	pkt, err := EncodeISP3A(0, 1, "")
	if err != nil {
		t.Fatalf("EncodeISP3A() error = %v", err)
	}
	if got := string(pkt.Data); got != "3A 1 0 \x00" {
		t.Errorf("Data = %q, want %q", got, "3A 1 0 \x00")
	}
}

func TestEncodeISP3A_ExactFit(t *testing.T) {
	// "3A 7 2 " is 7 characters.
	args := strings.Repeat("a", ISP3AMaxText-7)

	pkt, err := EncodeISP3A(2, 7, args)
	if err != nil {
		t.Fatalf("EncodeISP3A() error = %v", err)
	}
	if pkt.Size != ISP3ABufferSize {
		t.Errorf("Size = %d, want %d", pkt.Size, ISP3ABufferSize)
	}
	if pkt.Data[pkt.Size-1] != 0 {
		t.Error("payload is not NUL-terminated")
	}
}

func TestEncodeISP3A_Truncation(t *testing.T) {
	args := strings.Repeat("x", 300)

	pkt, err := EncodeISP3A(2, 7, args)
	if !errors.Is(err, ErrPayloadTruncated) {
		t.Fatalf("EncodeISP3A() error = %v, want ErrPayloadTruncated", err)
	}

	var truncErr *TruncationError
	if !errors.As(err, &truncErr) {
		t.Fatalf("error %T is not *TruncationError", err)
	}
	if truncErr.Dropped != 7+300-ISP3AMaxText {
		t.Errorf("Dropped = %d, want %d", truncErr.Dropped, 7+300-ISP3AMaxText)
	}
	if truncErr.Limit != ISP3AMaxText {
		t.Errorf("Limit = %d, want %d", truncErr.Limit, ISP3AMaxText)
	}

	if pkt.Size > ISP3ABufferSize {
		t.Errorf("Size = %d exceeds buffer %d", pkt.Size, ISP3ABufferSize)
	}
	if pkt.Size != len(pkt.Data) {
		t.Errorf("Size = %d, len(Data) = %d", pkt.Size, len(pkt.Data))
	}
	if pkt.Data[pkt.Size-1] != 0 {
		t.Error("truncated payload is not NUL-terminated")
	}
	if n := bytes.IndexByte(pkt.Data, 0); n != ISP3AMaxText {
		t.Errorf("text length = %d, want %d", n, ISP3AMaxText)
	}
	if !bytes.HasPrefix(pkt.Data, []byte("3A 7 2 xxx")) {
		t.Errorf("payload prefix = %q", pkt.Data[:10])
	}
}

func TestEncodeISP3A_EmbeddedNUL(t *testing.T) {
	pkt, err := EncodeISP3A(2, 7, "foo\x00bar")
	if err != nil {
		t.Fatalf("EncodeISP3A() error = %v", err)
	}

	if string(pkt.Data) != "3A 7 2 foo\x00" {
		t.Errorf("Data = %q, want %q", pkt.Data, "3A 7 2 foo\x00")
	}
	if pkt.Size != bytes.IndexByte(pkt.Data, 0)+1 {
		t.Errorf("Size = %d, want text length + 1 = %d", pkt.Size, bytes.IndexByte(pkt.Data, 0)+1)
	}

	decoded, err := Decode(pkt.Kind, pkt.Data[:pkt.Size])
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	cmd, ok := decoded.(ISP3ACommand)
	if !ok {
		t.Fatalf("Decode() = %T, want ISP3ACommand", decoded)
	}
	if cmd.CameraID != 2 || cmd.CommandID != 7 || cmd.ExtraArgs != "foo" {
		t.Errorf("decoded = %+v", cmd)
	}
}

func TestEncodeISP3A_TruncationKeepsRunes(t *testing.T) {
	// "3A 7 2 a" is 8 bytes, so the two-byte runes put the limit mid-rune.
	args := "a" + strings.Repeat("é", 130)

	pkt, err := EncodeISP3A(2, 7, args)
	var truncErr *TruncationError
	if !errors.As(err, &truncErr) {
		t.Fatalf("EncodeISP3A() error = %v, want *TruncationError", err)
	}

	text := pkt.Data[:pkt.Size-1]
	if !utf8.Valid(text) {
		t.Errorf("truncated text is not valid UTF-8: %q", text)
	}
	if len(text) != ISP3AMaxText-1 {
		t.Errorf("text length = %d, want %d", len(text), ISP3AMaxText-1)
	}
	if truncErr.Dropped != 8+2*130-len(text) {
		t.Errorf("Dropped = %d, want %d", truncErr.Dropped, 8+2*130-len(text))
	}

	if _, err := Decode(pkt.Kind, pkt.Data); err != nil {
		t.Errorf("Decode() error = %v", err)
	}
}

func TestEncode_Idempotent(t *testing.T) {
	first := EncodeMetadata(NewAutofocusMode(AutofocusMacro))
	second := EncodeMetadata(NewAutofocusMode(AutofocusMacro))

	if !bytes.Equal(first.Data, second.Data) {
		t.Errorf("payloads differ: % X vs % X", first.Data, second.Data)
	}
	first.Data[0] = 0xFF
	if second.Data[0] == 0xFF {
		t.Error("packets share a payload buffer")
	}
}

func TestStreamInfo_String(t *testing.T) {
	tests := []struct {
		stream StreamInfo
		want   string
	}{
		{StreamInfo{Name: "color"}, "color"},
		{StreamInfo{Name: "left", DeviceID: "oak-d-01"}, "left@oak-d-01"},
	}
	for _, tt := range tests {
		if got := tt.stream.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestKind_StringRoundTrip(t *testing.T) {
	for _, k := range []Kind{KindMetadata, KindConfidenceThreshold, KindDeviceReset, KindISP3A} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) error = %v", k.String(), err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v, want %v", k.String(), got, k)
		}
	}

	if _, err := ParseKind("telemetry"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(telemetry) error = %v, want ErrUnknownKind", err)
	}
}
