package capture

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
)

// recordingNotifier captures every Notify call for assertions.
type recordingNotifier struct {
	mu      sync.Mutex
	streams []StreamInfo
	packets []Packet
}

func (r *recordingNotifier) Notify(stream StreamInfo, packet Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = append(r.streams, stream)
	r.packets = append(r.packets, packet)
}

func (r *recordingNotifier) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.packets)
}

// testLogger records warnings.
type testLogger struct {
	warnings []string
}

func (l *testLogger) Debug(string, ...any) {}

func (l *testLogger) Warn(msg string, _ ...any) {
	l.warnings = append(l.warnings, msg)
}

var testStream = StreamInfo{Name: "color", DeviceID: "oak-01", Channel: 0}

func TestCommander_MetadataCommandsNotifyOnce(t *testing.T) {
	tests := []struct {
		name     string
		send     func(c *Commander)
		wantMeta CaptureMetadata
	}{
		{"capture", func(c *Commander) { c.Capture() }, NewStillCapture()},
		{"autofocus mode", func(c *Commander) { c.SetAutofocusMode(AutofocusContinuousPicture) }, NewAutofocusMode(AutofocusContinuousPicture)},
		{"autofocus trigger", func(c *Commander) { c.TriggerAutofocus() }, NewAutofocusTrigger()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingNotifier{}
			c := NewCommander(testStream, rec)

			tt.send(c)

			if rec.calls() != 1 {
				t.Fatalf("Notify calls = %d, want 1", rec.calls())
			}
			pkt := rec.packets[0]
			if pkt.Size != MetadataSize {
				t.Errorf("Size = %d, want %d", pkt.Size, MetadataSize)
			}
			if pkt.Kind != KindMetadata {
				t.Errorf("Kind = %v, want %v", pkt.Kind, KindMetadata)
			}
			if rec.streams[0] != testStream {
				t.Errorf("stream = %+v, want %+v", rec.streams[0], testStream)
			}

			want := EncodeMetadata(tt.wantMeta)
			if !bytes.Equal(pkt.Data, want.Data) {
				t.Errorf("Data = % X, want % X", pkt.Data, want.Data)
			}
		})
	}
}

func TestCommander_FixedPayloadCommands(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewCommander(testStream, rec)

	c.SendConfidenceThreshold(42)
	c.SendDeviceReset()

	if rec.calls() != 2 {
		t.Fatalf("Notify calls = %d, want 2", rec.calls())
	}
	if got := rec.packets[0]; got.Kind != KindConfidenceThreshold || got.Size != 1 || got.Data[0] != 42 {
		t.Errorf("threshold packet = %+v", got)
	}
	if got := rec.packets[1]; got.Kind != KindDeviceReset || !bytes.Equal(got.Data, []byte{0xAD, 0xDE, 0xAD, 0xDE}) {
		t.Errorf("reset packet = %+v", got)
	}
}

func TestCommander_PreservesOrder(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewCommander(testStream, rec)

	c.SendDeviceReset()
	c.Capture()
	c.SendConfidenceThreshold(1)
	if err := c.SendISP3A(0, 1, "x"); err != nil {
		t.Fatalf("SendISP3A() error = %v", err)
	}

	want := []Kind{KindDeviceReset, KindMetadata, KindConfidenceThreshold, KindISP3A}
	if rec.calls() != len(want) {
		t.Fatalf("Notify calls = %d, want %d", rec.calls(), len(want))
	}
	for i, k := range want {
		if rec.packets[i].Kind != k {
			t.Errorf("packet %d kind = %v, want %v", i, rec.packets[i].Kind, k)
		}
	}
}

func TestCommander_RepeatedCallsAreIdentical(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewCommander(testStream, rec)

	for i := 0; i < 3; i++ {
		c.SetAutofocusMode(AutofocusMacro)
	}

	for i := 1; i < rec.calls(); i++ {
		if !bytes.Equal(rec.packets[i].Data, rec.packets[0].Data) {
			t.Errorf("packet %d = % X, want % X", i, rec.packets[i].Data, rec.packets[0].Data)
		}
		if rec.streams[i] != testStream {
			t.Errorf("stream %d = %+v, want %+v", i, rec.streams[i], testStream)
		}
	}
	if c.Stream() != testStream {
		t.Errorf("Stream() = %+v, want %+v", c.Stream(), testStream)
	}
}

func TestCommander_SendISP3A(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewCommander(testStream, rec)

	if err := c.SendISP3A(2, 7, "foo"); err != nil {
		t.Fatalf("SendISP3A() error = %v", err)
	}
	if rec.calls() != 1 {
		t.Fatalf("Notify calls = %d, want 1", rec.calls())
	}
	if got := string(rec.packets[0].Data); got != "3A 7 2 foo\x00" {
		t.Errorf("Data = %q", got)
	}
	if rec.packets[0].Size != 11 {
		t.Errorf("Size = %d, want 11", rec.packets[0].Size)
	}
}

func TestCommander_SendISP3A_RejectsOversized(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewCommander(testStream, rec)
	if c.TruncationPolicy() != TruncationReject {
		t.Fatalf("default TruncationPolicy() = %q, want reject", c.TruncationPolicy())
	}

	err := c.SendISP3A(2, 7, strings.Repeat("x", 400))
	if !errors.Is(err, ErrPayloadTruncated) {
		t.Fatalf("SendISP3A() error = %v, want ErrPayloadTruncated", err)
	}
	if rec.calls() != 0 {
		t.Errorf("Notify calls = %d, want 0 under reject policy", rec.calls())
	}
}

func TestCommander_SendISP3A_SendsTruncated(t *testing.T) {
	rec := &recordingNotifier{}
	log := &testLogger{}
	c := NewCommander(testStream, rec, WithTruncationPolicy(TruncationSend), WithLogger(log))

	err := c.SendISP3A(2, 7, strings.Repeat("x", 400))

	var truncErr *TruncationError
	if !errors.As(err, &truncErr) {
		t.Fatalf("SendISP3A() error = %v, want *TruncationError", err)
	}
	if truncErr.Dropped != 7+400-ISP3AMaxText {
		t.Errorf("Dropped = %d, want %d", truncErr.Dropped, 7+400-ISP3AMaxText)
	}
	if rec.calls() != 1 {
		t.Fatalf("Notify calls = %d, want 1 under truncate policy", rec.calls())
	}
	pkt := rec.packets[0]
	if pkt.Size != ISP3ABufferSize || pkt.Data[pkt.Size-1] != 0 {
		t.Errorf("truncated packet size = %d, last byte = %#x", pkt.Size, pkt.Data[pkt.Size-1])
	}
	if len(log.warnings) != 1 {
		t.Errorf("warnings = %v, want one", log.warnings)
	}
}

func TestCommander_NilNotifier(t *testing.T) {
	c := NewCommander(testStream, nil)

	// Must not panic: zero observers is a no-op.
	c.Capture()
	c.SendDeviceReset()
	if err := c.SendISP3A(0, 0, ""); err != nil {
		t.Errorf("SendISP3A() error = %v", err)
	}
}

func TestNotifierFunc(t *testing.T) {
	var got Packet
	c := NewCommander(testStream, NotifierFunc(func(_ StreamInfo, p Packet) {
		got = p
	}))

	c.SendConfidenceThreshold(7)

	if got.Kind != KindConfidenceThreshold || got.Data[0] != 7 {
		t.Errorf("packet = %+v", got)
	}
}

func TestParseTruncationPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    TruncationPolicy
		wantErr bool
	}{
		{"", TruncationReject, false},
		{"reject", TruncationReject, false},
		{"TRUNCATE", TruncationSend, false},
		{"drop", "", true},
	}
	for _, tt := range tests {
		got, err := ParseTruncationPolicy(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseTruncationPolicy(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseTruncationPolicy(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
