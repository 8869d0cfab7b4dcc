package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-capture/internal/capture"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/mqtt"
)

// =============================================================================
// Test doubles
// =============================================================================

type publishedMsg struct {
	topic    string
	payload  []byte
	retained bool
}

type mockMQTT struct {
	mu           sync.Mutex
	connected    bool
	published    []publishedMsg
	handlers     map[string]mqtt.MessageHandler
	subscribeErr error
}

func newMockMQTT() *mockMQTT {
	return &mockMQTT{connected: true, handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *mockMQTT) Publish(topic string, payload []byte, _ byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, publishedMsg{topic, payload, retained})
	return nil
}

func (m *mockMQTT) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	if m.subscribeErr != nil {
		return m.subscribeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *mockMQTT) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.handlers, topic)
	return nil
}

func (m *mockMQTT) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockMQTT) messagesOn(topic string) []publishedMsg {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []publishedMsg
	for _, p := range m.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func (m *mockMQTT) lastAck(t *testing.T, stream string) AckMessage {
	t.Helper()
	msgs := m.messagesOn(mqtt.Topics{}.StreamAck(stream))
	if len(msgs) == 0 {
		t.Fatalf("no ack published for stream %q", stream)
	}
	var ack AckMessage
	if err := json.Unmarshal(msgs[len(msgs)-1].payload, &ack); err != nil {
		t.Fatalf("ack is not JSON: %v", err)
	}
	return ack
}

type recordingNotifier struct {
	mu      sync.Mutex
	packets []capture.Packet
}

func (r *recordingNotifier) Notify(_ capture.StreamInfo, p capture.Packet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packets = append(r.packets, p)
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.packets)
}

// newTestBridge builds a bridge with a reject-policy "color" stream and a
// truncate-policy "depth" stream.
func newTestBridge(t *testing.T) (*Bridge, *mockMQTT, *recordingNotifier) {
	t.Helper()

	rec := &recordingNotifier{}
	client := newMockMQTT()
	b, err := NewBridge(Options{
		Commanders: capture.Commanders{
			"color": capture.NewCommander(capture.StreamInfo{Name: "color"}, rec),
			"depth": capture.NewCommander(capture.StreamInfo{Name: "depth"}, rec,
				capture.WithTruncationPolicy(capture.TruncationSend)),
		},
		MQTTClient: client,
		Version:    "test",
	})
	if err != nil {
		t.Fatalf("NewBridge() error = %v", err)
	}
	return b, client, rec
}

// =============================================================================
// Construction
// =============================================================================

func TestNewBridgeValidation(t *testing.T) {
	if _, err := NewBridge(Options{MQTTClient: newMockMQTT()}); err == nil {
		t.Error("NewBridge() without commanders should fail")
	}
	cs := capture.Commanders{"color": capture.NewCommander(capture.StreamInfo{Name: "color"}, nil)}
	if _, err := NewBridge(Options{Commanders: cs}); err == nil {
		t.Error("NewBridge() without MQTT client should fail")
	}
}

func TestStartSubscribesAndStopUnsubscribes(t *testing.T) {
	b, client, _ := newTestBridge(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := b.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	client.mu.Lock()
	_, subscribed := client.handlers["graylogic/command/capture/+"]
	client.mu.Unlock()
	if !subscribed {
		t.Fatal("bridge did not subscribe to capture requests")
	}

	b.Stop()
	b.Stop() // idempotent

	client.mu.Lock()
	remaining := len(client.handlers)
	client.mu.Unlock()
	if remaining != 0 {
		t.Errorf("handlers after Stop = %d, want 0", remaining)
	}

	health := client.messagesOn(mqtt.Topics{}.Health())
	if len(health) < 2 {
		t.Fatalf("health messages = %d, want starting and stopping", len(health))
	}
	var last HealthMessage
	if err := json.Unmarshal(health[len(health)-1].payload, &last); err != nil {
		t.Fatalf("health is not JSON: %v", err)
	}
	if last.Status != HealthStopping || !health[len(health)-1].retained {
		t.Errorf("final health = %+v", last)
	}
}

func TestStartSubscribeError(t *testing.T) {
	b, client, _ := newTestBridge(t)
	client.subscribeErr = errors.New("not connected")

	if err := b.Start(context.Background()); err == nil {
		t.Fatal("Start() should fail when subscribe fails")
	}
}

// =============================================================================
// Request handling
// =============================================================================

func TestHandleMessageAccepted(t *testing.T) {
	b, client, rec := newTestBridge(t)

	payload := `{"id":"c-1","timestamp":"2026-10-19T12:00:00Z","command":"isp_3a",
		"parameters":{"camera_id":2,"command_id":7,"args":"foo"}}`
	if err := b.HandleMessage("graylogic/command/capture/color", []byte(payload)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("packets = %d, want 1", rec.count())
	}
	if got := string(rec.packets[0].Data); got != "3A 7 2 foo\x00" {
		t.Errorf("packet data = %q", got)
	}

	ack := client.lastAck(t, "color")
	if ack.CommandID != "c-1" || ack.Stream != "color" || ack.Status != AckAccepted || ack.Error != nil {
		t.Errorf("ack = %+v", ack)
	}
	if got := b.Statistics(); got != (Statistics{Received: 1, Accepted: 1}) {
		t.Errorf("Statistics() = %+v", got)
	}
}

func TestHandleMessageFailures(t *testing.T) {
	long := strings.Repeat("x", 400)

	tests := []struct {
		name     string
		topic    string
		payload  string
		stream   string
		wantCode string
	}{
		{"bad json", "graylogic/command/capture/color", `{`, "color", ErrCodeInvalidMessage},
		{"bad timestamp", "graylogic/command/capture/color", `{"id":"x","timestamp":"yesterday","command":"af_trigger"}`, "color", ErrCodeInvalidMessage},
		{"stream mismatch", "graylogic/command/capture/color", `{"id":"x","stream":"depth","command":"af_trigger"}`, "color", ErrCodeInvalidMessage},
		{"unknown stream", "graylogic/command/capture/ir", `{"id":"x","command":"af_trigger"}`, "ir", ErrCodeUnknownStream},
		{"unknown command", "graylogic/command/capture/color", `{"id":"x","command":"zoom"}`, "color", ErrCodeInvalidCommand},
		{"bad parameters", "graylogic/command/capture/color", `{"id":"x","command":"confidence_threshold","parameters":{"threshold":300}}`, "color", ErrCodeInvalidParameters},
		{"rejected truncation", "graylogic/command/capture/color", `{"id":"x","command":"isp_3a","parameters":{"camera_id":1,"command_id":1,"args":"` + long + `"}}`, "color", ErrCodePayloadTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, client, rec := newTestBridge(t)

			if err := b.HandleMessage(tt.topic, []byte(tt.payload)); err == nil {
				t.Error("HandleMessage() error = nil, want failure")
			}
			if rec.count() != 0 {
				t.Errorf("packets = %d, want 0", rec.count())
			}

			ack := client.lastAck(t, tt.stream)
			if ack.Status != AckFailed || ack.Error == nil || ack.Error.Code != tt.wantCode {
				t.Errorf("ack = %+v, want failed with %s", ack, tt.wantCode)
			}
			if got := b.Statistics(); got.Failed != 1 || got.Accepted != 0 {
				t.Errorf("Statistics() = %+v", got)
			}
		})
	}
}

func TestHandleMessageUnexpectedTopic(t *testing.T) {
	b, client, _ := newTestBridge(t)

	if err := b.HandleMessage("graylogic/command/capture/color/extra", []byte(`{}`)); err == nil {
		t.Error("HandleMessage() should reject nested topics")
	}
	if len(client.published) != 0 {
		t.Errorf("published %d messages for an unroutable topic", len(client.published))
	}
}

func TestHandleMessageTruncatedButSent(t *testing.T) {
	b, client, rec := newTestBridge(t)

	payload := `{"id":"t-1","command":"isp_3a","parameters":{"camera_id":2,"command_id":7,"args":"` +
		strings.Repeat("y", 300) + `"}}`
	if err := b.HandleMessage("graylogic/command/capture/depth", []byte(payload)); err != nil {
		t.Fatalf("HandleMessage() error = %v", err)
	}

	if rec.count() != 1 {
		t.Fatalf("packets = %d, want 1", rec.count())
	}
	if rec.packets[0].Size != capture.ISP3ABufferSize {
		t.Errorf("packet size = %d, want %d", rec.packets[0].Size, capture.ISP3ABufferSize)
	}

	ack := client.lastAck(t, "depth")
	if ack.Status != AckAccepted || ack.Error == nil || ack.Error.Code != ErrCodePayloadTruncated {
		t.Fatalf("ack = %+v", ack)
	}
	if want := 7 + 300 - capture.ISP3AMaxText; ack.Error.Dropped != want {
		t.Errorf("Dropped = %d, want %d", ack.Error.Dropped, want)
	}
}

func TestExecuteDoesNotPublish(t *testing.T) {
	b, client, rec := newTestBridge(t)

	ack := b.Execute(CommandMessage{ID: "api-1", Stream: "color", Command: "device_reset", Source: "api"})
	if ack.Status != AckAccepted {
		t.Fatalf("ack = %+v", ack)
	}
	if rec.count() != 1 || rec.packets[0].Kind != capture.KindDeviceReset {
		t.Errorf("packets = %+v", rec.packets)
	}
	if len(client.published) != 0 {
		t.Errorf("Execute published %d messages", len(client.published))
	}
}

func TestStreamFromTopic(t *testing.T) {
	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"graylogic/command/capture/color", "color", true},
		{"graylogic/command/capture/", "", false},
		{"graylogic/command/capture/a/b", "", false},
		{"graylogic/command/knx/1/2/3", "", false},
	}

	for _, tt := range tests {
		got, ok := streamFromTopic(tt.topic)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("streamFromTopic(%q) = (%q, %v), want (%q, %v)", tt.topic, got, ok, tt.want, tt.wantOK)
		}
	}
}

// =============================================================================
// Messages
// =============================================================================

func TestCommandMessageTimestamp(t *testing.T) {
	var cmd CommandMessage
	if err := json.Unmarshal([]byte(`{"id":"a","timestamp":"2026-10-19T12:00:00Z","command":"af_trigger"}`), &cmd); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if !cmd.Timestamp.Equal(time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Timestamp = %v", cmd.Timestamp)
	}

	var noTime CommandMessage
	if err := json.Unmarshal([]byte(`{"id":"b","command":"af_trigger"}`), &noTime); err != nil {
		t.Fatalf("Unmarshal() without timestamp error = %v", err)
	}
	if !noTime.Timestamp.IsZero() || noTime.ID != "b" {
		t.Errorf("message = %+v", noTime)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{capture.ErrUnknownStream, ErrCodeUnknownStream},
		{capture.ErrUnknownCommand, ErrCodeInvalidCommand},
		{capture.ErrInvalidParameters, ErrCodeInvalidParameters},
		{&capture.TruncationError{Limit: 255, Dropped: 3}, ErrCodePayloadTruncated},
		{errInvalidMessage, ErrCodeInvalidMessage},
		{errors.New("other"), ErrCodeBridgeError},
	}

	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestHandleMessage_Concurrent(t *testing.T) {
	b, client, rec := newTestBridge(t)
	topic := mqtt.Topics{}.StreamCommand("color")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			//nolint:errcheck // Acks are checked below
			b.HandleMessage(topic, []byte(`{"id":"c","command":"device_reset"}`))
		}()
	}
	wg.Wait()

	if rec.count() != n {
		t.Errorf("notifications = %d, want %d", rec.count(), n)
	}
	if acks := client.messagesOn(mqtt.Topics{}.StreamAck("color")); len(acks) != n {
		t.Errorf("acks = %d, want %d", len(acks), n)
	}
	if stats := b.Statistics(); stats.Received != n || stats.Accepted != n || stats.Failed != 0 {
		t.Errorf("Statistics() = %+v", stats)
	}
}
