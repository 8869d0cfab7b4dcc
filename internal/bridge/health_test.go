package bridge

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/mqtt"
)

func TestHealthReporterPeriodic(t *testing.T) {
	client := newMockMQTT()
	h := NewHealthReporter(HealthReporterConfig{
		Version:   "1.2.3",
		Interval:  10 * time.Millisecond,
		Publisher: client,
		Streams:   []string{"color"},
		Stats:     func() Statistics { return Statistics{Received: 4, Accepted: 3, Failed: 1} },
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for len(client.messagesOn(mqtt.Topics{}.Health())) < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	h.Stop()

	msgs := client.messagesOn(mqtt.Topics{}.Health())
	if len(msgs) < 3 {
		t.Fatalf("health messages = %d, want at least 3", len(msgs))
	}

	var first HealthMessage
	if err := json.Unmarshal(msgs[0].payload, &first); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if first.Status != HealthHealthy || first.Version != "1.2.3" || first.Bridge != "capture" {
		t.Errorf("first = %+v", first)
	}
	if first.Statistics.Received != 4 || len(first.Streams) != 1 {
		t.Errorf("first = %+v", first)
	}
	if !msgs[0].retained {
		t.Error("health must be retained")
	}
}

func TestHealthReporterSkipsWhenDisconnected(t *testing.T) {
	client := newMockMQTT()
	client.connected = false
	h := NewHealthReporter(HealthReporterConfig{Publisher: client, Streams: []string{"color"}})

	h.publishCurrent()

	if n := len(client.messagesOn(mqtt.Topics{}.Health())); n != 0 {
		t.Errorf("published %d health messages while disconnected", n)
	}
}

func TestHealthReporterDegradedWithoutStreams(t *testing.T) {
	h := NewHealthReporter(HealthReporterConfig{Publisher: newMockMQTT()})

	msg := h.Message(HealthDegraded, "no streams configured")
	if msg.Status != HealthDegraded || msg.Reason == "" {
		t.Errorf("Message() = %+v", msg)
	}
	if h.interval != defaultHealthInterval {
		t.Errorf("interval = %v, want default", h.interval)
	}
}
