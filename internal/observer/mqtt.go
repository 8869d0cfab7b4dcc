package observer

import (
	"github.com/nerrad567/gray-logic-capture/internal/capture"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/mqtt"
)

// MQTTClient is the publishing side of the MQTT client.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTT publishes each packet's raw bytes to
// graylogic/capture/{stream}/{kind}. Messages are never retained.
type MQTT struct {
	client MQTTClient
	qos    byte
	logger Logger
}

// NewMQTT creates an MQTT observer.
func NewMQTT(client MQTTClient, qos byte, logger Logger) *MQTT {
	if logger == nil {
		logger = noopLogger{}
	}
	return &MQTT{client: client, qos: qos, logger: logger}
}

// Notify implements capture.Notifier.
func (m *MQTT) Notify(stream capture.StreamInfo, packet capture.Packet) {
	topic := mqtt.Topics{}.StreamPacket(stream.Name, packet.Kind.String())
	if err := m.client.Publish(topic, packet.Data, m.qos, false); err != nil {
		m.logger.Warn("publishing capture packet failed",
			"stream", stream.Name,
			"kind", packet.Kind.String(),
			"topic", topic,
			"error", err,
		)
	}
}
