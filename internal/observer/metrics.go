package observer

import (
	"github.com/nerrad567/gray-logic-capture/internal/capture"
	"github.com/nerrad567/gray-logic-capture/internal/infrastructure/influxdb"
)

// MetricWriter accepts packet samples. *influxdb.Client satisfies it.
type MetricWriter interface {
	WritePacketMetric(sample influxdb.PacketSample)
}

// Metrics writes one capture_packets point per packet.
// Writes are batched by the client; errors surface on its error callback.
type Metrics struct {
	writer MetricWriter
}

// NewMetrics creates a Metrics observer.
func NewMetrics(writer MetricWriter) *Metrics {
	return &Metrics{writer: writer}
}

// Notify implements capture.Notifier.
func (m *Metrics) Notify(stream capture.StreamInfo, packet capture.Packet) {
	m.writer.WritePacketMetric(influxdb.PacketSample{
		Stream:       stream.Name,
		DeviceID:     stream.DeviceID,
		Kind:         packet.Kind.String(),
		Size:         packet.Size,
		PacketNumber: packet.Number,
	})
}
