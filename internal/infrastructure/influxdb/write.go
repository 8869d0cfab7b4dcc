package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the capture bridge.
const (
	MeasurementPackets = "capture_packets"
)

// PacketSample describes one packet handed to a stream's observers.
type PacketSample struct {
	Stream       string
	DeviceID     string
	Kind         string
	Size         int
	PacketNumber uint32
	Time         time.Time
}

// packetPoint builds the capture_packets point for a sample.
// Stream, device and kind are tags; size and packet number are fields.
func packetPoint(s PacketSample) *write.Point {
	ts := s.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	tags := map[string]string{
		"stream": s.Stream,
		"kind":   s.Kind,
	}
	if s.DeviceID != "" {
		tags["device_id"] = s.DeviceID
	}

	return write.NewPoint(
		MeasurementPackets,
		tags,
		map[string]any{
			"size":          s.Size,
			"packet_number": int64(s.PacketNumber),
		},
		ts,
	)
}

// WritePacketMetric records a dispatched packet.
// Non-blocking; a disconnected client drops the sample silently.
//
// Example:
//
//	client.WritePacketMetric(influxdb.PacketSample{
//	    Stream: "color", Kind: "device_reset", Size: 4,
//	})
func (c *Client) WritePacketMetric(s PacketSample) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(packetPoint(s))
}
