// Package influxdb provides InfluxDB connectivity for the capture bridge.
//
// It wraps the official influxdb-client-go v2 library and records one
// capture_packets point per packet dispatched to a stream:
//
//	capture_packets,stream=color,kind=isp_3a,device_id=cam0 size=11i,packet_number=0i
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry turned off
//	}
//	defer client.Close()
//
//	client.WritePacketMetric(influxdb.PacketSample{Stream: "color", Kind: "metadata", Size: 8})
//
// Writes are batched per batch_size / flush_interval and never block the
// caller. Connection and health check errors are returned directly.
package influxdb
