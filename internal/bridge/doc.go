// Package bridge accepts capture requests over MQTT and runs them against
// the stream's capture.Commander.
//
// Requests arrive on graylogic/command/capture/{stream} as JSON:
//
//	{"id":"c-1","timestamp":"2026-10-19T12:00:00Z","stream":"color",
//	 "command":"isp_3a","parameters":{"camera_id":2,"command_id":7,"args":"foo"},
//	 "source":"api"}
//
// Each request is answered on graylogic/ack/capture/{stream}. An
// "accepted" ack means the packet was handed to the stream's observers;
// there is no delivery confirmation beyond that. Health is published on
// graylogic/health/capture at a fixed interval.
package bridge
