// Package capture encodes capture-control commands into stream packets and
// hands them to the observers of a logical output stream.
//
// The package has two halves:
//
//   - Encoder: pure functions that turn a typed command (still capture,
//     autofocus mode, autofocus trigger, confidence threshold, device reset,
//     ISP 3A text command) into a Packet.
//   - Commander: binds packets to one StreamInfo and makes exactly one
//     Notifier call per command.
//
// # Wire payloads
//
//	Kind                  Bytes
//	metadata              8 bytes: uint32 LE metadata kind, uint32 LE autofocus mode
//	confidence_threshold  1 byte, unsigned
//	device_reset          4 bytes: 0xDEADDEAD, little-endian
//	isp_3a                "3A <command_id> <camera_id> <extra_args>" + NUL, max 256 bytes
//
// Every Packet carries its Kind next to the serialized bytes, so receivers
// decode by kind (see Decode) and bound reads by Packet.Size.
//
// # Delivery
//
// The Commander never retries, queues or waits for acknowledgement. Zero
// observers is a silent no-op. The only error it reports is an ISP 3A
// command that does not fit the 256-byte payload limit.
//
// # Usage
//
//	cmd := capture.NewCommander(capture.StreamInfo{Name: "color"}, notifier)
//	cmd.Capture()
//	cmd.SetAutofocusMode(capture.AutofocusContinuousVideo)
//	if err := cmd.SendISP3A(0, 7, "exposure 1000"); err != nil {
//	    log.Warn("3A command rejected", "error", err)
//	}
package capture
