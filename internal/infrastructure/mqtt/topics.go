package mqtt

import "fmt"

// Topic prefixes. All capture topics use the flat scheme
// graylogic/{category}/capture/{stream}[/{kind}].
const (
	// TopicPrefix is the base for all Gray Logic topics.
	TopicPrefix = "graylogic"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"

	// protocolCapture is the protocol segment used by the capture bridge.
	protocolCapture = "capture"
)

// Topics provides builders for capture bridge MQTT topics.
// Using these helpers keeps topic naming consistent between publishers
// and subscribers.
//
//	topics := mqtt.Topics{}
//	topics.StreamPacket("color", "device_reset")
//	// Returns: "graylogic/capture/color/device_reset"
type Topics struct{}

// StreamPacket returns the topic carrying raw packet bytes for one stream
// and packet kind. Device-side observers subscribe here.
//
// Example: graylogic/capture/color/isp_3a
func (Topics) StreamPacket(stream, kind string) string {
	return fmt.Sprintf("%s/%s/%s/%s", TopicPrefix, protocolCapture, stream, kind)
}

// StreamCommand returns the topic on which capture requests for a stream
// are received.
//
// Example: graylogic/command/capture/color
func (Topics) StreamCommand(stream string) string {
	return fmt.Sprintf("%s/command/%s/%s", TopicPrefix, protocolCapture, stream)
}

// StreamAck returns the topic for request acknowledgements.
//
// Example: graylogic/ack/capture/color
func (Topics) StreamAck(stream string) string {
	return fmt.Sprintf("%s/ack/%s/%s", TopicPrefix, protocolCapture, stream)
}

// Health returns the bridge health topic.
//
// Example: graylogic/health/capture
func (Topics) Health() string {
	return fmt.Sprintf("%s/health/%s", TopicPrefix, protocolCapture)
}

// SystemStatus returns the system status topic used for online/offline
// announcements and the Last Will.
//
// Example: graylogic/system/status
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}

// AllStreamCommands matches capture requests for every stream.
//
// Pattern: graylogic/command/capture/+
func (Topics) AllStreamCommands() string {
	return fmt.Sprintf("%s/command/%s/+", TopicPrefix, protocolCapture)
}

// AllStreamPackets matches every packet on every stream.
//
// Pattern: graylogic/capture/+/+
func (Topics) AllStreamPackets() string {
	return fmt.Sprintf("%s/%s/+/+", TopicPrefix, protocolCapture)
}
