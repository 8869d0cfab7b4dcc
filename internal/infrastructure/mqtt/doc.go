// Package mqtt provides MQTT client connectivity for the capture bridge.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing of raw capture packets, acks and status messages
//   - Subscription to capture requests
//   - Last Will and Testament (LWT) for offline detection
//
// # Topics
//
//	graylogic/capture/{stream}/{kind}     raw packet bytes (observer output)
//	graylogic/command/capture/{stream}    JSON capture requests (input)
//	graylogic/ack/capture/{stream}        JSON acknowledgements
//	graylogic/health/capture              bridge health
//	graylogic/system/status               online/offline + LWT
//
// The packet kind travels in the topic so that receivers can decode the
// payload without guessing from its size.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllStreamCommands(), 1,
//	    func(topic string, payload []byte) error {
//	        return handle(topic, payload)
//	    })
package mqtt
