// Package observer provides the stream observers wired behind each
// capture.Commander.
//
// A Broadcast is the notification primitive: a fixed list of observers
// built at startup. Every observer owns its failures; errors are logged
// and never reach the command path.
//
//	commander := capture.NewCommander(stream, observer.NewBroadcast(logger,
//	    observer.NewMQTT(mqttClient, qos, logger),
//	    observer.NewAudit(repo, logger),
//	    observer.NewMetrics(influx),
//	    hub,
//	))
package observer
