// Package event provides the domain event model and the publishers that
// deliver events to the rest of Gray Logic.
//
// Registries post an Event whenever an element is added, removed or
// (where meaningful) updated. Delivery is fire-and-forget: a Publisher has
// no acknowledgement or retry contract.
//
// # Publishers
//
//   - Multi: fans an event out to several publishers in order
//   - Queue: decouples the caller from delivery using a buffered channel
//   - MQTTPublisher: JSON payload on graylogic/core/event/{type}
//   - HistoryRecorder: writes event points to InfluxDB
//
// # Usage
//
//	pub := event.NewMulti(
//	    event.NewMQTTPublisher(mqttClient, log),
//	    event.NewHistoryRecorder(influxClient),
//	)
//	queue := event.NewQueue(pub, 256, log)
//	go queue.Run(ctx)
//	queue.Post(event.New("ItemChannelLinkAddedEvent", topic, payload))
package event
