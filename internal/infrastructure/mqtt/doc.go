// Package mqtt connects the link core to the site's MQTT broker.
//
// The broker is the bus between the core and the protocol bindings. The core
// uses it two ways:
//
//	bindings ──graylogic/discovery/{binding}─────▶ core   (retained Thing lists)
//	bindings ──graylogic/channel-types/{binding}─▶ core   (retained channel types)
//	core     ──graylogic/core/event/{type}───────▶ UIs, loggers
//
// A last will on graylogic/system/status marks the core offline if it dies
// without calling Close. Subscriptions survive reconnects.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllThingDiscovery(), 1,
//	    func(topic string, payload []byte) error {
//	        binding, _ := mqtt.BindingFromDiscoveryTopic(topic)
//	        return discovery.Apply(binding, payload)
//	    })
package mqtt
