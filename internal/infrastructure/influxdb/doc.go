// Package influxdb records the link core's history in InfluxDB v2.
//
// Every domain event (links added or removed, Things discovered, rules
// changed) becomes a point in the link_events measurement, tagged by event
// type and topic domain. Registry sizes can be sampled into registry_size.
//
// Writes go through the client library's non-blocking batch API, sized by
// influxdb.batch_size and influxdb.flush_interval. Errors arrive
// asynchronously on the SetOnError callback.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteEvent("ItemChannelLinkAddedEvent", "links/Light_1/added", "", time.Now())
package influxdb
