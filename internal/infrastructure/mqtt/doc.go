// Package mqtt provides MQTT publishing for a Gray Logic sensor node.
//
// A node connects once per wake cycle, publishes its current reading and
// any backlog, announces that it is going to sleep, and disconnects.
//
// # Topics
//
//	graylogic/node/{id}/reading    one reading (JSON object)
//	graylogic/node/{id}/readings   a backlog batch (JSON array)
//	graylogic/node/{id}/status     retained online/sleeping/offline
//
// The status topic doubles as the Last Will: if the node browns out while
// connected, the broker publishes "offline" with reason
// "unexpected_disconnect".
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, cfg.MQTT, cfg.Node.ID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.NodeReading(cfg.Node.ID)
//	err = client.Publish(topic, payload, client.QoS(), false)
package mqtt
