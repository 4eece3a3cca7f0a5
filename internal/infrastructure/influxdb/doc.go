// Package influxdb writes node readings straight to an InfluxDB v2 bucket.
//
// This is one of the node's transports: instead of posting to the relay,
// a node on a network with an InfluxDB server writes node_reading points
// itself. Each point carries the node_id tag and is stamped with the
// reading's capture time at one-second precision.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.WriteReadings(ctx, cfg.Node.ID, r)
package influxdb
