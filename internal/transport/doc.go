// Package transport implements the node's channels to the collector.
//
//   - relay: HTTP form POST to the collector endpoint, one reading per request
//   - mqtt: JSON on graylogic/node/{id}/reading(s)
//   - influxdb: node_reading points written straight to a bucket
//   - kafka: one message per reading, keyed by node ID
//   - sms: several readings coalesced into one text through a Modem
//
// Each transport has a Dialer for channel.FirstAvailable; Dialers builds
// them in the order listed under transports in node.yaml.
package transport
