// Package channel defines how readings leave the node.
//
// A Channel is whatever transport came up this cycle (HTTP relay, MQTT,
// InfluxDB, Kafka, SMS). Connectivity decides which one; FirstAvailable
// walks an ordered list of dialers and returns the first that works.
//
// Failures are reported with ErrRejected, ErrTimeout or ErrUnavailable so
// callers can classify them with errors.Is without knowing the transport.
package channel
