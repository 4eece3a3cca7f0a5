// Package reading defines the sensor sample exchanged between the node's
// components and the exact text formats it is persisted in.
//
// Two formats exist and both must stay stable across firmware versions,
// because records written by one boot are read back by the next:
//
//	durable log line:  timestamp,temperature_f,humidity_pct[,battery_mode,battery_voltage]
//	queue record:      timestamp,temperature_f,humidity_pct
//
// Timestamps are unix seconds. Floats use the shortest round-trip form.
package reading
