package transport

import (
	"fmt"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/mqtt"
)

// Options carries collaborators some transports need.
type Options struct {
	// Modem backs the sms transport.
	Modem Modem

	// MQTTLogger receives MQTT connection events.
	MQTTLogger mqtt.Logger
}

// identityOf extracts the node identity from config.
func identityOf(cfg *config.Config) Identity {
	return Identity{NodeID: cfg.Node.ID, CellID: cfg.Node.CellID}
}

// Dialers builds one dialer per configured transport, in configured order.
func Dialers(cfg *config.Config, opts Options) ([]channel.Dialer, error) {
	dialers := make([]channel.Dialer, 0, len(cfg.Transports))
	for _, name := range cfg.Transports {
		switch name {
		case config.TransportRelay:
			dialers = append(dialers, RelayDialer(cfg))
		case config.TransportMQTT:
			dialers = append(dialers, MQTTDialer(cfg, opts.MQTTLogger))
		case config.TransportInfluxDB:
			dialers = append(dialers, InfluxDialer(cfg))
		case config.TransportKafka:
			dialers = append(dialers, KafkaDialer(cfg))
		case config.TransportSMS:
			dialers = append(dialers, SMSDialer(cfg, opts.Modem))
		default:
			return nil, fmt.Errorf("unknown transport %q", name)
		}
	}
	return dialers, nil
}
