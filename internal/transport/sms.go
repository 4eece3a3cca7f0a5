package transport

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// defaultSMSBatchSize is how many readings fit comfortably in one text.
const defaultSMSBatchSize = 3

// Modem sends text messages. Bringing the radio up is the modem's business;
// Available reports whether it can send right now.
type Modem interface {
	Available(ctx context.Context) error
	Send(ctx context.Context, number, text string) error
}

// SMS coalesces readings into compact texts:
//
//	<cell_id>;<ts>,<temp>,<hum>;<ts>,<temp>,<hum>
type SMS struct {
	modem     Modem
	number    string
	cellID    string
	batchSize int
}

// NewSMS creates an SMS channel.
func NewSMS(modem Modem, number, cellID string, batchSize int) *SMS {
	if batchSize < 1 {
		batchSize = defaultSMSBatchSize
	}
	return &SMS{modem: modem, number: number, cellID: cellID, batchSize: batchSize}
}

// BatchSize reports how many readings this channel packs into one text.
func (c *SMS) BatchSize() int {
	return c.batchSize
}

// Text renders readings as one message body.
func (c *SMS) Text(rs []reading.Reading) string {
	var b strings.Builder
	b.WriteString(c.cellID)
	for _, r := range rs {
		b.WriteByte(';')
		b.WriteString(strconv.FormatInt(r.Unix(), 10))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(r.TemperatureF, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(r.HumidityPct, 'f', -1, 64))
	}
	return b.String()
}

// SendOne sends r in a text of its own.
func (c *SMS) SendOne(ctx context.Context, r reading.Reading) error {
	return c.send(ctx, []reading.Reading{r})
}

// SendBatch sends rs in as few texts as BatchSize allows, in order,
// stopping at the first failure.
func (c *SMS) SendBatch(ctx context.Context, rs []reading.Reading) error {
	for start := 0; start < len(rs); start += c.batchSize {
		end := min(start+c.batchSize, len(rs))
		if err := c.send(ctx, rs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (c *SMS) send(ctx context.Context, rs []reading.Reading) error {
	if err := c.modem.Send(ctx, c.number, c.Text(rs)); err != nil {
		return fmt.Errorf("%w: sms: %w", channel.ErrRejected, err)
	}
	return nil
}

// SMSDialer returns a dialer that succeeds when the modem is available.
func SMSDialer(cfg *config.Config, modem Modem) channel.Dialer {
	return channel.Dialer{
		Name: config.TransportSMS,
		Dial: func(ctx context.Context) (channel.Channel, error) {
			if modem == nil {
				return nil, fmt.Errorf("%w: sms: no modem", channel.ErrUnavailable)
			}
			if err := modem.Available(ctx); err != nil {
				return nil, fmt.Errorf("%w: sms: %w", channel.ErrUnavailable, err)
			}
			return NewSMS(modem, cfg.SMS.Number, cfg.Node.CellID, cfg.SMS.BatchSize), nil
		},
	}
}
