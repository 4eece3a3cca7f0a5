package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/channel"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/reading"
)

// defaultRelayTimeout bounds one POST when the config leaves it unset.
const defaultRelayTimeout = 15 * time.Second

// Relay posts readings to the collector's HTTP endpoint as form data, one
// request per reading.
type Relay struct {
	url        string
	hub        string
	cellID     string
	version    string
	interval   int
	httpClient *http.Client
}

// NewRelay creates a relay channel from config.
func NewRelay(cfg *config.Config) *Relay {
	timeout := cfg.GetRelayTimeout()
	if timeout <= 0 {
		timeout = defaultRelayTimeout
	}
	return &Relay{
		url:      cfg.Relay.URL,
		hub:      cfg.Node.Hub,
		cellID:   cfg.Node.CellID,
		version:  cfg.Node.CodeVersion,
		interval: cfg.Schedule.ReadingInterval,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// form builds the request body for r.
func (c *Relay) form(r reading.Reading) url.Values {
	return url.Values{
		"hub":          {c.hub},
		"cell":         {c.cellID},
		"time":         {strconv.FormatInt(r.Unix(), 10)},
		"temp":         {strconv.FormatFloat(r.TemperatureF, 'f', -1, 64)},
		"humidity":     {strconv.FormatFloat(r.HumidityPct, 'f', -1, 64)},
		"sp":           {strconv.Itoa(c.interval)},
		"cell_version": {c.version},
	}
}

// SendOne posts a single reading. Only HTTP 200 counts as delivered.
func (c *Relay) SendOne(ctx context.Context, r reading.Reading) error {
	body := c.form(r).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(body))
	if err != nil {
		return fmt.Errorf("relay: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return classifyNetErr("relay", err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: relay HTTP %d", channel.ErrRejected, resp.StatusCode)
	}
	return nil
}

// SendBatch posts each reading in order, stopping at the first failure.
func (c *Relay) SendBatch(ctx context.Context, rs []reading.Reading) error {
	return channel.Sequential(c.SendOne).SendBatch(ctx, rs)
}

// RelayDialer returns a dialer that checks a TCP path to the relay host
// exists before handing out the channel.
func RelayDialer(cfg *config.Config) channel.Dialer {
	relay := NewRelay(cfg)
	return channel.Dialer{
		Name: config.TransportRelay,
		Dial: func(ctx context.Context) (channel.Channel, error) {
			if err := probe(ctx, relay.url, relay.httpClient.Timeout); err != nil {
				return nil, err
			}
			return relay, nil
		},
	}
}

// probe opens and closes a TCP connection to the URL's host.
func probe(ctx context.Context, rawURL string, timeout time.Duration) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: relay url: %w", channel.ErrUnavailable, err)
	}

	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}

	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return fmt.Errorf("%w: %w", channel.ErrUnavailable, err)
	}
	return conn.Close()
}

// classifyNetErr maps a network failure onto the channel taxonomy.
func classifyNetErr(transport string, err error) error {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return fmt.Errorf("%w: %s: %w", channel.ErrTimeout, transport, err)
	default:
		return fmt.Errorf("%w: %s: %w", channel.ErrUnavailable, transport, err)
	}
}
