package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/narwhalmedia/ottcore/pkg/interfaces"
)

// StreamName is the JetStream stream holding domain events.
const StreamName = "OTT_EVENTS"

// Config controls the NATS connection.
type Config struct {
	URL           string
	ClientName    string
	Subject       string
	MaxReconnect  int
	ReconnectWait time.Duration
	MaxAge        time.Duration
}

// Client wraps NATS and JetStream connections
type Client struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger interfaces.Logger
	cfg    Config
}

// NewClient connects to NATS, ensures the event stream exists and returns a
// cleanup function that drains the connection.
func NewClient(ctx context.Context, cfg Config, logger interfaces.Logger) (*Client, func(), error) {
	if cfg.MaxReconnect == 0 {
		cfg.MaxReconnect = 10
	}
	if cfg.ReconnectWait == 0 {
		cfg.ReconnectWait = 2 * time.Second
	}
	if cfg.MaxAge == 0 {
		cfg.MaxAge = 7 * 24 * time.Hour
	}

	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.MaxReconnects(cfg.MaxReconnect),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", interfaces.Error(err))
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", interfaces.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	client := &Client{nc: nc, js: js, logger: logger, cfg: cfg}

	if err := client.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, nil, err
	}

	cleanup := func() {
		if err := nc.Drain(); err != nil {
			logger.Error("Failed to drain NATS connection", interfaces.Error(err))
		}
	}

	logger.Info("NATS client initialized",
		interfaces.String("url", cfg.URL),
		interfaces.String("stream", StreamName))

	return client, cleanup, nil
}

func (c *Client) ensureStream(ctx context.Context) error {
	stream := jetstream.StreamConfig{
		Name:        StreamName,
		Description: "Profile and watch progress domain events",
		Subjects:    []string{c.cfg.Subject + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      c.cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Discard:     jetstream.DiscardOld,
		Replicas:    1,
	}

	if _, err := c.js.CreateOrUpdateStream(ctx, stream); err != nil {
		return fmt.Errorf("failed to create event stream: %w", err)
	}
	return nil
}

// JetStream returns the JetStream context.
func (c *Client) JetStream() jetstream.JetStream {
	return c.js
}

// IsConnected reports whether the connection is up, for readiness checks.
func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}
