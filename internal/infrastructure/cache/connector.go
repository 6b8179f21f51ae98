package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/quickrollcall/rollcall/internal/shared/config"
	"github.com/quickrollcall/rollcall/internal/shared/logger"
	"github.com/quickrollcall/rollcall/internal/shared/utils"
)

const (
	// DefaultPollInterval is how often a caller re-checks while another
	// caller's connection attempt is in flight.
	DefaultPollInterval = 50 * time.Millisecond

	dialTimeout  = 5 * time.Second
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second
)

// ClientProvider hands out the shared Redis client, connecting on first use.
type ClientProvider interface {
	Client(ctx context.Context) (*redis.Client, error)
}

// DialFunc opens and verifies a new client.
type DialFunc func(ctx context.Context) (*redis.Client, error)

// Status is the result of a connectivity probe.
type Status struct {
	Active bool   `json:"active"`
	Error  string `json:"error,omitempty"`
}

// Connector owns the process's Redis client. It is created once by the
// server command and passed to every store that needs Redis.
//
// The first Client call dials. While that attempt is in flight, other callers
// poll every pollInterval and then reuse the result. A failed attempt is
// reported to the caller that made it and the next caller dials again.
type Connector struct {
	cfg          config.RedisConfig
	logger       logger.Interface
	dial         DialFunc
	pollInterval time.Duration

	mu         sync.Mutex
	client     *redis.Client
	connecting bool
}

type ConnectorOption func(*Connector)

// WithDialer replaces the default dialer built from the Redis config.
func WithDialer(dial DialFunc) ConnectorOption {
	return func(c *Connector) {
		c.dial = dial
	}
}

func WithPollInterval(d time.Duration) ConnectorOption {
	return func(c *Connector) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

func NewConnector(cfg config.RedisConfig, log logger.Interface, opts ...ConnectorOption) *Connector {
	c := &Connector{
		cfg:          cfg,
		logger:       log,
		pollInterval: DefaultPollInterval,
	}
	c.dial = c.defaultDial
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Client returns the shared client, establishing it if needed.
func (c *Connector) Client(ctx context.Context) (*redis.Client, error) {
	for {
		c.mu.Lock()
		if c.client != nil {
			client := c.client
			c.mu.Unlock()
			return client, nil
		}
		if !c.connecting {
			c.connecting = true
			c.mu.Unlock()
			break
		}
		c.mu.Unlock()

		timer := time.NewTimer(c.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	client, err := c.dial(ctx)

	c.mu.Lock()
	c.connecting = false
	if err == nil {
		c.client = client
	}
	c.mu.Unlock()

	if err != nil {
		c.logger.Errorw("redis connection failed", "endpoint", c.Endpoint(), "error", err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c.logger.Infow("redis ready", "endpoint", c.Endpoint())
	return client, nil
}

// Close quits the client if one was established. A failed quit is logged and
// the client is dropped either way.
func (c *Connector) Close() error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client == nil {
		return nil
	}
	if err := client.Close(); err != nil {
		c.logger.Warnw("redis close failed", "error", err)
		return fmt.Errorf("failed to close redis client: %w", err)
	}
	c.logger.Infow("redis connection closed")
	return nil
}

// Status connects if needed and pings.
func (c *Connector) Status(ctx context.Context) Status {
	client, err := c.Client(ctx)
	if err != nil {
		return Status{Active: false, Error: err.Error()}
	}
	pong, err := client.Ping(ctx).Result()
	if err != nil {
		return Status{Active: false, Error: err.Error()}
	}
	return Status{Active: pong == "PONG"}
}

// Endpoint renders the configured endpoint with the password masked.
func (c *Connector) Endpoint() string {
	if c.cfg.URL != "" {
		return utils.MaskURLPassword(c.cfg.URL)
	}

	auth := ""
	if c.cfg.Username != "" || c.cfg.Password != "" {
		user := c.cfg.Username
		if user == "" {
			user = "default"
		}
		auth = user + ":***@"
	}
	return "redis://" + auth + c.cfg.GetAddr() + "/" + strconv.Itoa(c.cfg.DB)
}

func (c *Connector) options() (*redis.Options, error) {
	var opts *redis.Options
	if c.cfg.URL != "" {
		parsed, err := redis.ParseURL(c.cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     c.cfg.GetAddr(),
			Username: c.cfg.Username,
			Password: c.cfg.Password,
			DB:       c.cfg.DB,
		}
	}

	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = readTimeout
	opts.WriteTimeout = writeTimeout
	// Failures surface to the caller; nothing is retried internally.
	opts.MaxRetries = -1
	return opts, nil
}

func (c *Connector) defaultDial(ctx context.Context) (*redis.Client, error) {
	opts, err := c.options()
	if err != nil {
		return nil, err
	}

	c.logger.Infow("redis connecting", "endpoint", c.Endpoint())
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}
