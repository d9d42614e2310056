package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Client archives settings changes and register readings in one bucket.
// Points are batched by the write API and never block the caller.
//
// A Client is safe for concurrent use.
type Client struct {
	influx influxdb2.Client
	points api.WriteAPI
	bucket string

	mu      sync.RWMutex
	closed  bool
	onError func(err error)
}

// Connect opens the archive described by cfg. The server must answer a
// health ping before any point is queued.
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	influx := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg))
	if err := ping(ctx, influx, connectTimeout); err != nil {
		influx.Close()
		return nil, fmt.Errorf("connecting to %s: %w", cfg.URL, err)
	}

	c := &Client{
		influx: influx,
		points: influx.WriteAPI(cfg.Org, cfg.Bucket),
		bucket: cfg.Bucket,
	}
	go c.reportErrors()
	return c, nil
}

// writeOptions maps batch_size and flush_interval (seconds) onto the
// client's options, falling back to the defaults for unset values.
func writeOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := uint(defaultBatchSize)
	if cfg.BatchSize > 0 {
		batch = uint(cfg.BatchSize)
	}
	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}
	return influxdb2.DefaultOptions().
		SetBatchSize(batch).
		SetFlushInterval(uint(flush.Milliseconds()))
}

func ping(ctx context.Context, influx influxdb2.Client, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	healthy, err := influx.Ping(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if !healthy {
		return fmt.Errorf("%w: unhealthy", ErrUnreachable)
	}
	return nil
}

// reportErrors forwards failed batch writes to the callback until the
// write API shuts down.
func (c *Client) reportErrors() {
	for err := range c.points.Errors() {
		c.mu.RLock()
		fn := c.onError
		c.mu.RUnlock()

		if fn != nil {
			fn(fmt.Errorf("archiving to bucket %s: %w", c.bucket, err))
		}
	}
}

// SetOnError sets the callback for failed batch writes.
func (c *Client) SetOnError(fn func(err error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = fn
}

// Ping checks that the server is still healthy.
func (c *Client) Ping(ctx context.Context) error {
	if c.isClosed() {
		return ErrClosed
	}
	return ping(ctx, c.influx, pingTimeout)
}

// Flush blocks until queued points are written. It does nothing after Close.
func (c *Client) Flush() {
	if c.isClosed() {
		return
	}
	c.points.Flush()
}

// Close writes the queued points and releases the client. Later points are
// dropped. Close is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed || c.influx == nil {
		c.closed = true
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.points.Flush()
	c.influx.Close()
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed || c.influx == nil
}

// queue hands p to the write API unless the client is closed.
func (c *Client) queue(p *write.Point) {
	if c.isClosed() {
		return
	}
	c.points.WritePoint(p)
}
