package influxdb

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/ssio-project/fiware-gateway/internal/infrastructure/config"
)

const defaultHealthTimeout = 10 * time.Second

// Client mirrors activity events into InfluxDB.
//
// Points are handed to the library's asynchronous write API, which batches
// and retries in the background. A nil *Client is a valid no-op mirror, so
// callers never need to branch on whether the mirror is enabled.
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

// Connect creates the mirror and verifies the InfluxDB instance is
// reachable.
//
// Parameters:
//   - ctx: Context for the health check
//   - cfg: InfluxDB configuration from config.yaml
//
// Returns:
//   - *Client: Ready mirror
//   - error: ErrDisabled when switched off, ErrConnectionFailed when the
//     health check does not pass
func Connect(ctx context.Context, cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = 10
	}

	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batchSize)).
		SetFlushInterval(uint(flushInterval * 1000))

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	healthCtx, cancel := context.WithTimeout(ctx, defaultHealthTimeout)
	defer cancel()

	health, err := client.Health(healthCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	if health.Status != "pass" {
		client.Close()
		return nil, fmt.Errorf("%w: status %s", ErrConnectionFailed, health.Status)
	}

	return &Client{
		client:   client,
		writeAPI: client.WriteAPI(cfg.Org, cfg.Bucket),
	}, nil
}

// WriteActivity records one activity event as a point in the "activity"
// measurement.
//
// Tags (category, severity, method) are low-cardinality and indexable;
// the HTTP status, duration and user land in fields. The write is
// non-blocking.
func (c *Client) WriteActivity(category, severity, method string, status int, durationMs int64, userID string, at time.Time) {
	if c == nil {
		return
	}

	p := influxdb2.NewPoint(
		"activity",
		map[string]string{
			"category": category,
			"severity": severity,
			"method":   method,
		},
		map[string]interface{}{
			"status":      status,
			"duration_ms": durationMs,
			"user_id":     userID,
		},
		at,
	)
	c.writeAPI.WritePoint(p)
}

// Close flushes any buffered points and releases the underlying client.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.writeAPI.Flush()
	c.client.Close()
}
