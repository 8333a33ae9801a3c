package gtfsdb

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/klinck004/ntta/internal/logging"
)

// Client is the main entry point for the static store
type Client struct {
	config        Config
	DB            *sql.DB
	Queries       *Queries
	logger        *slog.Logger
	httpClient    *http.Client
	importRuntime time.Duration
}

// NewClient opens the database and applies the schema.
func NewClient(config Config) (*Client, error) {
	db, err := createDB(config)
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With(slog.String("component", "gtfsdb"))
	if config.verbose {
		logger.Info("database ready", slog.String("path", config.DBPath))
	}

	timeout := config.DownloadTimeout
	if timeout <= 0 {
		timeout = DefaultDownloadTimeout
	}

	return &Client{
		config:     config,
		DB:         db,
		Queries:    New(db),
		logger:     logger,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

func (c *Client) Close() error {
	return c.DB.Close()
}

// Ping checks that the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// DownloadAndStore downloads a GTFS zip from url and stores it in the database
func (c *Client) DownloadAndStore(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("building static feed request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("downloading static feed: %w", err)
	}
	defer logging.SafeCloseWithLogging(resp.Body, c.logger, "static_feed_body")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("downloading static feed: unexpected status %d", resp.StatusCode)
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading static feed: %w", err)
	}

	return c.processAndStoreGTFSDataWithSource(ctx, b, url)
}

// ImportFromFile imports GTFS data from a local zip file into the database
func (c *Client) ImportFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading static feed: %w", err)
	}

	return c.processAndStoreGTFSDataWithSource(ctx, data, path)
}

// ImportRuntime is how long the last import took.
func (c *Client) ImportRuntime() time.Duration {
	return c.importRuntime
}
