package gtfs

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/klinck004/ntta/gtfsdb"
	"github.com/klinck004/ntta/internal/logging"
)

// StaticConfig describes where the static schedule comes from and where it
// is stored.
type StaticConfig struct {
	// Source is a local zip path or an http(s) URL. Empty skips the import
	// and serves whatever the database already holds.
	Source string
	Store  gtfsdb.Config
}

func isLocalFile(source string) bool {
	return !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://")
}

// OpenStaticStore opens the static store and imports the configured feed.
// An unchanged feed is not imported twice.
func OpenStaticStore(ctx context.Context, config StaticConfig) (*gtfsdb.Client, error) {
	client, err := gtfsdb.NewClient(config.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to create GTFS database client: %w", err)
	}

	if config.Source == "" {
		return client, nil
	}

	logger := logging.FromContext(ctx).With(slog.String("component", "gtfs_static"))
	logging.LogOperation(logger, "importing_static_gtfs", slog.String("source", config.Source))

	if isLocalFile(config.Source) {
		err = client.ImportFromFile(ctx, config.Source)
	} else {
		err = client.DownloadAndStore(ctx, config.Source)
	}
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("importing static GTFS from %s: %w", config.Source, err)
	}

	logging.LogOperation(logger, "static_gtfs_ready",
		slog.String("source", config.Source),
		slog.Duration("duration", client.ImportRuntime()))
	return client, nil
}
