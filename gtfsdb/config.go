package gtfsdb

import (
	"time"

	"github.com/klinck004/ntta/internal/appconf"
)

// DefaultDownloadTimeout bounds a static feed download when Config leaves
// DownloadTimeout unset.
const DefaultDownloadTimeout = 5 * time.Minute

// Config holds configuration options for the Client
type Config struct {
	// Database configuration
	DBPath  string              // Path to SQLite database file
	Env     appconf.Environment // Environment the client runs in
	verbose bool                // Verbose logging

	// DownloadTimeout is the overall deadline of DownloadAndStore's request,
	// body included.
	DownloadTimeout time.Duration
}

func NewConfig(dbPath string, env appconf.Environment, verbose bool) Config {
	return Config{
		DBPath:          dbPath,
		Env:             env,
		verbose:         verbose,
		DownloadTimeout: DefaultDownloadTimeout,
	}
}
