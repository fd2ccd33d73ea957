package sqlite

import "time"

// Config holds SQLite connection settings
type Config struct {
	// Path is the database file path; ":memory:" is not supported because
	// every pooled connection would see a different database
	Path string

	// BusyTimeout bounds how long a writer waits on a locked database
	BusyTimeout time.Duration
}

// DefaultConfig returns sensible defaults for SQLite configuration
func DefaultConfig() Config {
	return Config{
		Path:        "data/glow.db",
		BusyTimeout: 5 * time.Second,
	}
}
