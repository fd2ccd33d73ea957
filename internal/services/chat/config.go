package chat

import "time"

// Config holds configuration for the chat controller and manager
type Config struct {
	// OracleTimeout bounds one oracle call, tool calls included
	OracleTimeout time.Duration
	// SessionIdleTimeout drops conversations with no turns for this long
	SessionIdleTimeout time.Duration
	// FinishedRetention keeps completed conversations around for inspection
	FinishedRetention time.Duration
	// HistoryLimit caps the messages replayed to the oracle
	HistoryLimit int
}

// DefaultConfig returns default chat configuration
func DefaultConfig() Config {
	return Config{
		OracleTimeout:      30 * time.Second,
		SessionIdleTimeout: 30 * time.Minute,
		FinishedRetention:  5 * time.Minute,
		HistoryLimit:       40,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.OracleTimeout <= 0 {
		c.OracleTimeout = defaults.OracleTimeout
	}
	if c.SessionIdleTimeout <= 0 {
		c.SessionIdleTimeout = defaults.SessionIdleTimeout
	}
	if c.FinishedRetention <= 0 {
		c.FinishedRetention = defaults.FinishedRetention
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = defaults.HistoryLimit
	}
	return c
}
