// Package config provides configuration management for the Framecut engine.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	// Default values
	DefaultPort         = 8790
	DefaultLogLevel     = "info"
	DefaultDataDir      = ".framecut"
	DefaultPollInterval = 2 * time.Second
	DefaultHistoryDepth = 50

	// Environment variable names
	EnvPort         = "FRAMECUT_PORT"
	EnvLogLevel     = "FRAMECUT_LOG_LEVEL"
	EnvDataDir      = "FRAMECUT_DATA_DIR"
	EnvRenderURL    = "FRAMECUT_RENDER_URL"
	EnvRenderToken  = "FRAMECUT_RENDER_TOKEN"
	EnvPollInterval = "FRAMECUT_POLL_INTERVAL_MS"
	EnvHistoryDepth = "FRAMECUT_HISTORY_DEPTH"

	// Database filename
	DBFilename = "framecut.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	ArtifactsDir() string
	MediaDir() string
	RenderURL() string
	RenderToken() string
	PollInterval() time.Duration
	HistoryDepth() int
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	dataDir      string
	renderURL    string
	renderToken  string
	pollInterval time.Duration
	historyDepth int
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      defaultDataDir(),
		pollInterval: DefaultPollInterval,
		historyDepth: DefaultHistoryDepth,
	}

	// Override port from environment
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	// Override log level from environment
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	// Override data directory from environment
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	cfg.renderURL = os.Getenv(EnvRenderURL)
	cfg.renderToken = os.Getenv(EnvRenderToken)

	if pi := os.Getenv(EnvPollInterval); pi != "" {
		ms, err := strconv.Atoi(pi)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPollInterval, err)
		}
		if ms <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive millisecond count", EnvPollInterval)
		}
		cfg.pollInterval = time.Duration(ms) * time.Millisecond
	}

	if hd := os.Getenv(EnvHistoryDepth); hd != "" {
		depth, err := strconv.Atoi(hd)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHistoryDepth, err)
		}
		if depth <= 0 {
			return nil, fmt.Errorf("invalid %s: must be a positive integer", EnvHistoryDepth)
		}
		cfg.historyDepth = depth
	}

	return cfg, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// ArtifactsDir returns where downloaded export artifacts are stored
func (c *EnvConfig) ArtifactsDir() string {
	return filepath.Join(c.dataDir, "artifacts")
}

// MediaDir returns where locally registered media files are stored
func (c *EnvConfig) MediaDir() string {
	return filepath.Join(c.dataDir, "media")
}

// RenderURL returns the render service base URL (empty when unconfigured)
func (c *EnvConfig) RenderURL() string {
	return c.renderURL
}

// RenderToken returns the bearer token for the render service
func (c *EnvConfig) RenderToken() string {
	return c.renderToken
}

// PollInterval returns the export status polling interval
func (c *EnvConfig) PollInterval() time.Duration {
	return c.pollInterval
}

// HistoryDepth returns the undo stack capacity per editing session
func (c *EnvConfig) HistoryDepth() int {
	return c.historyDepth
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
