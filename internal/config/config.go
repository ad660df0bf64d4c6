package config

import (
	"errors"
	"time"
)

// Config is the resolved configuration for a run.
type Config struct {
	Remote  Remote
	Run     Run
	Log     Log
	Metrics Metrics
}

// Remote configures the track-library client.
type Remote struct {
	BaseURL           string
	Email             string
	Password          string
	RequestsPerSecond float64
	PageSize          int
}

// Run configures the execution engine.
type Run struct {
	Timeout        time.Duration
	MaxWorkers     int
	StrictWarnings bool
	LockDir        string
}

// Log configures logging output.
type Log struct {
	Format string
	Debug  bool
	Quiet  bool
}

// Metrics configures the optional metrics endpoint.
type Metrics struct {
	Addr string
}

var (
	ErrRemoteBaseURLRequired = errors.New("remote base URL is required")
	ErrInvalidLogFormat      = errors.New("log format must be text or json")
)

// Validate checks invariants that hold for every command. The remote
// section is validated separately because plan-only commands never dial
// out.
func (c *Config) Validate() error {
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return ErrInvalidLogFormat
	}
	if c.Run.MaxWorkers < 1 {
		c.Run.MaxWorkers = 1
	}
	return nil
}

// ValidateRemote checks the settings needed to reach the remote service.
func (c *Config) ValidateRemote() error {
	if c.Remote.BaseURL == "" {
		return ErrRemoteBaseURLRequired
	}
	return nil
}
