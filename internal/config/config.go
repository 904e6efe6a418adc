// Package config defines service configuration structures and loading.
//
// Conventions:
// - Defaults come from New; Load layers file and env on top.
// - External errors are wrapped via this package's sentinel kinds.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8090".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory analysis job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of analysis workers.
	WorkerCount int `koanf:"worker_count"`

	// AttemptRetention caps how many finished attempts stay retrievable.
	AttemptRetention int `koanf:"attempt_retention"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// CardCount sets how many coaching cards an attempt produces.
	CardCount int `koanf:"card_count"`

	// ConfidenceFloor gates a retake when mean tracking confidence is lower.
	ConfidenceFloor float64 `koanf:"confidence_floor"`

	// DefaultFPS applies when a submission does not carry a frame rate.
	DefaultFPS float64 `koanf:"default_fps"`

	// MetricSpecsPath points at the YAML metric spec source. Empty uses the
	// built-in spec set.
	MetricSpecsPath string `koanf:"metric_specs_path"`

	// ArchivePath is the sqlite file for finished analysis records.
	ArchivePath string `koanf:"archive_path"`

	// DrillsPath is the sqlite drill catalog. Empty uses the seeded
	// in-memory catalog.
	DrillsPath string `koanf:"drills_path"`

	// EncourageURL is the optional text-encouragement service endpoint.
	// Empty disables the collaborator.
	EncourageURL string `koanf:"encourage_url"`
}

// New returns the configuration defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8090",
		QueueSize:           1024,
		WorkerCount:         runtime.NumCPU(),
		AttemptRetention:    10_000,
		MaxLeaderboardLimit: 100,
		CardCount:           3,
		ConfidenceFloor:     0.45,
		DefaultFPS:          30,
		ArchivePath:         "swinglab.db",
	}
}
