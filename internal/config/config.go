// Package config loads geovcs's runtime configuration from environment
// variables, in the teacher's style: a typed Config struct, a
// LoadFromEnv constructor with hard-coded defaults, and a Validate pass
// callers run before starting any real work.
//
// Environment Variables:
//
//	GEOVCS_DATA_DIR            repository root (default ".geovcs")
//	GEOVCS_IN_MEMORY            use in-memory backends instead of Badger
//	GEOVCS_SPARSE_FILTER        path to a sparse filter file, relative to the repo root
//	GEOVCS_SPARSE_ALLOW_EMPTY   whether fetch emits placeholder commits for empty tips
//	GEOVCS_REMOTE_NAME          default remote name
//	GEOVCS_REMOTE_URL           default remote root (must be file://, "/" or "." prefixed)
//	GEOVCS_LOG_LEVEL            "debug", "info", "warn", or "error"
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/geovcs/geovcs/internal/remote"
)

// Config holds all of geovcs's configuration, loaded from environment
// variables via LoadFromEnv and checked with Validate before use.
type Config struct {
	Repository RepositoryConfig
	Sparse     SparseConfig
	Remote     RemoteConfig
	Logging    LoggingConfig
}

// RepositoryConfig controls where and how the repository's backing
// stores are opened.
type RepositoryConfig struct {
	// DataDir is the repository root directory (contains objects/,
	// graph/, refs/, config.yaml).
	DataDir string
	// InMemory opens every backend (object store, graph db, ref db) in
	// memory instead of on disk; used by tests and by "geovcs init
	// --memory".
	InMemory bool
}

// SparseConfig controls the sparse clone's filter and fetch behavior.
type SparseConfig struct {
	// FilterPath is the path (relative to DataDir) of the sparse filter
	// file, parsed by internal/filter.Parse. Empty means no filter: a
	// full (non-sparse) clone.
	FilterPath string
	// AllowEmpty records whether a fetch whose tip's filtered diff is
	// empty still produces a placeholder commit. Fetch does not read it:
	// callers pass allowEmpty to DB.Fetch directly.
	AllowEmpty bool
}

// RemoteConfig holds a remote's name and URL. Fetch and push do not read
// it: they always take the remote's name as an argument.
type RemoteConfig struct {
	Name string
	URL  string
}

// LoggingConfig holds a log level, which Validate checks. The loggers of
// internal/logging do not read it.
type LoggingConfig struct {
	Level string
}

// LoadFromEnv builds a Config from environment variables, falling back
// to the defaults documented on the package.
func LoadFromEnv() *Config {
	return &Config{
		Repository: RepositoryConfig{
			DataDir:  getEnv("GEOVCS_DATA_DIR", ".geovcs"),
			InMemory: getEnvBool("GEOVCS_IN_MEMORY", false),
		},
		Sparse: SparseConfig{
			FilterPath: getEnv("GEOVCS_SPARSE_FILTER", ""),
			AllowEmpty: getEnvBool("GEOVCS_SPARSE_ALLOW_EMPTY", true),
		},
		Remote: RemoteConfig{
			Name: getEnv("GEOVCS_REMOTE_NAME", "origin"),
			URL:  getEnv("GEOVCS_REMOTE_URL", ""),
		},
		Logging: LoggingConfig{
			Level: strings.ToLower(getEnv("GEOVCS_LOG_LEVEL", "info")),
		},
	}
}

// Validate checks a Config for internally-inconsistent settings before
// the repository is opened.
func (c *Config) Validate() error {
	if c.Repository.DataDir == "" {
		return fmt.Errorf("config: repository data dir must not be empty")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log level %q", c.Logging.Level)
	}
	if c.Remote.URL != "" {
		if err := remote.RequireFileRoot(c.Remote.URL); err != nil {
			return fmt.Errorf("config: remote url: %w", err)
		}
	}
	return nil
}

// String returns a safe, loggable representation of c.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir: %s, InMemory: %v, Filter: %q, Remote: %s=%s, LogLevel: %s}",
		c.Repository.DataDir, c.Repository.InMemory,
		c.Sparse.FilterPath, c.Remote.Name, c.Remote.URL,
		c.Logging.Level,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}
