// Package config defines engine configuration and its loading hooks.
//
// Conventions:
// - Defaults come from New; file and env layers override them in Load.
// - External errors are wrapped via this package's sentinel kinds.
package config

// Storage backend names accepted in the storage field.
const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
	StorageNone   = "none"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Storage selects the key-value backend: memory, redis or none.
	// "none" runs the engine without durable storage; every read degrades
	// to defaults and writes are dropped.
	Storage string `koanf:"storage"`

	// Redis connection settings, used when Storage is "redis".
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// LockStripes sets the number of per-student mutation locks.
	LockStripes int `koanf:"lock_stripes"`

	// AlertExpiryDays is the global dismissed-alert expiry window.
	AlertExpiryDays int `koanf:"alert_expiry_days"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		Addr:                ":8080",
		Storage:             StorageMemory,
		RedisAddr:           "localhost:6379",
		RedisPassword:       "",
		RedisDB:             0,
		MaxLeaderboardLimit: 100,
		LockStripes:         64,
		AlertExpiryDays:     7,
	}
}
