package config

import "time"

// Config represents the complete application configuration. Values are
// layered: built-in defaults, the config file, SURGEPROTECTOR_* environment
// variables, then command-line flags.
type Config struct {
	Blocklist BlocklistConfig `mapstructure:"blocklist"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Sampler   SamplerConfig   `mapstructure:"sampler"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// BlocklistConfig controls flood detection and the persisted blocklist.
type BlocklistConfig struct {
	// Path is the blocklist file, or "-" for standard output.
	Path string `mapstructure:"path"`

	// Limit is the number of concurrent connections an address must exceed
	// to be blocked.
	Limit int `mapstructure:"limit"`

	// TTL is how long an entry stays blocked after it was first added.
	// Accepts a duration ("24h") or a bare number of hours.
	TTL time.Duration `mapstructure:"ttl"`
}

// NotifyConfig contains reload command configuration
type NotifyConfig struct {
	// Mode is "differentiated" (default) or "simple".
	Mode string `mapstructure:"mode"`

	// OnChange runs after the blocklist was rewritten.
	OnChange string `mapstructure:"on_change"`

	// OnExpire runs instead of OnChange when the rewrite only removed
	// expired entries (differentiated mode).
	OnExpire string `mapstructure:"on_expire"`

	// Shell runs commands through "sh -c".
	Shell bool `mapstructure:"shell"`

	Timeout time.Duration `mapstructure:"timeout"`
}

// SamplerConfig contains connection sampling configuration
type SamplerConfig struct {
	// Families limits sampling to "ipv4" and/or "ipv6" (both when empty).
	Families []string `mapstructure:"families"`

	// Exempt lists networks (CIDR or bare address) that are never blocked.
	Exempt []string `mapstructure:"exempt"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// AuditFile receives one JSON line per block, expiry and reload event.
	// Empty disables the audit log.
	AuditFile string `mapstructure:"audit_file"`

	// AuditMaxSizeMB is the size at which the audit file is rotated.
	AuditMaxSizeMB int `mapstructure:"audit_max_size_mb"`

	// AuditMaxBackups is the number of rotated audit files kept.
	AuditMaxBackups int `mapstructure:"audit_max_backups"`
}
