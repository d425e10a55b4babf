// Package config provides configuration management for surgeprotector.
// Settings are layered with viper (defaults, config file, environment, flags)
// and decoded into a typed Config with mapstructure.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/surgeprotector/surgeprotector/internal/appid"
	"github.com/surgeprotector/surgeprotector/internal/core"
	"github.com/surgeprotector/surgeprotector/internal/core/sampler"
)

// Defaults
const (
	DefaultLimit          = 10
	DefaultTTL            = 24 * time.Hour
	DefaultNotifyTimeout  = 5 * time.Minute
	DefaultAuditMaxSizeMB = 10
	DefaultAuditBackups   = 3
)

// ErrInvalid marks configuration validation failures.
var ErrInvalid = errors.New("invalid configuration")

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("blocklist.path", "")
	v.SetDefault("blocklist.limit", DefaultLimit)
	v.SetDefault("blocklist.ttl", DefaultTTL.String())

	v.SetDefault("notify.mode", string(core.NotifyDifferentiated))
	v.SetDefault("notify.on_change", "")
	v.SetDefault("notify.on_expire", "")
	v.SetDefault("notify.shell", true)
	v.SetDefault("notify.timeout", DefaultNotifyTimeout.String())

	v.SetDefault("sampler.families", []string{})
	v.SetDefault("sampler.exempt", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.audit_file", "")
	v.SetDefault("logging.audit_max_size_mb", DefaultAuditMaxSizeMB)
	v.SetDefault("logging.audit_max_backups", DefaultAuditBackups)
}

// Configure registers defaults on v and enables SURGEPROTECTOR_*
// environment variables (dots become underscores, e.g.
// SURGEPROTECTOR_BLOCKLIST_LIMIT).
func Configure(v *viper.Viper) {
	SetDefaults(v)
	v.SetEnvPrefix(strings.TrimSuffix(appid.Get().EnvPrefix, "_"))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// ReadConfigFile reads path, or searches the default locations when path is
// empty. A missing file in the default locations is not an error; it
// returns the path used, or "" when none was found.
func ReadConfigFile(v *viper.Viper, path string) (string, error) {
	if strings.TrimSpace(path) != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return "", fmt.Errorf("%w: read config %s: %w", ErrInvalid, path, err)
		}
		return v.ConfigFileUsed(), nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range searchPaths() {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("%w: read config: %w", ErrInvalid, err)
	}
	return v.ConfigFileUsed(), nil
}

func searchPaths() []string {
	paths := make([]string, 0, 3)
	if dir := DefaultConfigDir(); dir != "" {
		paths = append(paths, dir)
	}
	paths = append(paths, filepath.Join("/etc", appid.Get().ConfigName))
	paths = append(paths, "./config")
	return paths
}

// DefaultConfigDir returns the XDG-compliant config directory for the app.
func DefaultConfigDir() string {
	return gfconfig.GetAppConfigDir(appid.Get().ConfigName)
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	dir := DefaultConfigDir()
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load decodes the layered settings in v into a Config. It does not
// validate; call Validate before use.
func Load(v *viper.Viper) (*Config, error) {
	settings := v.AllSettings()
	if err := normalizeTTL(settings); err != nil {
		return nil, err
	}

	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(settings); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal config: %w", ErrInvalid, err)
	}

	cfg.Sampler.Families = trimEmpty(cfg.Sampler.Families)
	cfg.Sampler.Exempt = trimEmpty(cfg.Sampler.Exempt)

	return cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	var problems []string

	if c.Blocklist.Limit < 0 {
		problems = append(problems, "blocklist.limit must not be negative")
	}
	if c.Blocklist.TTL < time.Second {
		problems = append(problems, "blocklist.ttl must be at least one second")
	}
	if _, err := core.ParseNotifyMode(c.Notify.Mode); err != nil {
		problems = append(problems, "notify.mode: "+err.Error())
	}
	if c.Notify.Timeout < 0 {
		problems = append(problems, "notify.timeout must not be negative")
	}
	if _, err := sampler.ParseFamilies(c.Sampler.Families); err != nil {
		problems = append(problems, "sampler.families: "+err.Error())
	}
	for _, network := range c.Sampler.Exempt {
		if _, err := sampler.ParseNetwork(network); err != nil {
			problems = append(problems, "sampler.exempt: "+err.Error())
		}
	}
	if c.Logging.AuditMaxSizeMB < 0 {
		problems = append(problems, "logging.audit_max_size_mb must not be negative")
	}
	if c.Logging.AuditMaxBackups < 0 {
		problems = append(problems, "logging.audit_max_backups must not be negative")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// ValidateForUpdate is Validate plus the settings only the update command
// needs.
func (c *Config) ValidateForUpdate() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Blocklist.Path) == "" {
		return fmt.Errorf("%w: blocklist.path is required", ErrInvalid)
	}
	return nil
}

// Policy returns the notification policy.
func (c *Config) Policy() core.Policy {
	mode, err := core.ParseNotifyMode(c.Notify.Mode)
	if err != nil {
		mode = core.NotifyDifferentiated
	}
	return core.Policy{
		Mode:     mode,
		OnChange: strings.TrimSpace(c.Notify.OnChange),
		OnExpire: strings.TrimSpace(c.Notify.OnExpire),
	}
}

// ParseTTL parses a Go duration, or a bare integer number of hours.
func ParseTTL(value string) (time.Duration, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, fmt.Errorf("%w: empty ttl", ErrInvalid)
	}
	if hours, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return time.Duration(hours) * time.Hour, nil
	}
	d, err := time.ParseDuration(trimmed)
	if err != nil {
		return 0, fmt.Errorf("%w: ttl %q: %w", ErrInvalid, value, err)
	}
	return d, nil
}

// normalizeTTL rewrites blocklist.ttl in settings to a duration string so
// that bare numbers mean hours, whether they come from YAML, env or flags.
func normalizeTTL(settings map[string]any) error {
	section, ok := settings["blocklist"].(map[string]any)
	if !ok {
		return nil
	}

	raw, ok := section["ttl"]
	if !ok || raw == nil {
		return nil
	}

	var text string
	switch value := raw.(type) {
	case time.Duration:
		return nil
	case string:
		text = value
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		text = fmt.Sprintf("%d", value)
	case float32, float64:
		text = fmt.Sprintf("%v", value)
	default:
		return fmt.Errorf("%w: unsupported ttl value %v", ErrInvalid, raw)
	}

	d, err := ParseTTL(text)
	if err != nil {
		return err
	}
	section["ttl"] = d.String()
	return nil
}

func trimEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
