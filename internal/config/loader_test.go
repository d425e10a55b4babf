package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/surgeprotector/surgeprotector/internal/core"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	Configure(v)
	return v
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, "", cfg.Blocklist.Path)
	assert.Equal(t, DefaultLimit, cfg.Blocklist.Limit)
	assert.Equal(t, DefaultTTL, cfg.Blocklist.TTL)
	assert.Equal(t, string(core.NotifyDifferentiated), cfg.Notify.Mode)
	assert.True(t, cfg.Notify.Shell)
	assert.Equal(t, DefaultNotifyTimeout, cfg.Notify.Timeout)
	assert.Empty(t, cfg.Sampler.Families)
	assert.Empty(t, cfg.Sampler.Exempt)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, DefaultAuditMaxSizeMB, cfg.Logging.AuditMaxSizeMB)
	assert.Equal(t, DefaultAuditBackups, cfg.Logging.AuditMaxBackups)

	require.NoError(t, cfg.Validate())
}

func TestReadConfigFile(t *testing.T) {
	path := writeConfig(t, `
blocklist:
  path: /var/lib/tor/blocklist
  limit: 25
  ttl: 48
notify:
  mode: simple
  on_change: "systemctl reload tor"
  timeout: 30s
sampler:
  families: [ipv6]
  exempt:
    - 10.0.0.0/8
    - 192.0.2.1
logging:
  audit_file: /var/log/surgeprotector/audit.log
`)

	v := newTestViper()
	used, err := ReadConfigFile(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/tor/blocklist", cfg.Blocklist.Path)
	assert.Equal(t, 25, cfg.Blocklist.Limit)
	assert.Equal(t, 48*time.Hour, cfg.Blocklist.TTL)
	assert.Equal(t, "simple", cfg.Notify.Mode)
	assert.Equal(t, "systemctl reload tor", cfg.Notify.OnChange)
	assert.Equal(t, 30*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, []string{"ipv6"}, cfg.Sampler.Families)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.Sampler.Exempt)
	assert.Equal(t, "/var/log/surgeprotector/audit.log", cfg.Logging.AuditFile)

	require.NoError(t, cfg.ValidateForUpdate())
	assert.Equal(t, core.Policy{Mode: core.NotifySimple, OnChange: "systemctl reload tor"}, cfg.Policy())
}

func TestReadConfigFileExplicitMissing(t *testing.T) {
	_, err := ReadConfigFile(newTestViper(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestReadConfigFileSearchMissingIsFine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	used, err := ReadConfigFile(newTestViper(), "")
	require.NoError(t, err)
	assert.Equal(t, "", used)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("SURGEPROTECTOR_BLOCKLIST_LIMIT", "3")
	t.Setenv("SURGEPROTECTOR_BLOCKLIST_TTL", "12")
	t.Setenv("SURGEPROTECTOR_NOTIFY_ON_EXPIRE", "pkill -HUP tor")
	t.Setenv("SURGEPROTECTOR_SAMPLER_FAMILIES", "ipv4,ipv6")

	cfg, err := Load(newTestViper())
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Blocklist.Limit)
	assert.Equal(t, 12*time.Hour, cfg.Blocklist.TTL)
	assert.Equal(t, "pkill -HUP tor", cfg.Notify.OnExpire)
	assert.Equal(t, []string{"ipv4", "ipv6"}, cfg.Sampler.Families)
}

func TestParseTTL(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "24", want: 24 * time.Hour},
		{in: " 1 ", want: time.Hour},
		{in: "90m", want: 90 * time.Minute},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "3600s", want: time.Hour},
		{in: "", wantErr: true},
		{in: "soon", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTTL(tc.in)
			if tc.wantErr {
				require.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestLoadRejectsBadTTL(t *testing.T) {
	v := newTestViper()
	v.Set("blocklist.ttl", "whenever")

	_, err := Load(v)
	require.ErrorIs(t, err, ErrInvalid)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(newTestViper())
		require.NoError(t, err)
		return cfg
	}

	cases := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"negative limit", func(c *Config) { c.Blocklist.Limit = -1 }, "blocklist.limit"},
		{"zero ttl", func(c *Config) { c.Blocklist.TTL = 0 }, "blocklist.ttl"},
		{"unknown mode", func(c *Config) { c.Notify.Mode = "loud" }, "notify.mode"},
		{"negative timeout", func(c *Config) { c.Notify.Timeout = -time.Second }, "notify.timeout"},
		{"unknown family", func(c *Config) { c.Sampler.Families = []string{"ipx"} }, "sampler.families"},
		{"bad exempt", func(c *Config) { c.Sampler.Exempt = []string{"10.0.0.0/99"} }, "sampler.exempt"},
		{"negative backups", func(c *Config) { c.Logging.AuditMaxBackups = -1 }, "audit_max_backups"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tc.substr)
		})
	}
}

func TestValidateForUpdateRequiresPath(t *testing.T) {
	cfg, err := Load(newTestViper())
	require.NoError(t, err)

	err = cfg.ValidateForUpdate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "blocklist.path")

	cfg.Blocklist.Path = "-"
	require.NoError(t, cfg.ValidateForUpdate())
}

func TestPolicyDefaultsToDifferentiated(t *testing.T) {
	cfg := &Config{Notify: NotifyConfig{Mode: "", OnChange: " reload ", OnExpire: "expire"}}
	assert.Equal(t, core.Policy{Mode: core.NotifyDifferentiated, OnChange: "reload", OnExpire: "expire"}, cfg.Policy())
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if path == "" {
		t.Skip("no config directory available")
	}
	assert.Equal(t, "config.yaml", filepath.Base(path))
}
