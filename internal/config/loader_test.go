package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platformbuilds/mirador-pcap/pkg/logger"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestConfigLoading(t *testing.T) {
	t.Run("defaults only", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, DefaultPort, config.Port)
		assert.Equal(t, 10, config.Capture.MaxCaptures)
		assert.Equal(t, 15, config.Capture.TimeLimitSeconds)
		assert.Equal(t, 50, config.Capture.NameMaxLength)
		assert.Equal(t, "NetworkWatcherRG", config.Capture.WatcherResourceGroup)
		assert.Equal(t, "1.4", config.Capture.Agent.Version)
		assert.False(t, config.Lock.Enabled)
	})

	t.Run("load from file", func(t *testing.T) {
		path := writeConfig(t, `
environment: test
port: 9999
log_level: debug

capture:
  storage_account_id: /subscriptions/s1/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/pcaps
  max_captures: 3
  time_limit_seconds: 60
`)
		t.Setenv("CONFIG_PATH", path)

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test", config.Environment)
		assert.Equal(t, 9999, config.Port)
		assert.Equal(t, "debug", config.LogLevel)
		assert.Equal(t, 3, config.Capture.MaxCaptures)
		assert.Equal(t, 60, config.Capture.TimeLimitSeconds)
		// untouched keys keep defaults
		assert.Equal(t, 50, config.Capture.NameMaxLength)
	})

	t.Run("prefixed env var precedence", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Setenv("PCAP_PORT", "7777")
		t.Setenv("PCAP_LOG_LEVEL", "warn")
		t.Setenv("PCAP_CAPTURE_MAX_CAPTURES", "4")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 7777, config.Port)
		assert.Equal(t, "warn", config.LogLevel)
		assert.Equal(t, 4, config.Capture.MaxCaptures)
	})

	t.Run("function app setting names", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Setenv("TenantId", "tenant-1")
		t.Setenv("clientId", "client-1")
		t.Setenv("ClientKey", "secret-1")
		t.Setenv("PacketCaptureStorageAccount", "/subscriptions/s1/resourceGroups/rg/providers/Microsoft.Storage/storageAccounts/pcaps")

		config, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "tenant-1", config.Azure.TenantID)
		assert.Equal(t, "client-1", config.Azure.ClientID)
		assert.Equal(t, "secret-1", config.Azure.ClientSecret)
		assert.True(t, config.Azure.HasCredentials())
		assert.Contains(t, config.Capture.StorageAccountID, "storageAccounts/pcaps")
	})

	t.Run("lock addr enables lock", func(t *testing.T) {
		t.Setenv("CONFIG_PATH", "")
		t.Setenv("LOCK_ADDR", "valkey:6379")

		config, err := Load()
		require.NoError(t, err)
		assert.True(t, config.Lock.Enabled)
		assert.Equal(t, "valkey:6379", config.Lock.Addr)
	})

	t.Run("invalid file values are rejected", func(t *testing.T) {
		path := writeConfig(t, "capture:\n  max_captures: 0\n")
		_, _, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_captures")
	})

	t.Run("missing explicit file is an error", func(t *testing.T) {
		_, _, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
		assert.Error(t, err)
	})
}

func TestSecretsLoading(t *testing.T) {
	dir := t.TempDir()
	secretFile := filepath.Join(dir, "client-secret")
	require.NoError(t, os.WriteFile(secretFile, []byte("from-file\n"), 0o600))

	t.Run("client secret from file", func(t *testing.T) {
		config := GetDefaultConfig()
		t.Setenv("AZURE_CLIENT_SECRET_FILE", secretFile)

		require.NoError(t, LoadSecrets(config))
		assert.Equal(t, "from-file", config.Azure.ClientSecret)
	})

	t.Run("explicit secret wins over file", func(t *testing.T) {
		config := GetDefaultConfig()
		config.Azure.ClientSecret = "inline"
		t.Setenv("AZURE_CLIENT_SECRET_FILE", secretFile)

		require.NoError(t, LoadSecrets(config))
		assert.Equal(t, "inline", config.Azure.ClientSecret)
	})

	t.Run("unreadable file", func(t *testing.T) {
		config := GetDefaultConfig()
		t.Setenv("LOCK_PASSWORD_FILE", filepath.Join(dir, "missing"))

		err := LoadSecrets(config)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "lock password")
	})

	t.Run("missing secrets are not a load error", func(t *testing.T) {
		config := GetDefaultConfig()
		require.NoError(t, LoadSecrets(config))
		assert.False(t, config.Azure.HasCredentials())
	})

	t.Run("redacted copy", func(t *testing.T) {
		config := GetDefaultConfig()
		config.Azure.ClientSecret = "s3cret"
		safe := config.Redacted()
		assert.Equal(t, "[REDACTED]", safe.Azure.ClientSecret)
		assert.Equal(t, "s3cret", config.Azure.ClientSecret)
	})
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = 0 }, "invalid port"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "invalid log level"},
		{"bad cloud", func(c *Config) { c.Azure.Cloud = "mars" }, "invalid azure cloud"},
		{"time limit too long", func(c *Config) { c.Capture.TimeLimitSeconds = MaxCaptureTimeLimitSeconds + 1 }, "time_limit_seconds"},
		{"name length too long", func(c *Config) { c.Capture.NameMaxLength = 70 }, "name_max_length"},
		{"malformed storage id", func(c *Config) { c.Capture.StorageAccountID = "pcaps" }, "storage_account_id"},
		{"lock without addr", func(c *Config) { c.Lock.Enabled = true; c.Lock.Addr = "" }, "lock"},
		{"tracing without port", func(c *Config) { c.Tracing.Enabled = true; c.Tracing.Endpoint = "collector" }, "tracing"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := GetDefaultConfig()
			tt.mutate(config)
			err := validateConfig(config)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateResourceID(t *testing.T) {
	assert.NoError(t, ValidateResourceID("/subscriptions/s/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm1"))
	assert.Error(t, ValidateResourceID("subscriptions/s/resourceGroups/rg"))
	assert.Error(t, ValidateResourceID("/subscriptions/s/resourceGroups/rg"))
	assert.Error(t, ValidateResourceID("/tenants/t/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm1"))
}

func TestConfigWatcherReload(t *testing.T) {
	path := writeConfig(t, "capture:\n  max_captures: 5\n")
	initial, used, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	w := NewConfigWatcher(path, initial, logger.NewNop())
	changed := make(chan *Config, 1)
	w.RegisterWatcher(func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher time to register before writing.
	require.Eventually(t, func() bool {
		require.NoError(t, os.WriteFile(path, []byte("capture:\n  max_captures: 7\n"), 0o600))
		select {
		case c := <-changed:
			return c.Capture.MaxCaptures == 7
		case <-time.After(100 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	assert.Equal(t, 7, w.GetConfig().Capture.MaxCaptures)

	w.Stop()
	require.NoError(t, <-done)
}

func BenchmarkConfigValidation(b *testing.B) {
	config := GetDefaultConfig()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		if err := validateConfig(config); err != nil {
			b.Fatal(err)
		}
	}
}
