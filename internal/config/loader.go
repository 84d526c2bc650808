package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Load loads configuration from various sources with priority order:
// 1. Environment variables
// 2. Configuration file (config.yaml, or the file named by CONFIG_PATH)
// 3. Default values
func Load() (*Config, error) {
	cfg, _, err := LoadFile(os.Getenv("CONFIG_PATH"))
	return cfg, err
}

// LoadFile is Load with an explicit config file. It also returns the file
// that was actually read, or "" when running on env vars and defaults.
func LoadFile(path string) (*Config, string, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/mirador-pcap/")
		v.AddConfigPath("./configs/")
		v.AddConfigPath(".")
	}

	// Enable environment variable support
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("PCAP")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, "", fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - continue with env vars and defaults
	}

	overrideWithEnvVars(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, "", fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := LoadSecrets(&config); err != nil {
		return nil, "", err
	}

	if err := validateConfig(&config); err != nil {
		return nil, "", fmt.Errorf("config validation failed: %w", err)
	}

	return &config, v.ConfigFileUsed(), nil
}

// setDefaults registers every key so AutomaticEnv can override it
func setDefaults(v *viper.Viper) {
	d := GetDefaultConfig()

	// Server defaults
	v.SetDefault("environment", d.Environment)
	v.SetDefault("port", d.Port)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("server.read_timeout_seconds", d.Server.ReadTimeoutSeconds)
	v.SetDefault("server.write_timeout_seconds", d.Server.WriteTimeoutSeconds)

	// Azure service principal
	v.SetDefault("azure.tenant_id", "")
	v.SetDefault("azure.client_id", "")
	v.SetDefault("azure.client_secret", "")
	v.SetDefault("azure.cloud", d.Azure.Cloud)

	// Capture policy
	v.SetDefault("capture.storage_account_id", "")
	v.SetDefault("capture.max_captures", d.Capture.MaxCaptures)
	v.SetDefault("capture.time_limit_seconds", d.Capture.TimeLimitSeconds)
	v.SetDefault("capture.name_max_length", d.Capture.NameMaxLength)
	v.SetDefault("capture.watcher_resource_group", d.Capture.WatcherResourceGroup)
	v.SetDefault("capture.watcher_name_prefix", d.Capture.WatcherNamePrefix)
	v.SetDefault("capture.agent.name", d.Capture.Agent.Name)
	v.SetDefault("capture.agent.publisher", d.Capture.Agent.Publisher)
	v.SetDefault("capture.agent.version", d.Capture.Agent.Version)
	v.SetDefault("capture.agent.linux_type", d.Capture.Agent.LinuxType)
	v.SetDefault("capture.agent.windows_type", d.Capture.Agent.WindowsType)

	// Endpoint lock (Valkey/Redis)
	v.SetDefault("lock.enabled", d.Lock.Enabled)
	v.SetDefault("lock.addr", d.Lock.Addr)
	v.SetDefault("lock.password", "")
	v.SetDefault("lock.db", d.Lock.DB)
	v.SetDefault("lock.ttl_seconds", d.Lock.TTLSeconds)
	v.SetDefault("lock.wait_timeout_ms", d.Lock.WaitTimeoutMs)

	// Tracing and monitoring
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.endpoint", d.Tracing.Endpoint)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("monitoring.metrics_path", d.Monitoring.MetricsPath)
}

// overrideWithEnvVars explicitly handles environment variable overrides,
// including the setting names used by the original function app
func overrideWithEnvVars(v *viper.Viper) {
	// Server configuration
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("port", p)
		}
	}

	if env := os.Getenv("ENVIRONMENT"); env != "" {
		v.Set("environment", env)
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		v.Set("log_level", logLevel)
	}

	// Service principal
	if tenantID := firstEnv("AZURE_TENANT_ID", "TenantId"); tenantID != "" {
		v.Set("azure.tenant_id", tenantID)
	}

	if clientID := firstEnv("AZURE_CLIENT_ID", "clientId"); clientID != "" {
		v.Set("azure.client_id", clientID)
	}

	if secret := firstEnv("AZURE_CLIENT_SECRET", "ClientKey"); secret != "" {
		v.Set("azure.client_secret", secret)
	}

	if cloud := os.Getenv("AZURE_CLOUD"); cloud != "" {
		v.Set("azure.cloud", strings.ToLower(cloud))
	}

	// Capture policy
	if storageID := firstEnv("PacketCaptureStorageAccount", "PCAP_STORAGE_ACCOUNT_ID"); storageID != "" {
		v.Set("capture.storage_account_id", storageID)
	}

	if maxCaptures := os.Getenv("MAX_CAPTURES"); maxCaptures != "" {
		if n, err := strconv.Atoi(maxCaptures); err == nil {
			v.Set("capture.max_captures", n)
		}
	}

	if limit := os.Getenv("CAPTURE_TIME_LIMIT_SECONDS"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			v.Set("capture.time_limit_seconds", n)
		}
	}

	// Endpoint lock
	if lockAddr := os.Getenv("LOCK_ADDR"); lockAddr != "" {
		v.Set("lock.addr", lockAddr)
		v.Set("lock.enabled", true)
	}

	// Tracing
	if otlp := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); otlp != "" {
		v.Set("tracing.endpoint", strings.TrimPrefix(strings.TrimPrefix(otlp, "http://"), "https://"))
		v.Set("tracing.enabled", true)
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if val := strings.TrimSpace(os.Getenv(k)); val != "" {
			return val
		}
	}
	return ""
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	// Validate port range
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("invalid port number: %d", config.Port)
	}

	if !contains(validLogLevels, config.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.LogLevel)
	}

	if !contains(validEnvironments, config.Environment) {
		return fmt.Errorf("invalid environment: %s", config.Environment)
	}

	if !contains(validClouds, config.Azure.Cloud) {
		return fmt.Errorf("invalid azure cloud: %s", config.Azure.Cloud)
	}

	if config.Server.MaxBodyBytes < 1 {
		return fmt.Errorf("server max_body_bytes must be positive")
	}

	if err := validateCapture(&config.Capture); err != nil {
		return err
	}

	if config.Lock.Enabled {
		if err := ValidateRedisNode(config.Lock.Addr); err != nil {
			return fmt.Errorf("lock: %w", err)
		}
		if config.Lock.TTLSeconds < 1 {
			return fmt.Errorf("lock ttl must be at least 1 second")
		}
		if config.Lock.WaitTimeoutMs < 0 {
			return fmt.Errorf("lock wait timeout cannot be negative")
		}
	}

	if config.Tracing.Enabled {
		if err := ValidateGRPCEndpoint(config.Tracing.Endpoint); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	return nil
}

func validateCapture(c *CaptureConfig) error {
	if c.MaxCaptures < 1 {
		return fmt.Errorf("capture max_captures must be at least 1")
	}

	if c.TimeLimitSeconds < 1 || c.TimeLimitSeconds > MaxCaptureTimeLimitSeconds {
		return fmt.Errorf("capture time_limit_seconds must be between 1 and %d", MaxCaptureTimeLimitSeconds)
	}

	if c.NameMaxLength < 1 || c.NameMaxLength > MaxCaptureNameLength-CaptureNameSuffixLength {
		return fmt.Errorf("capture name_max_length must be between 1 and %d", MaxCaptureNameLength-CaptureNameSuffixLength)
	}

	if strings.TrimSpace(c.WatcherResourceGroup) == "" {
		return fmt.Errorf("capture watcher_resource_group is required")
	}

	if strings.TrimSpace(c.WatcherNamePrefix) == "" {
		return fmt.Errorf("capture watcher_name_prefix is required")
	}

	if c.Agent.Publisher == "" || c.Agent.Version == "" || c.Agent.Name == "" {
		return fmt.Errorf("capture agent name, publisher and version are required")
	}

	if c.Agent.LinuxType == "" || c.Agent.WindowsType == "" {
		return fmt.Errorf("capture agent linux_type and windows_type are required")
	}

	if c.StorageAccountID != "" {
		if err := ValidateResourceID(c.StorageAccountID); err != nil {
			return fmt.Errorf("capture storage_account_id: %w", err)
		}
	}

	return nil
}
