package config

type Config struct {
	Environment string `mapstructure:"environment" yaml:"environment"`
	Port        int    `mapstructure:"port" yaml:"port"`
	LogLevel    string `mapstructure:"log_level" yaml:"log_level"`

	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Azure      AzureConfig      `mapstructure:"azure" yaml:"azure"`
	Capture    CaptureConfig    `mapstructure:"capture" yaml:"capture"`
	Lock       LockConfig       `mapstructure:"lock" yaml:"lock"`
	Tracing    TracingConfig    `mapstructure:"tracing" yaml:"tracing"`
	Monitoring MonitoringConfig `mapstructure:"monitoring" yaml:"monitoring"`
}

// ServerConfig handles the webhook listener
type ServerConfig struct {
	MaxBodyBytes        int64 `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	ReadTimeoutSeconds  int   `mapstructure:"read_timeout_seconds" yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int   `mapstructure:"write_timeout_seconds" yaml:"write_timeout_seconds"`
}

// AzureConfig holds the service principal used against the control plane.
// Secrets are checked by the credential resolver, not at load time.
type AzureConfig struct {
	TenantID     string `mapstructure:"tenant_id" yaml:"tenant_id"`
	ClientID     string `mapstructure:"client_id" yaml:"client_id"`
	ClientSecret string `mapstructure:"client_secret" yaml:"-"`
	Cloud        string `mapstructure:"cloud" yaml:"cloud"` // public, china, usgov
}

// CaptureConfig is the packet capture policy
type CaptureConfig struct {
	StorageAccountID     string      `mapstructure:"storage_account_id" yaml:"storage_account_id"`
	MaxCaptures          int         `mapstructure:"max_captures" yaml:"max_captures"`
	TimeLimitSeconds     int         `mapstructure:"time_limit_seconds" yaml:"time_limit_seconds"`
	NameMaxLength        int         `mapstructure:"name_max_length" yaml:"name_max_length"`
	WatcherResourceGroup string      `mapstructure:"watcher_resource_group" yaml:"watcher_resource_group"`
	WatcherNamePrefix    string      `mapstructure:"watcher_name_prefix" yaml:"watcher_name_prefix"`
	Agent                AgentConfig `mapstructure:"agent" yaml:"agent"`
}

// AgentConfig describes the VM extension that performs captures
type AgentConfig struct {
	Name        string `mapstructure:"name" yaml:"name"`
	Publisher   string `mapstructure:"publisher" yaml:"publisher"`
	Version     string `mapstructure:"version" yaml:"version"`
	LinuxType   string `mapstructure:"linux_type" yaml:"linux_type"`
	WindowsType string `mapstructure:"windows_type" yaml:"windows_type"`
}

// LockConfig configures optional per-watcher serialization through Valkey/Redis
type LockConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr          string `mapstructure:"addr" yaml:"addr"`
	Password      string `mapstructure:"password" yaml:"-"`
	DB            int    `mapstructure:"db" yaml:"db"`
	TTLSeconds    int    `mapstructure:"ttl_seconds" yaml:"ttl_seconds"`
	WaitTimeoutMs int    `mapstructure:"wait_timeout_ms" yaml:"wait_timeout_ms"`
}

type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint    string `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
}

type MonitoringConfig struct {
	MetricsPath string `mapstructure:"metrics_path" yaml:"metrics_path"`
}
