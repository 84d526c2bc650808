package config

// GetDefaultConfig returns a configuration with all default values
func GetDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Port:        DefaultPort,
		LogLevel:    "info",

		Server: ServerConfig{
			MaxBodyBytes:        DefaultMaxBodyBytes,
			ReadTimeoutSeconds:  30,
			WriteTimeoutSeconds: 300,
		},

		Azure: AzureConfig{
			Cloud: "public",
		},

		Capture: CaptureConfig{
			MaxCaptures:          DefaultMaxCaptures,
			TimeLimitSeconds:     DefaultTimeLimitSeconds,
			NameMaxLength:        DefaultNameMaxLength,
			WatcherResourceGroup: DefaultWatcherResourceGroup,
			WatcherNamePrefix:    DefaultWatcherNamePrefix,
			Agent: AgentConfig{
				Name:        DefaultAgentName,
				Publisher:   DefaultAgentPublisher,
				Version:     DefaultAgentVersion,
				LinuxType:   DefaultAgentLinuxType,
				WindowsType: DefaultAgentWindowsType,
			},
		},

		Lock: LockConfig{
			Enabled:       false,
			Addr:          "localhost:6379",
			TTLSeconds:    DefaultLockTTLSeconds,
			WaitTimeoutMs: DefaultLockWaitTimeoutMs,
		},

		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: ServiceName,
		},

		Monitoring: MonitoringConfig{
			MetricsPath: "/metrics",
		},
	}
}
