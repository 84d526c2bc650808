package config

import (
	"fmt"
	"time"
)

// contains checks if a string slice contains a specific value
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// ListenAddr is the HTTP listen address
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ReadTimeout returns the HTTP server read timeout
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout covers a full pipeline run, so it is much longer than ReadTimeout.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// TTL returns the lock lease as a duration
func (l LockConfig) TTL() time.Duration {
	ttl := l.TTLSeconds
	if ttl == 0 {
		ttl = DefaultLockTTLSeconds
	}
	return time.Duration(ttl) * time.Second
}

// WaitTimeout returns how long an invocation waits for a busy endpoint
func (l LockConfig) WaitTimeout() time.Duration {
	return time.Duration(l.WaitTimeoutMs) * time.Millisecond
}

// HasCredentials reports whether all three service-principal settings are present
func (a AzureConfig) HasCredentials() bool {
	return a.TenantID != "" && a.ClientID != "" && a.ClientSecret != ""
}
