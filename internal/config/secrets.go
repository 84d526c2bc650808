package config

import (
	"fmt"
	"os"
	"strings"
)

// LoadSecrets loads sensitive configuration from environment or files.
// Missing secrets are not an error here; the pipeline reports them per invocation.
func LoadSecrets(config *Config) error {
	// Service principal secret
	if config.Azure.ClientSecret == "" {
		if secretFile := os.Getenv("AZURE_CLIENT_SECRET_FILE"); secretFile != "" {
			secret, err := readSecretFile(secretFile)
			if err != nil {
				return fmt.Errorf("failed to read client secret file: %w", err)
			}
			config.Azure.ClientSecret = secret
		}
	}

	// Lock store password
	if lockPassword := os.Getenv("LOCK_PASSWORD"); lockPassword != "" {
		config.Lock.Password = lockPassword
	} else if passwordFile := os.Getenv("LOCK_PASSWORD_FILE"); passwordFile != "" {
		password, err := readSecretFile(passwordFile)
		if err != nil {
			return fmt.Errorf("failed to read lock password file: %w", err)
		}
		config.Lock.Password = password
	}

	return nil
}

func readSecretFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

// Redacted returns a copy of the configuration with secrets masked
func (c *Config) Redacted() Config {
	safeCopy := *c
	if safeCopy.Azure.ClientSecret != "" {
		safeCopy.Azure.ClientSecret = "[REDACTED]"
	}
	if safeCopy.Lock.Password != "" {
		safeCopy.Lock.Password = "[REDACTED]"
	}
	return safeCopy
}
