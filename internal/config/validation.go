package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// ValidateGRPCEndpoint validates gRPC endpoint format
func ValidateGRPCEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("gRPC endpoint cannot be empty")
	}

	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		return fmt.Errorf("gRPC endpoint must include port: %w", err)
	}

	if host == "" {
		return fmt.Errorf("gRPC endpoint must include host")
	}

	return validatePort(port)
}

// ValidateRedisNode validates Redis node format
func ValidateRedisNode(node string) error {
	if node == "" {
		return fmt.Errorf("Redis node cannot be empty")
	}

	// Check format: host:port
	host, port, err := net.SplitHostPort(node)
	if err != nil {
		return fmt.Errorf("Redis node must be in format host:port: %w", err)
	}

	if host == "" {
		return fmt.Errorf("Redis node must include host")
	}

	return validatePort(port)
}

// ValidateResourceID checks the coarse shape of a fully-qualified ARM id:
// /subscriptions/{sub}/resourceGroups/{rg}/providers/{ns}/{type}/{name}
func ValidateResourceID(id string) error {
	if !strings.HasPrefix(id, "/") {
		return fmt.Errorf("resource id must start with '/'")
	}

	parts := strings.Split(strings.Trim(id, "/"), "/")
	if len(parts) < 8 {
		return fmt.Errorf("resource id %q is not fully qualified", id)
	}

	if !strings.EqualFold(parts[0], "subscriptions") || !strings.EqualFold(parts[2], "resourceGroups") ||
		!strings.EqualFold(parts[4], "providers") {
		return fmt.Errorf("resource id %q is not a subscription-scoped provider id", id)
	}

	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return fmt.Errorf("resource id %q has an empty segment", id)
		}
	}

	return nil
}

func validatePort(port string) error {
	portNum, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port number: %w", err)
	}

	if portNum < 1 || portNum > 65535 {
		return fmt.Errorf("port number must be between 1 and 65535")
	}

	return nil
}
