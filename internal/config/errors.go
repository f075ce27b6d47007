package config

import "fmt"

// missing or invalid startup configuration; fatal for the process
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

func required(key string) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: "environment variable is required"}
}
