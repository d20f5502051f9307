package config

import (
	"fmt"
	"os"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath string
	HTTPAddr     string
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	dbPath := os.Getenv("PLANNER_DB_PATH")
	if dbPath == "" {
		return nil, fmt.Errorf("PLANNER_DB_PATH environment variable not set")
	}

	httpAddr := os.Getenv("PLANNER_HTTP_ADDR")
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	return &Config{
		DatabasePath: dbPath,
		HTTPAddr:     httpAddr,
	}, nil
}
