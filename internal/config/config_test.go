package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		t.Setenv("PLANNER_DB_PATH", "/tmp/planner.db")
		t.Setenv("PLANNER_HTTP_ADDR", ":9090")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.DatabasePath != "/tmp/planner.db" {
			t.Errorf("Expected DatabasePath '/tmp/planner.db', got '%s'", cfg.DatabasePath)
		}
		if cfg.HTTPAddr != ":9090" {
			t.Errorf("Expected HTTPAddr ':9090', got '%s'", cfg.HTTPAddr)
		}
	})

	t.Run("DefaultHTTPAddr", func(t *testing.T) {
		t.Setenv("PLANNER_DB_PATH", "/tmp/planner.db")
		os.Unsetenv("PLANNER_HTTP_ADDR")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.HTTPAddr != ":8080" {
			t.Errorf("Expected default HTTPAddr ':8080', got '%s'", cfg.HTTPAddr)
		}
	})

	t.Run("MissingDatabasePath", func(t *testing.T) {
		os.Unsetenv("PLANNER_DB_PATH")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing PLANNER_DB_PATH, got nil")
		}
		expectedError := "PLANNER_DB_PATH environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})
}
