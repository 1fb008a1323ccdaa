package logging

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Level != LevelInfo {
		t.Errorf("Expected default level %s, got %s", LevelInfo, cfg.Level)
	}
	if cfg.Format != FormatText {
		t.Errorf("Expected default format %s, got %s", FormatText, cfg.Format)
	}
	if cfg.Output != "stderr" {
		t.Errorf("Expected default output 'stderr', got '%s'", cfg.Output)
	}
	if cfg.AddSource {
		t.Error("Expected AddSource to be false by default")
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("stdout text logger", func(t *testing.T) {
		logger, err := New(Config{Level: LevelInfo, Format: FormatText, Output: "stdout"})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		if logger == nil {
			t.Fatal("Expected logger, got nil")
		}
	})

	t.Run("stderr json logger", func(t *testing.T) {
		logger, err := New(Config{Level: LevelDebug, Format: FormatJSON, Output: "stderr"})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		if logger == nil {
			t.Fatal("Expected logger, got nil")
		}
	})

	t.Run("file output creates directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "netscan.log")
		logger, err := New(Config{Level: LevelInfo, Format: FormatText, Output: path})
		if err != nil {
			t.Fatalf("Failed to create file logger: %v", err)
		}
		logger.Info("test entry")
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		logger, err := New(Config{Level: "bogus", Format: FormatText, Output: "stderr"})
		if err != nil {
			t.Fatalf("Failed to create logger: %v", err)
		}
		if logger == nil {
			t.Fatal("Expected logger, got nil")
		}
	})
}

func TestWithHelpers(t *testing.T) {
	logger := NewDefault()

	scoped := logger.WithComponent("scan").WithScanID("abc-123")
	if scoped == nil {
		t.Fatal("Expected scoped logger, got nil")
	}

	// Helper methods should not panic with nil errors or empty fields.
	scoped.InfoScan("probe complete", "localhost", "port", 80)
	scoped.ErrorScan("probe failed", "localhost", nil)
	scoped.InfoDiscovery("sweep started", "192.168.1")
}

func TestSetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	replacement := NewDefault()
	SetDefault(replacement)

	if Default() != replacement {
		t.Error("Expected default logger to be replaced")
	}
}
