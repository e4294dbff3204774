package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Level: "debug", Dir: dir, Filename: "auth.log"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("server listening on %s", "127.0.0.1:8080")
	logger.Debug("challenge issued for %s", "0xabc")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "auth.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "server listening on 127.0.0.1:8080") {
		t.Fatalf("info line missing from output: %s", out)
	}
	if !strings.Contains(out, "challenge issued for 0xabc") {
		t.Fatalf("debug line missing from output: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(Config{Level: "error", Dir: dir, Filename: "auth.log"})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("should be filtered")
	logger.Error("should appear")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "auth.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "should be filtered") {
		t.Fatalf("info line should have been filtered: %s", out)
	}
	if !strings.Contains(out, "should appear") {
		t.Fatalf("error line missing: %s", out)
	}
}
