package orchestrator

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDebugLoggerForDirWritesUnderStateDir(t *testing.T) {
	dir := t.TempDir()

	logger := NewDebugLoggerForDir(dir)
	defer logger.Close()
	logger.Log("engine started task=%s", "t1")

	logPath := filepath.Join(dir, "logs", "engine-debug.log")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read debug log: %v", err)
	}
	if !strings.Contains(string(data), "engine started task=t1") {
		t.Errorf("debug log missing entry, got:\n%s", data)
	}
}

func TestNopLoggerIsSafe(t *testing.T) {
	logger := NopLogger()
	logger.Log("ignored %d", 1)
	if err := logger.Close(); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}

	var nilLogger *DebugLogger
	nilLogger.Log("also ignored")
	if err := nilLogger.Close(); err != nil {
		t.Errorf("nil Close() = %v, want nil", err)
	}
}

func TestEngineDefaultsToNopLogger(t *testing.T) {
	env := newTestEnv(t)
	if env.engine.logger == nil {
		t.Fatal("engine without WithLogger should carry a no-op logger")
	}
	env.engine.debugf("must not panic")
}
