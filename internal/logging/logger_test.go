package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestLoggerInitialization(t *testing.T) {
	if GetLogger() == nil {
		t.Fatal("Logger is not initialized")
	}
}

func TestInfoLogging(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Info logging panicked: %v", r)
		}
	}()

	Info("test message", zap.String("key", "value"))
}

func TestWarnLogging(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Warn logging panicked: %v", r)
		}
	}()

	Warn("test warning", zap.String("key", "value"))
}

func TestErrorLogging(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Error logging panicked: %v", r)
		}
	}()

	Error("test error", zap.String("key", "value"))
}

func TestDebugLogging(t *testing.T) {
	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Debug logging panicked: %v", r)
		}
	}()

	Debug("test debug", zap.String("key", "value"))
}

func TestPick(t *testing.T) {
	if Pick(nil) != GetLogger() {
		t.Error("Pick(nil) should return the package default logger")
	}

	custom := zap.NewNop()
	if Pick(custom) != custom {
		t.Error("Pick(custom) should return the override")
	}
}
