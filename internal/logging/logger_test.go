package logging

import (
	"testing"

	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	prod, err := New("production", "")
	if err != nil {
		t.Fatalf("production logger: %v", err)
	}
	if prod.Core().Enabled(zap.DebugLevel) || !prod.Core().Enabled(zap.InfoLevel) {
		t.Fatal("production logger should log info but not debug")
	}

	dev, err := New("development", "warn")
	if err != nil {
		t.Fatalf("development logger: %v", err)
	}
	if dev.Core().Enabled(zap.InfoLevel) || !dev.Core().Enabled(zap.WarnLevel) {
		t.Fatal("level override not applied")
	}

	if _, err := New("development", "loud"); err == nil {
		t.Fatal("expected invalid level error")
	}
}
