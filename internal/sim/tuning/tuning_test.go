package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"homestead.ai/internal/protocol"
)

func TestLoad_OverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	data := []byte("tick_rate_hz: 30\nseed: 7\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	tune, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if tune.TickRateHz != 30 || tune.Seed != 7 {
		t.Fatalf("overridden fields = %d, %d", tune.TickRateHz, tune.Seed)
	}
	// Untouched fields keep their defaults.
	def := Defaults()
	if tune.MaxSessions != def.MaxSessions || tune.OutQueueLen != def.OutQueueLen {
		t.Fatalf("defaults clobbered: %+v", tune)
	}
	if tune.ProtocolVersion != protocol.Version {
		t.Fatalf("protocol_version = %q, want %q", tune.ProtocolVersion, protocol.Version)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	tune, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if !os.IsNotExist(err) {
		t.Fatalf("err = %v, want not-exist", err)
	}
	if tune != Defaults() {
		t.Fatalf("tune = %+v, want defaults", tune)
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: [oops"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
