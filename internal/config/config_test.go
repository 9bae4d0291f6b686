package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "router.ini")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing test config: %v", err)
	}
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `[SETTINGS]
router-id = 2
input-ports = 5002
outputs = 5003-1-3
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RouterID != 2 {
		t.Errorf("RouterID = %d, want 2", cfg.RouterID)
	}
	if len(cfg.InputPorts) != 1 || cfg.InputPorts[0] != 5002 {
		t.Errorf("InputPorts = %v, want [5002]", cfg.InputPorts)
	}
	if len(cfg.Outputs) != 1 || cfg.Outputs[0] != (Output{Port: 5003, Metric: 1, RouterID: 3}) {
		t.Errorf("Outputs = %+v, want [{5003 1 3}]", cfg.Outputs)
	}
}

func TestLoadRejectsOutOfRangeRouterID(t *testing.T) {
	path := writeConfig(t, `[SETTINGS]
router-id = 70000
input-ports = 5002
outputs = 5003-1-3
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for out-of-range router-id")
	}
}

func TestLoadRejectsPortUsedAsBothInputAndOutput(t *testing.T) {
	path := writeConfig(t, `[SETTINGS]
router-id = 2
input-ports = 5003
outputs = 5003-1-3
`)
	if _, err := Load(path); err == nil {
		t.Error("expected error for a port used as both input and output")
	}
}

func TestLoadRejectsMissingSection(t *testing.T) {
	path := writeConfig(t, "router-id = 2\n")
	if _, err := Load(path); err == nil {
		t.Error("expected error for missing [SETTINGS] section")
	}
}
