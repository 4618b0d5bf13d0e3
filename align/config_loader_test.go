package align

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
mqtt:
  broker: tcp://localhost:1883
  clientId: damsight-test
  publishPrefix: damsight
  instrumentsTopic: damsight/instruments
catalog: catalog.json
tables: tables.yaml
store: instruments.db
httpPort: 9090
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if config.MQTT.Broker != "tcp://localhost:1883" {
		t.Errorf("Broker = %q", config.MQTT.Broker)
	}
	if config.MQTT.InstrumentsTopic != "damsight/instruments" {
		t.Errorf("InstrumentsTopic = %q", config.MQTT.InstrumentsTopic)
	}
	if config.CatalogFile != "catalog.json" {
		t.Errorf("CatalogFile = %q", config.CatalogFile)
	}
	if config.StorePath != "instruments.db" {
		t.Errorf("StorePath = %q", config.StorePath)
	}
	if config.HTTPPort != 9090 {
		t.Errorf("HTTPPort = %d", config.HTTPPort)
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("catalog: catalog.json\n"), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if config.HTTPPort != 8080 {
		t.Errorf("default HTTPPort = %d, want 8080", config.HTTPPort)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(dir, "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("missing catalog", func(t *testing.T) {
		path := filepath.Join(dir, "nocatalog.yaml")
		if err := os.WriteFile(path, []byte("httpPort: 8080\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error when catalog is missing")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("catalog: [unclosed\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	original := &Config{
		MQTT: MQTTConfig{
			Broker:           "tcp://broker:1883",
			InstrumentsTopic: "damsight/instruments",
		},
		CatalogFile: "catalog.json",
		HTTPPort:    8080,
	}
	if err := SaveConfig(path, original); err != nil {
		t.Fatalf("SaveConfig error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if loaded.MQTT.Broker != original.MQTT.Broker {
		t.Errorf("Broker = %q, want %q", loaded.MQTT.Broker, original.MQTT.Broker)
	}
	if loaded.CatalogFile != original.CatalogFile {
		t.Errorf("CatalogFile = %q, want %q", loaded.CatalogFile, original.CatalogFile)
	}
}

func TestLoadTables(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tables.yaml")

	content := `
tags:
  100: EX1
  101: TC3
aliases:
  EX1: EX1-2
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	tables, err := LoadTables(path)
	if err != nil {
		t.Fatalf("LoadTables error: %v", err)
	}
	if tables.Tags[100] != "EX1" {
		t.Errorf("Tags[100] = %q, want EX1", tables.Tags[100])
	}
	if tables.Aliases["EX1"] != "EX1-2" {
		t.Errorf("Aliases[EX1] = %q, want EX1-2", tables.Aliases["EX1"])
	}
}

func TestLoadTables_MissingFileIsEmpty(t *testing.T) {
	tables, err := LoadTables(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing tables file should not error: %v", err)
	}
	if tables.Tags == nil || tables.Aliases == nil {
		t.Error("missing file should yield empty (non-nil) tables")
	}
	if len(tables.Tags) != 0 || len(tables.Aliases) != 0 {
		t.Errorf("tables not empty: %+v", tables)
	}
}
