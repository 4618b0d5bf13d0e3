package align

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads the unified configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if config.CatalogFile == "" {
		return nil, fmt.Errorf("catalog is required")
	}
	if config.HTTPPort == 0 {
		config.HTTPPort = 8080
	}

	return &config, nil
}

// SaveConfig saves the configuration to a YAML file.
func SaveConfig(path string, config *Config) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// LoadTables loads the static tag and alias tables from a YAML file. The
// tables are configuration, versioned alongside the catalog; a missing file
// yields empty tables rather than an error, since absence of mappings is a
// legal (if unhelpful) state.
func LoadTables(path string) (Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Tables{Tags: TagIndex{}, Aliases: AliasIndex{}}, nil
		}
		return Tables{}, fmt.Errorf("reading tables file: %w", err)
	}

	var tables Tables
	if err := yaml.Unmarshal(data, &tables); err != nil {
		return Tables{}, fmt.Errorf("parsing tables YAML: %w", err)
	}

	if tables.Tags == nil {
		tables.Tags = TagIndex{}
	}
	if tables.Aliases == nil {
		tables.Aliases = AliasIndex{}
	}

	return tables, nil
}
