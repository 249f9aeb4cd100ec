package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/riftlock/vaultengine/pkg/vcrypto"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional ~/.vaultenginectl/config.yaml, read at the
// start of every command (root's PersistentPreRunE); CLI flags the user
// set explicitly override it (spec AMBIENT STACK "CLI flags ... take
// precedence").
type fileConfig struct {
	DataDir          string `yaml:"dataDir"`
	DerivationRounds int    `yaml:"derivationRounds"`
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &fileConfig{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

// applyConfig installs the file config's derivation-rounds override (if
// any) and returns the effective data directory, preferring an explicit
// override over the file's dataDir over the default.
func applyConfig(cfg *fileConfig, home, override string) string {
	if cfg.DerivationRounds > 0 {
		vcrypto.SetDerivationRounds(cfg.DerivationRounds)
	}
	if override != "" {
		return override
	}
	if cfg.DataDir != "" {
		return cfg.DataDir
	}
	return filepath.Join(home, ".vaultenginectl")
}
