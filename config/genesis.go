package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// GenesisManifest is the YAML-encoded genesis document a node reads once at
// chain start: chain identity, the witness signing-key file path, and the
// validated chain-parameter Global seeded into native/params.Store when the
// object store is built from scratch (spec §4.0 "genesis manifest").
type GenesisManifest struct {
	ChainID               string `yaml:"chain_id"`
	WitnessSigningKeyPath string `yaml:"witness_signing_key_path"`
	Params                Global `yaml:"params"`
}

// LoadGenesisManifest reads path as YAML and validates every parameter
// subsystem before returning, so a malformed genesis file is rejected at
// load time rather than surfacing as a confusing failure mid-chain.
func LoadGenesisManifest(path string) (*GenesisManifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read genesis manifest: %w", err)
	}
	var m GenesisManifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("config: decode genesis manifest: %w", err)
	}
	if m.ChainID == "" {
		return nil, fmt.Errorf("config: genesis manifest missing chain_id")
	}
	if m.WitnessSigningKeyPath == "" {
		return nil, fmt.Errorf("config: genesis manifest missing witness_signing_key_path")
	}
	if err := m.Params.Validate(); err != nil {
		return nil, fmt.Errorf("config: genesis manifest: %w", err)
	}
	return &m, nil
}
