package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/rexliu/flake/pkg/node"
)

// FileName is the config file inside a profile directory.
const FileName = "config.toml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLAKE_"

// Node source kinds.
const (
	SourceHardware  = "hardware"
	SourceInterface = "interface"
	SourceFixed     = "fixed"
)

// NodeConfig selects where the node id comes from.
type NodeConfig struct {
	Source    string `toml:"source" env:"SOURCE"`
	Interface string `toml:"interface,omitempty" env:"INTERFACE"`
	Fixed     uint64 `toml:"fixed,omitempty" env:"FIXED"`
}

// StorageConfig locates the SQLite ledger.
type StorageConfig struct {
	DBPath string `toml:"dbPath" env:"DB_PATH"`
}

// LoggingConfig defines basic logging knobs.
type LoggingConfig struct {
	Level    string `toml:"level" env:"LEVEL"`
	Format   string `toml:"format,omitempty" env:"FORMAT"`
	FilePath string `toml:"filePath,omitempty" env:"FILE"`
}

// ProfileConfig aggregates generator configuration for a profile.
type ProfileConfig struct {
	ProfileName string        `toml:"profileName" env:"PROFILE"`
	Node        NodeConfig    `toml:"node" envPrefix:"NODE_"`
	Storage     StorageConfig `toml:"storage"`
	Logging     LoggingConfig `toml:"logging" envPrefix:"LOG_"`
}

// DefaultProfile returns a profile that reads the node id from hardware.
func DefaultProfile(name string) *ProfileConfig {
	return &ProfileConfig{
		ProfileName: name,
		Node:        NodeConfig{Source: SourceHardware},
		Storage:     StorageConfig{DBPath: "ids.db"},
		Logging:     LoggingConfig{Level: "info"},
	}
}

// Load reads config.toml from the provided path and applies FLAKE_*
// environment overrides. Keys the profile does not define are rejected.
func Load(path string) (*ProfileConfig, error) {
	var cfg ProfileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config: unknown keys in %s: %v", path, undecoded)
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadProfile reads the config file inside dir.
func LoadProfile(dir string) (*ProfileConfig, error) {
	return Load(filepath.Join(dir, FileName))
}

// Save writes cfg as TOML to path.
func Save(path string, cfg *ProfileConfig) error {
	if err := cfg.validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

// ResolvePath makes p absolute relative to the profile directory.
func ResolvePath(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}

// NodeSource builds the configured node id source. The source is memoised.
func (cfg *ProfileConfig) NodeSource(logger node.Logger) (node.Source, error) {
	var opts []node.Option
	if logger != nil {
		opts = append(opts, node.WithLogger(logger))
	}
	switch cfg.Node.Source {
	case "", SourceHardware:
		return node.Once(node.Hardware(opts...)), nil
	case SourceInterface:
		return node.Once(node.NamedHardware(cfg.Node.Interface, opts...)), nil
	case SourceFixed:
		return node.Once(node.Fixed(cfg.Node.Fixed)), nil
	default:
		return nil, fmt.Errorf("unknown node.source %q", cfg.Node.Source)
	}
}

func (cfg *ProfileConfig) validate() error {
	if cfg.ProfileName == "" {
		return fmt.Errorf("profileName required")
	}
	switch cfg.Node.Source {
	case "":
		cfg.Node.Source = SourceHardware
	case SourceHardware, SourceFixed:
	case SourceInterface:
		if cfg.Node.Interface == "" {
			return fmt.Errorf("node.interface required for source %q", SourceInterface)
		}
	default:
		return fmt.Errorf("unknown node.source %q", cfg.Node.Source)
	}
	if cfg.Node.Fixed > node.Max {
		return fmt.Errorf("node.fixed %d exceeds 48 bits", cfg.Node.Fixed)
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = "ids.db"
	}
	return nil
}
