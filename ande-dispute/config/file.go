package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	opmetrics "github.com/ande-labs/ande/ande-service/metrics"
)

// File is the layout of the optional config file. Ether amounts are decimal strings.
type File struct {
	RPC struct {
		ListenAddr string `toml:"addr" yaml:"addr"`
		ListenPort int    `toml:"port" yaml:"port"`
	} `toml:"rpc" yaml:"rpc"`
	Metrics *opmetrics.CLIConfig `toml:"metrics" yaml:"metrics"`
	Factory struct {
		BondAmount      string `toml:"bond-amount" yaml:"bond-amount"`
		MaxGameDuration uint64 `toml:"max-game-duration" yaml:"max-game-duration"`
	} `toml:"factory" yaml:"factory"`
	Game struct {
		MaxDepth        uint64   `toml:"max-depth" yaml:"max-depth"`
		PerMoveDuration uint64   `toml:"per-move-duration" yaml:"per-move-duration"`
		MaxBond         string   `toml:"max-bond" yaml:"max-bond"`
		Types           []string `toml:"types" yaml:"types"`
	} `toml:"game" yaml:"game"`
	Step struct {
		CacheSize int `toml:"cache-size" yaml:"cache-size"`
	} `toml:"step" yaml:"step"`
	Journal struct {
		Dir string `toml:"dir" yaml:"dir"`
	} `toml:"journal" yaml:"journal"`
	Ledger struct {
		Fund     []string `toml:"fund" yaml:"fund"`
		MintRate float64  `toml:"mint-rate" yaml:"mint-rate"`
	} `toml:"ledger" yaml:"ledger"`
}

// LoadFile decodes a .toml, .yaml or .yml config file. Unknown keys are rejected.
func LoadFile(fs afero.Fs, path string) (*File, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var file File
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode TOML config %q: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unknown keys in TOML config %q: %v", path, undecoded)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to decode YAML config %q: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFileFormat, ext)
	}
	return &file, nil
}
