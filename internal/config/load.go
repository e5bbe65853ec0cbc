package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/bedecarroll/tx/internal/txerr"
)

// Load reads config.toml, then each conf.d/*.toml file in lexical order
// (os.ReadDir already returns directory entries sorted by name), layering
// each decode on top of the previous: BurntSushi/toml only touches keys
// present in a given document, so later files override earlier scalars and
// add or replace individual map entries without disturbing the rest —
// exactly the shallow "later wins" merge SPEC_FULL.md §4.H describes.
func Load(configDir string) (*Config, []Warning, error) {
	cfg := Default()
	var warnings []Warning

	mainPath := filepath.Join(configDir, "config.toml")
	if err := decodeLayer(cfg, mainPath, &warnings); err != nil && !os.IsNotExist(err) {
		return nil, nil, txerr.New(txerr.KindConfiguration, "config.load", mainPath, err)
	}

	overlayDir := filepath.Join(configDir, "conf.d")
	entries, err := os.ReadDir(overlayDir)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, nil, txerr.New(txerr.KindConfiguration, "config.load: conf.d", overlayDir, err)
		}
	} else {
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".toml") {
				continue
			}
			path := filepath.Join(overlayDir, entry.Name())
			if err := decodeLayer(cfg, path, &warnings); err != nil {
				return nil, nil, txerr.New(txerr.KindConfiguration, "config.load: conf.d entry", path, err)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, warnings, txerr.New(txerr.KindConfiguration, "config.load: validate", configDir, err)
	}
	return cfg, warnings, nil
}

func decodeLayer(cfg *Config, path string, warnings *[]Warning) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return txerr.New(txerr.KindParse, "config.decode", path, err)
	}
	for _, key := range md.Undecoded() {
		*warnings = append(*warnings, Warning{Source: path, Message: "unknown key " + key.String()})
	}
	return nil
}
