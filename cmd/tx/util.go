package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/bedecarroll/tx/internal/txerr"
)

// parseVarBindings parses repeated KEY=VALUE flag values into a map, per
// spec.md §6's `--var K=V` CLI flag.
func parseVarBindings(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(raw))
	for _, entry := range raw {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, txerr.New(txerr.KindConfiguration, "cli.parse_var", entry, fmt.Errorf("expected KEY=VALUE"))
		}
		out[key] = value
	}
	return out, nil
}

// workingDir returns the process's current directory, or "" if it cannot be
// determined (the template renderer treats an empty cwd as unset).
func workingDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	return dir
}
