package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/bedecarroll/tx/internal/config"
)

// ConfigCmd implements `config {list|dump|where|lint|default[--raw]|
// schema[--pretty]}` (spec.md §6).
type ConfigCmd struct {
	List    ConfigListCmd    `cmd:"" help:"List configured providers, profiles, wrappers, and snippets."`
	Dump    ConfigDumpCmd    `cmd:"" help:"Print the fully merged configuration as TOML."`
	Where   ConfigWhereCmd   `cmd:"" help:"Print the resolved config, data, and cache directories."`
	Lint    ConfigLintCmd    `cmd:"" help:"Validate the loaded configuration."`
	Default ConfigDefaultCmd `cmd:"" help:"Print the built-in default configuration."`
	Schema  ConfigSchemaCmd  `cmd:"" help:"Print the configuration's JSON schema."`
}

type ConfigListCmd struct{}

func (c *ConfigListCmd) Run(app *App) error {
	printNames("providers", keysOfProviders(app.Config.Providers))
	printNames("profiles", keysOfProfiles(app.Config.Profiles))
	printNames("wrappers", keysOfWrappers(app.Config.Wrappers))
	printNames("pre", keysOfSnippets(app.Config.Pre))
	printNames("post", keysOfSnippets(app.Config.Post))
	return nil
}

type ConfigDumpCmd struct{}

func (c *ConfigDumpCmd) Run(app *App) error {
	return toml.NewEncoder(os.Stdout).Encode(app.Config)
}

type ConfigWhereCmd struct{}

func (c *ConfigWhereCmd) Run(app *App) error {
	configDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}
	cacheDir, err := config.CacheDir()
	if err != nil {
		return err
	}
	fmt.Printf("config: %s\n", configDir)
	fmt.Printf("data:   %s\n", dataDir)
	fmt.Printf("cache:  %s\n", cacheDir)
	return nil
}

type ConfigLintCmd struct{}

func (c *ConfigLintCmd) Run(app *App) error {
	if err := app.Config.Validate(); err != nil {
		return err
	}
	fmt.Println("config is valid")
	return nil
}

type ConfigDefaultCmd struct {
	Raw bool `help:"Print TOML without a trailing summary line."`
}

func (c *ConfigDefaultCmd) Run(app *App) error {
	def := config.Default()
	if err := toml.NewEncoder(os.Stdout).Encode(def); err != nil {
		return err
	}
	if !c.Raw {
		fmt.Println("# built-in default, not the loaded configuration")
	}
	return nil
}

type ConfigSchemaCmd struct {
	Pretty bool `help:"Pretty-print the schema JSON."`
}

func (c *ConfigSchemaCmd) Run(app *App) error {
	schema := configSchema()
	enc := json.NewEncoder(os.Stdout)
	if c.Pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(schema)
}

// configSchema describes the Config struct's shape as a minimal JSON Schema
// document, written by hand since no schema-generation library is in use.
func configSchema() map[string]any {
	return map[string]any{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"title":   "tx configuration",
		"type":    "object",
		"properties": map[string]any{
			"defaults":  map[string]any{"type": "object"},
			"providers": map[string]any{"type": "object"},
			"profiles":  map[string]any{"type": "object"},
			"wrappers":  map[string]any{"type": "object"},
			"pre":       map[string]any{"type": "object"},
			"post":      map[string]any{"type": "object"},
			"rag":       map[string]any{"type": "object"},
			"executor":  map[string]any{"type": "object"},
		},
	}
}

func printNames(label string, names []string) {
	fmt.Printf("%s:\n", label)
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
}

func keysOfProviders(m map[string]config.Provider) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func keysOfProfiles(m map[string]config.Profile) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func keysOfWrappers(m map[string]config.Wrapper) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func keysOfSnippets(m map[string]config.Snippet) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
