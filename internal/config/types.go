// Package config loads and validates the layered TOML configuration that the
// pipeline builder reads providers, profiles, wrappers, and snippets from.
package config

// Config is the root configuration structure: defaults plus the
// Provider/Profile/Wrapper/Snippet catalogs the pipeline builder resolves by
// name (SPEC_FULL.md §3).
type Config struct {
	Defaults  Defaults           `toml:"defaults"`
	Providers map[string]Provider `toml:"providers"`
	Profiles  map[string]Profile  `toml:"profiles"`
	Wrappers  map[string]Wrapper  `toml:"wrappers"`
	Pre       map[string]Snippet  `toml:"pre"`
	Post      map[string]Snippet  `toml:"post"`
	RAG       RAGConfig           `toml:"rag"`
	Executor  ExecutorConfig      `toml:"executor"`
}

// ExecutorConfig configures the pipeline executor's capture-arg shim.
type ExecutorConfig struct {
	StdinLimitBytes int64 `toml:"stdin_limit_bytes"`
}

// Defaults holds the fallback provider and the terminal-title template used
// when a request doesn't name either explicitly.
type Defaults struct {
	Provider      string `toml:"provider"`
	TerminalTitle string `toml:"terminal_title"`
}

// StdinMapping describes how a provider expects its prompt delivered. Args
// are extra provider flags the mapping itself requires (e.g. a flag telling
// the provider to read its prompt from argv rather than its own stdin).
type StdinMapping struct {
	Mode string   `toml:"mode"` // "capture-arg" or "none"
	Args []string `toml:"args"`
}

// Provider is one configured CLI tool: its binary, fixed args, environment
// template, how it wants a prompt delivered, and the directories the indexer
// walks for its transcripts. SessionRoots overrides inference when set.
type Provider struct {
	Bin          string            `toml:"bin"`
	Args         []string          `toml:"args"`
	Env          map[string]string `toml:"env"`
	Stdin        *StdinMapping     `toml:"stdin"`
	SessionRoots []string          `toml:"session_roots"`
}

// AssemblerRef names a prompt-assembler profile a Profile wants applied.
type AssemblerRef struct {
	Name string   `toml:"name"`
	Args []string `toml:"args"`
}

// Profile bundles a provider choice with pre/post snippets and an optional
// wrapper and prompt-assembler invocation.
type Profile struct {
	Provider  string        `toml:"provider"`
	Pre       []string      `toml:"pre"`
	Post      []string      `toml:"post"`
	Wrap      string        `toml:"wrap"`
	Assembler *AssemblerRef `toml:"assembler"`
}

// Wrapper renders either a shell command or an argv list around the built
// pipeline. Template is always an array: a single element for shell mode (the
// whole command string, written out by the author so quoting stays in their
// control) or one element per argv entry for exec mode.
type Wrapper struct {
	Mode     string   `toml:"mode"` // "shell" or "exec"
	Template []string `toml:"template"`
}

// Snippet is a single named pre/post command.
type Snippet struct {
	Command string `toml:"command"`
}

// RAGConfig configures the embedding capability used by `rag index`/`rag search`.
type RAGConfig struct {
	EmbedModel string `toml:"embed_model"`
	BaseURLEnv string `toml:"base_url_env"`
	APIKeyEnv  string `toml:"api_key_env"`
	BatchSize  int    `toml:"batch_size"`
}

// Warning is a non-fatal issue surfaced by Load (e.g. an unknown config key),
// collected rather than failing the load.
type Warning struct {
	Source  string
	Message string
}
