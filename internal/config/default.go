package config

// Default returns the built-in configuration: a single "codex" provider
// stub and sane executor/RAG defaults, matching SPEC_FULL.md §4.H.
func Default() *Config {
	return &Config{
		Defaults: Defaults{
			Provider:      "codex",
			TerminalTitle: "<{{provider}}>",
		},
		Providers: map[string]Provider{
			"codex": {
				Bin:  "codex",
				Args: []string{},
				Env:  map[string]string{},
				Stdin: &StdinMapping{
					Mode: "capture-arg",
				},
			},
		},
		Profiles: map[string]Profile{},
		Wrappers: map[string]Wrapper{},
		Pre:      map[string]Snippet{},
		Post:     map[string]Snippet{},
		RAG: RAGConfig{
			EmbedModel: "text-embedding-3-small",
			BaseURLEnv: "TX_RAG_OPENAI_BASE_URL",
			APIKeyEnv:  "OPENAI_API_KEY",
			BatchSize:  64,
		},
		Executor: ExecutorConfig{
			StdinLimitBytes: 1 << 20,
		},
	}
}
