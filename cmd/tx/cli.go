package main

// CLI is the root command tree (spec.md §6 CLI surface).
type CLI struct {
	ConfigDir string `help:"Override the configuration directory." type:"path"`
	DataDir   string `help:"Override the data directory." type:"path"`

	Search SearchCmd `cmd:"" help:"Search indexed sessions by first prompt or full text."`
	Resume ResumeCmd `cmd:"" help:"Resume an indexed session, building and running its pipeline."`
	Launch LaunchCmd `cmd:"" help:"Launch a provider without resuming an existing session."`
	Export ExportCmd `cmd:"" help:"Export a session's transcript as JSON."`
	Config ConfigCmd `cmd:"" help:"Inspect or validate the loaded configuration."`
	DB     DBCmd     `cmd:"" help:"Manage the local database."`
	Stats  StatsCmd  `cmd:"" help:"Show indexed usage statistics for a provider."`
	Doctor DoctorCmd `cmd:"" help:"Diagnose the local environment."`
	RAG    RAGCmd    `cmd:"" help:"Manage the semantic search index."`

	Internal InternalCmd `cmd:"" hidden:"" help:"Internal plumbing subcommands."`
}
