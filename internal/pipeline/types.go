// Package pipeline implements the deterministic pipeline builder: given a
// request and a config, it resolves profile/provider/wrapper/snippets into a
// runnable plan (spec.md §4.D). build_pipeline is a pure function: its only
// I/O is reading process environment variables for ${env:NAME} expansion and,
// in capture mode, calling os.Executable for the self-invocation stage.
package pipeline

import "github.com/bedecarroll/tx/internal/config"

// AssemblerInvocation names a prompt-assembler profile and the args to pass
// it, carried through from a Profile or set directly on a Request.
type AssemblerInvocation struct {
	Name string
	Args []string
}

// SessionContext is the subset of session identity the template engine can
// substitute into wrapper/title templates.
type SessionContext struct {
	ID          string
	Label       string
	Path        string
	ResumeToken string
}

// Request is the pure input to Build (spec.md §3 PipelineRequest).
type Request struct {
	Config *config.Config

	ProviderHint string
	Profile      string

	AdditionalPre  []string
	InlinePre      []string
	AdditionalPost []string

	Wrap         string
	ProviderArgs []string

	CapturePrompt bool
	Assembler     *AssemblerInvocation

	Vars map[string]string

	Session SessionContext
	Cwd     string
}

// InvocationKind distinguishes how the executor should spawn the plan.
type InvocationKind int

const (
	// InvocationShell spawns `$SHELL -c <ShellCommand>`.
	InvocationShell InvocationKind = iota
	// InvocationExec runs Argv[0] directly with Argv[1:] as arguments.
	InvocationExec
)

// Invocation is the tagged-sum-type the executor switches on.
type Invocation struct {
	Kind         InvocationKind
	ShellCommand string
	Argv         []string
}

// Plan is the deterministic output of Build (spec.md §3 PipelinePlan).
type Plan struct {
	Pipeline string // the rendered pipeline string, what a shell would run
	Display  string // friendly display form, no wrapper envelope noise

	Env map[string]string

	Invocation Invocation

	Provider string

	TerminalTitle string

	EffectivePre     []string
	EffectivePost    []string
	EffectiveWrapper string

	NeedsStdinPrompt      bool
	UsesCaptureArg        bool
	CaptureHasPreCommands bool
	StdinPromptLabel      string

	Cwd string

	Assembler *AssemblerInvocation
}
