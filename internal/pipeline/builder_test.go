package pipeline

import (
	"os"
	"testing"

	"github.com/bedecarroll/tx/internal/config"
)

func baseConfig() *config.Config {
	cfg := config.Default()
	cfg.Providers["codex"] = config.Provider{
		Bin:  "codex",
		Args: []string{"--flag"},
		Env:  map[string]string{},
		Stdin: &config.StdinMapping{
			Mode: "none",
		},
	}
	cfg.Pre["greet"] = config.Snippet{Command: "echo hi"}
	cfg.Post["log"] = config.Snippet{Command: "tee /tmp/log"}
	return cfg
}

func TestBuildIsDeterministic(t *testing.T) {
	cfg := baseConfig()
	req := Request{Config: cfg, ProviderHint: "codex", AdditionalPre: []string{"greet"}}

	p1, err := Build(req)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	p2, err := Build(req)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if p1.Pipeline != p2.Pipeline || p1.Display != p2.Display {
		t.Fatalf("Build() not deterministic: %q vs %q", p1.Pipeline, p2.Pipeline)
	}
	if p1.Pipeline != "echo hi | 'codex' '--flag'" {
		t.Fatalf("Pipeline = %q", p1.Pipeline)
	}
}

func TestBuildUnknownProviderFails(t *testing.T) {
	cfg := baseConfig()
	_, err := Build(Request{Config: cfg, ProviderHint: "nonexistent"})
	if err == nil {
		t.Fatalf("Build() expected error for unknown provider")
	}
}

func TestBuildNoProviderSelectedFails(t *testing.T) {
	cfg := baseConfig()
	cfg.Defaults.Provider = ""
	_, err := Build(Request{Config: cfg})
	if err == nil {
		t.Fatalf("Build() expected error when no provider can be selected")
	}
}

func TestBuildUnknownSnippetFails(t *testing.T) {
	cfg := baseConfig()
	_, err := Build(Request{Config: cfg, ProviderHint: "codex", AdditionalPre: []string{"missing"}})
	if err == nil {
		t.Fatalf("Build() expected error for unknown pre snippet")
	}
}

func TestBuildCaptureModeShimsSelf(t *testing.T) {
	cfg := baseConfig()
	p := cfg.Providers["codex"]
	p.Args = nil
	p.Stdin = &config.StdinMapping{Mode: "capture-arg"}
	cfg.Providers["codex"] = p

	plan, err := Build(Request{Config: cfg, ProviderHint: "codex", ProviderArgs: []string{"{prompt}"}})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !plan.UsesCaptureArg {
		t.Fatalf("UsesCaptureArg = false, want true")
	}
	if plan.NeedsStdinPrompt {
		t.Fatalf("NeedsStdinPrompt = true, want false (capture mode captures it)")
	}
	want := "'" + mustExecutable(t) + "' internal capture-arg --provider 'codex' --bin 'codex' --arg '{prompt}'"
	if plan.Pipeline != want {
		t.Fatalf("Pipeline = %q, want %q", plan.Pipeline, want)
	}
}

func mustExecutable(t *testing.T) string {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("os.Executable() error: %v", err)
	}
	return exe
}

func TestBuildNeedsStdinPromptWhenProviderWantsPromptWithoutCapture(t *testing.T) {
	cfg := baseConfig()
	p := cfg.Providers["codex"]
	p.Stdin = &config.StdinMapping{Mode: "tty"}
	cfg.Providers["codex"] = p

	plan, err := Build(Request{Config: cfg, ProviderHint: "codex"})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if !plan.NeedsStdinPrompt {
		t.Fatalf("NeedsStdinPrompt = false, want true")
	}
}

func TestBuildEnvExpansionFailsOnMissingVar(t *testing.T) {
	cfg := baseConfig()
	p := cfg.Providers["codex"]
	p.Env = map[string]string{"API_KEY": "${env:TX_TEST_MISSING_VAR_XYZ}"}
	cfg.Providers["codex"] = p

	_, err := Build(Request{Config: cfg, ProviderHint: "codex"})
	if err == nil {
		t.Fatalf("Build() expected error for unset env var")
	}
}

func TestBuildEnvExpansionSucceeds(t *testing.T) {
	t.Setenv("TX_TEST_PRESENT_VAR", "secret")
	cfg := baseConfig()
	p := cfg.Providers["codex"]
	p.Env = map[string]string{"API_KEY": "${env:TX_TEST_PRESENT_VAR}"}
	cfg.Providers["codex"] = p

	plan, err := Build(Request{Config: cfg, ProviderHint: "codex"})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if plan.Env["API_KEY"] != "secret" {
		t.Fatalf("Env[API_KEY] = %q, want %q", plan.Env["API_KEY"], "secret")
	}
}

func TestBuildShellWrapperRendersAndQuotesCMD(t *testing.T) {
	cfg := baseConfig()
	cfg.Wrappers["tmux"] = config.Wrapper{
		Mode:     "shell",
		Template: []string{"tmux new-session -A -s tx {{CMD}}"},
	}

	plan, err := Build(Request{Config: cfg, ProviderHint: "codex", Wrap: "tmux"})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if plan.EffectiveWrapper != "tmux" {
		t.Fatalf("EffectiveWrapper = %q, want tmux", plan.EffectiveWrapper)
	}
	if plan.Invocation.Kind != InvocationShell {
		t.Fatalf("Invocation.Kind = %v, want InvocationShell", plan.Invocation.Kind)
	}
	wantSuffix := shellQuote(plan.Pipeline)
	if got := plan.Invocation.ShellCommand; got == "" || !hasSuffix(got, wantSuffix) {
		t.Fatalf("ShellCommand = %q, want suffix %q", got, wantSuffix)
	}
	// Friendly display never includes the wrapper envelope.
	if plan.Display != plan.Pipeline {
		t.Fatalf("Display = %q, want equal to Pipeline %q", plan.Display, plan.Pipeline)
	}
}

func TestBuildExecWrapperProducesArgv(t *testing.T) {
	cfg := baseConfig()
	cfg.Wrappers["direct"] = config.Wrapper{
		Mode:     "exec",
		Template: []string{"/bin/sh", "-c", "{{CMD}}"},
	}

	plan, err := Build(Request{Config: cfg, ProviderHint: "codex", Wrap: "direct"})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if plan.Invocation.Kind != InvocationExec {
		t.Fatalf("Invocation.Kind = %v, want InvocationExec", plan.Invocation.Kind)
	}
	if len(plan.Invocation.Argv) != 3 || plan.Invocation.Argv[2] != plan.Pipeline {
		t.Fatalf("Argv = %#v, want last entry to equal Pipeline %q", plan.Invocation.Argv, plan.Pipeline)
	}
}

func TestBuildUnknownWrapperFails(t *testing.T) {
	cfg := baseConfig()
	_, err := Build(Request{Config: cfg, ProviderHint: "codex", Wrap: "missing"})
	if err == nil {
		t.Fatalf("Build() expected error for unknown wrapper")
	}
}

func TestBuildUnboundTemplateVarFails(t *testing.T) {
	cfg := baseConfig()
	cfg.Wrappers["w"] = config.Wrapper{Mode: "shell", Template: []string{"{{var:UNSET}} {{CMD}}"}}
	_, err := Build(Request{Config: cfg, ProviderHint: "codex", Wrap: "w"})
	if err == nil {
		t.Fatalf("Build() expected error for unbound template var")
	}
}

func hasSuffix(s, suffix string) bool {
	return len(s) >= len(suffix) && s[len(s)-len(suffix):] == suffix
}
