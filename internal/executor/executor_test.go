package executor

import (
	"testing"

	"github.com/bedecarroll/tx/internal/pipeline"
)

func TestResolveShellFallsBackToBinSh(t *testing.T) {
	t.Setenv("SHELL", "")
	if got := resolveShell(); got != "/bin/sh" {
		t.Fatalf("resolveShell() = %q, want /bin/sh", got)
	}
}

func TestResolveShellHonorsEnv(t *testing.T) {
	t.Setenv("SHELL", "/bin/zsh")
	if got := resolveShell(); got != "/bin/zsh" {
		t.Fatalf("resolveShell() = %q, want /bin/zsh", got)
	}
}

func TestExecuteShellInvocationExitsCleanly(t *testing.T) {
	plan := &pipeline.Plan{
		Invocation: pipeline.Invocation{Kind: pipeline.InvocationShell, ShellCommand: "true"},
	}
	if err := Execute(plan, nil); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
}

func TestExecuteShellInvocationPropagatesExitStatus(t *testing.T) {
	plan := &pipeline.Plan{
		Invocation: pipeline.Invocation{Kind: pipeline.InvocationShell, ShellCommand: "exit 3"},
	}
	err := Execute(plan, nil)
	if err == nil {
		t.Fatalf("Execute() expected an error for a non-zero exit")
	}
}

func TestExecuteExecInvocationEmptyArgvFails(t *testing.T) {
	plan := &pipeline.Plan{
		Invocation: pipeline.Invocation{Kind: pipeline.InvocationExec, Argv: nil},
	}
	if err := Execute(plan, nil); err == nil {
		t.Fatalf("Execute() expected an error for empty argv")
	}
}

func TestExecutePassesStdinPromptViaEnv(t *testing.T) {
	plan := &pipeline.Plan{
		NeedsStdinPrompt: true,
		Invocation: pipeline.Invocation{
			Kind:         pipeline.InvocationShell,
			ShellCommand: `test "$` + CaptureStdinEnvVar + `" = "a prompt"`,
		},
	}
	err := Execute(plan, func() (string, error) { return "a prompt", nil })
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
}
