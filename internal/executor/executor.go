package executor

import (
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/bedecarroll/tx/internal/pipeline"
	"github.com/bedecarroll/tx/internal/txerr"
)

// Execute runs plan to completion, single-threaded: it spawns exactly one
// child process tree and waits for it. prompt is consulted only when
// plan.NeedsStdinPrompt is set.
func Execute(plan *pipeline.Plan, prompt PromptSource) error {
	cmd, err := buildCommand(plan)
	if err != nil {
		return err
	}

	if plan.NeedsStdinPrompt {
		text, err := prompt()
		if err != nil {
			return txerr.New(txerr.KindExecutor, "executor.execute: collect prompt", "", err)
		}
		cmd.Env = append(cmd.Env, CaptureStdinEnvVar+"="+text)
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return exitError(err)
	}
	return nil
}

func buildCommand(plan *pipeline.Plan) (*exec.Cmd, error) {
	var cmd *exec.Cmd
	switch plan.Invocation.Kind {
	case pipeline.InvocationShell:
		cmd = exec.Command(resolveShell(), "-c", plan.Invocation.ShellCommand)
	case pipeline.InvocationExec:
		if len(plan.Invocation.Argv) == 0 {
			return nil, txerr.New(txerr.KindExecutor, "executor.execute", "", fmt.Errorf("empty argv"))
		}
		cmd = exec.Command(plan.Invocation.Argv[0], plan.Invocation.Argv[1:]...)
	default:
		return nil, txerr.New(txerr.KindExecutor, "executor.execute", "", fmt.Errorf("unknown invocation kind %d", plan.Invocation.Kind))
	}

	cmd.Dir = plan.Cwd
	cmd.Env = os.Environ()
	for k, v := range plan.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	return cmd, nil
}

// resolveShell returns $SHELL, falling back to /bin/sh (spec.md §4.E).
func resolveShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}

func exitError(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return txerr.New(txerr.KindExecutor, "executor.execute", "",
			fmt.Errorf("command exited with status %d", exitErr.ExitCode()))
	}
	return txerr.New(txerr.KindExecutor, "executor.execute", "", err)
}
