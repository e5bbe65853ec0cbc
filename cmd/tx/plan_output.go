package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bedecarroll/tx/internal/assembler"
	"github.com/bedecarroll/tx/internal/executor"
	"github.com/bedecarroll/tx/internal/pipeline"
	"github.com/bedecarroll/tx/internal/txerr"
)

// PlanOutput controls how a built plan is reported instead of executed.
type PlanOutput struct {
	DryRun   bool `help:"Print the pipeline that would run, without running it."`
	EmitCmd  bool `name:"emit-command" help:"Print the exact command line that would run, without running it."`
	EmitJSON bool `name:"emit-json" help:"Print the plan as JSON, without running it."`
}

func (o PlanOutput) wantsOutputOnly() bool {
	return o.DryRun || o.EmitCmd || o.EmitJSON
}

// planJSON is the emit-json rendering of a plan: a stable, explicit
// projection rather than the internal pipeline.Plan struct, so its shape
// doesn't shift with internal refactors.
type planJSON struct {
	Pipeline              string            `json:"pipeline"`
	Display               string            `json:"display"`
	Provider              string            `json:"provider"`
	TerminalTitle         string            `json:"terminal_title"`
	Env                   map[string]string `json:"env"`
	EffectivePre          []string          `json:"effective_pre"`
	EffectivePost         []string          `json:"effective_post"`
	EffectiveWrapper      string            `json:"effective_wrapper,omitempty"`
	NeedsStdinPrompt      bool              `json:"needs_stdin_prompt"`
	UsesCaptureArg        bool              `json:"uses_capture_arg"`
	CaptureHasPreCommands bool              `json:"capture_has_pre_commands"`
	Cwd                   string            `json:"cwd"`
}

func renderPlan(plan *pipeline.Plan, out PlanOutput) error {
	switch {
	case out.EmitJSON:
		return json.NewEncoder(os.Stdout).Encode(planJSON{
			Pipeline:              plan.Pipeline,
			Display:               plan.Display,
			Provider:              plan.Provider,
			TerminalTitle:         plan.TerminalTitle,
			Env:                   plan.Env,
			EffectivePre:          plan.EffectivePre,
			EffectivePost:         plan.EffectivePost,
			EffectiveWrapper:      plan.EffectiveWrapper,
			NeedsStdinPrompt:      plan.NeedsStdinPrompt,
			UsesCaptureArg:        plan.UsesCaptureArg,
			CaptureHasPreCommands: plan.CaptureHasPreCommands,
			Cwd:                   plan.Cwd,
		})
	case out.EmitCmd:
		switch plan.Invocation.Kind {
		case pipeline.InvocationShell:
			fmt.Println(plan.Invocation.ShellCommand)
		case pipeline.InvocationExec:
			fmt.Println(shellJoin(plan.Invocation.Argv))
		}
		return nil
	default:
		fmt.Println(plan.Display)
		return nil
	}
}

func shellJoin(argv []string) string {
	out := ""
	for i, a := range argv {
		if i > 0 {
			out += " "
		}
		out += "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
	}
	return out
}

// runOrRender either prints the plan per out's chosen mode, or executes it,
// collecting a stdin prompt via the app's prompt-assembler when the plan
// needs one and names an assembler invocation.
func runOrRender(app *App, plan *pipeline.Plan, out PlanOutput) error {
	if out.wantsOutputOnly() {
		return renderPlan(plan, out)
	}
	return executor.Execute(plan, promptSourceFor(app, plan))
}

// promptSourceFor builds the PromptSource the executor consults when a plan
// needs a captured prompt: the prompt-assembler's rendered content when the
// plan names one, otherwise stdin read to EOF.
func promptSourceFor(app *App, plan *pipeline.Plan) executor.PromptSource {
	return func() (string, error) {
		if plan.Assembler != nil {
			a := assembler.New("tx")
			result, err := a.Show(plan.Assembler.Name, plan.Assembler.Args)
			if err != nil {
				return "", err
			}
			return result.Content, nil
		}

		reader := bufio.NewReader(os.Stdin)
		data, err := io.ReadAll(reader)
		if err != nil {
			return "", txerr.New(txerr.KindExecutor, "cli.collect_prompt", "", err)
		}
		return string(data), nil
	}
}
