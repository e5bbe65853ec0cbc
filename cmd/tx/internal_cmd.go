package main

import (
	"fmt"

	"github.com/bedecarroll/tx/internal/assembler"
	"github.com/bedecarroll/tx/internal/executor"
)

// InternalCmd implements the hidden `internal {capture-arg|prompt-assembler}`
// subcommands (spec.md §6): plumbing the pipeline builder and executor
// self-invoke rather than a human typing directly.
type InternalCmd struct {
	CaptureArg     InternalCaptureArgCmd     `cmd:"" help:"Stdin-capture shim re-invoked by a capture-mode pipeline."`
	PromptAssembler InternalPromptAssemblerCmd `cmd:"" help:"Inspect the prompt-assembler helper's catalog."`
}

// InternalCaptureArgCmd's flags mirror exactly what pipeline.buildCaptureStage
// composes: --provider, --bin, repeatable --pre, repeatable --arg.
type InternalCaptureArgCmd struct {
	Provider string   `required:"" help:"Provider name, carried through for error context."`
	Bin      string   `required:"" help:"Provider binary to exec once the prompt is spliced in."`
	Pre      []string `help:"Pre commands to pipe the captured payload through, in order." sep:"none"`
	Arg      []string `name:"arg" help:"Provider argument; {prompt} is replaced with the captured prompt." sep:"none"`
}

func (c *InternalCaptureArgCmd) Run(app *App) error {
	return executor.RunCaptureArg(executor.CaptureArgs{
		Provider:   c.Provider,
		Bin:        c.Bin,
		Pre:        c.Pre,
		Args:       c.Arg,
		StdinLimit: app.Config.Executor.StdinLimitBytes,
	})
}

type InternalPromptAssemblerCmd struct {
	Refresh RefreshPromptAssemblerCmd `cmd:"" help:"Force-refresh and print the prompt-assembler's profile catalog."`
	Show    ShowPromptAssemblerCmd    `cmd:"" help:"Render one named prompt-assembler profile."`
}

type RefreshPromptAssemblerCmd struct {
	Namespace string `default:"tx" help:"Namespace prefix for profile keys."`
}

func (c *RefreshPromptAssemblerCmd) Run(app *App) error {
	a := assembler.New(c.Namespace)
	status := a.Refresh(true)
	switch status.Kind {
	case assembler.StatusUnavailable:
		return fmt.Errorf("prompt-assembler unavailable: %s", status.Message)
	case assembler.StatusDisabled:
		fmt.Println("prompt-assembler: disabled")
	default:
		fmt.Printf("prompt-assembler: %d profiles\n", len(status.Profiles))
		for _, p := range status.Profiles {
			fmt.Printf("  %s\t%s\n", p.Key, p.Description)
		}
	}
	return nil
}

type ShowPromptAssemblerCmd struct {
	Namespace string   `default:"tx" help:"Namespace prefix for profile keys."`
	Name      string   `arg:"" help:"Profile name to render."`
	Args      []string `arg:"" optional:"" help:"Extra arguments passed to the profile."`
}

func (c *ShowPromptAssemblerCmd) Run(app *App) error {
	a := assembler.New(c.Namespace)
	result, err := a.Show(c.Name, c.Args)
	if err != nil {
		return err
	}
	fmt.Println(result.Content)
	return nil
}
