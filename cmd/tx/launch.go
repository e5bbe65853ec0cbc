package main

import (
	"github.com/bedecarroll/tx/internal/pipeline"
)

// LaunchCmd implements `launch <provider> [--dry-run|--emit-command]
// [--emit-json] [--profile P] [--pre NAME ...] [--post NAME ...] [--wrap W]
// [--var K=V ...] [-- args...]` (spec.md §6): builds and runs a pipeline
// without an existing session to resume.
type LaunchCmd struct {
	Provider string   `arg:"" optional:"" help:"Provider to launch; defaults to the configured default provider."`
	Profile  string   `help:"Profile to resolve provider/wrap/snippets from."`
	Pre      []string `help:"Additional pre snippet names, appended after the profile's." sep:"none"`
	Post     []string `help:"Additional post snippet names, appended after the profile's." sep:"none"`
	Wrap     string   `help:"Override the resolved wrapper."`
	Var      []string `help:"Template variable binding in KEY=VALUE form, repeatable." sep:"none"`
	Args     []string `arg:"" optional:"" help:"Extra provider arguments, after --."`

	PlanOutput
}

func (c *LaunchCmd) Run(app *App) error {
	vars, err := parseVarBindings(c.Var)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Config:       app.Config,
		ProviderHint: c.Provider,
		Profile:      c.Profile,

		AdditionalPre:  c.Pre,
		AdditionalPost: c.Post,

		Wrap:         c.Wrap,
		ProviderArgs: c.Args,

		Vars: vars,
		Cwd:  workingDir(),
	}

	plan, err := pipeline.Build(req)
	if err != nil {
		return err
	}

	return runOrRender(app, plan, c.PlanOutput)
}
