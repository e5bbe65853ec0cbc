package main

import (
	"fmt"

	"github.com/bedecarroll/tx/internal/pipeline"
	"github.com/bedecarroll/tx/internal/txerr"
)

// ResumeCmd implements `resume <id-or-uuid> [--profile P] [--pre NAME ...]
// [--post NAME ...] [--wrap W] [--var K=V ...] [--dry-run|--emit-command]
// [--emit-json] [-- args...]` (spec.md §6).
type ResumeCmd struct {
	ID      string   `arg:"" help:"Session id or uuid to resume."`
	Profile string   `help:"Profile to resolve provider/wrap/snippets from."`
	Pre     []string `help:"Additional pre snippet names, appended after the profile's." sep:"none"`
	Post    []string `help:"Additional post snippet names, appended after the profile's." sep:"none"`
	Wrap    string   `help:"Override the resolved wrapper."`
	Var     []string `help:"Template variable binding in KEY=VALUE form, repeatable." sep:"none"`
	Args    []string `arg:"" optional:"" help:"Extra provider arguments, after --."`

	PlanOutput
}

func (c *ResumeCmd) Run(app *App) error {
	transcript, err := app.Store.FetchTranscript(c.ID)
	if err != nil {
		return err
	}
	if transcript == nil {
		return txerr.New(txerr.KindConfiguration, "cli.resume", c.ID, fmt.Errorf("no session found for %q", c.ID))
	}
	sum := transcript.Summary

	if c.Profile != "" {
		profile, ok := app.Config.Profiles[c.Profile]
		if ok && profile.Provider != "" && profile.Provider != sum.Provider {
			return txerr.New(txerr.KindResumeConstraint, "cli.resume: provider mismatch", c.ID,
				fmt.Errorf("profile %q targets provider %q, session was recorded under %q", c.Profile, profile.Provider, sum.Provider))
		}
	}

	vars, err := parseVarBindings(c.Var)
	if err != nil {
		return err
	}

	req := pipeline.Request{
		Config:       app.Config,
		ProviderHint: sum.Provider,
		Profile:      c.Profile,

		AdditionalPre:  c.Pre,
		AdditionalPost: c.Post,

		Wrap:         c.Wrap,
		ProviderArgs: c.Args,

		Vars: vars,

		Session: pipeline.SessionContext{
			ID:          sum.ID,
			Label:       sum.Label,
			Path:        sum.Path,
			ResumeToken: sum.UUID,
		},
		Cwd: workingDir(),
	}

	plan, err := pipeline.Build(req)
	if err != nil {
		return err
	}

	return runOrRender(app, plan, c.PlanOutput)
}
