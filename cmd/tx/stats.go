package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// StatsCmd implements `stats codex` (spec.md §6): indexed usage statistics
// for one provider.
type StatsCmd struct {
	Provider string `arg:"" optional:"" default:"codex" help:"Provider to report statistics for."`
}

func (c *StatsCmd) Run(app *App) error {
	stats, err := app.Store.ProviderStats(c.Provider)
	if err != nil {
		return err
	}

	fmt.Printf("provider:        %s\n", stats.Provider)
	fmt.Printf("sessions:        %s (%s actionable)\n",
		humanize.Comma(int64(stats.SessionCount)), humanize.Comma(int64(stats.ActionableCount)))
	if !stats.LastActive.IsZero() {
		fmt.Printf("last active:     %s (%s)\n",
			stats.LastActive.Format("2006-01-02T15:04:05Z07:00"), humanize.Time(stats.LastActive))
	}
	fmt.Printf("input tokens:    %s (%s cached)\n",
		humanize.Comma(stats.InputTokens), humanize.Comma(stats.CachedInputTokens))
	fmt.Printf("output tokens:   %s (%s reasoning)\n",
		humanize.Comma(stats.OutputTokens), humanize.Comma(stats.ReasoningOutputTokens))
	fmt.Printf("total tokens:    %s\n", humanize.Comma(stats.TotalTokens))
	return nil
}
