package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/bedecarroll/tx/internal/store"
	"github.com/bedecarroll/tx/internal/txerr"
)

// SearchCmd implements `search [--full-text] [--provider P] [--role
// {user|assistant}] [--since DURATION] [--limit N] [TERM]` (spec.md §6).
type SearchCmd struct {
	Term       string        `arg:"" optional:"" help:"Search term; omitted lists recent sessions."`
	FullText   bool          `name:"full-text" help:"Search message bodies via FTS instead of first_prompt."`
	Provider   string        `help:"Restrict results to one provider."`
	Role       string        `enum:"," enum:",user,assistant" help:"Restrict full-text hits to a role."`
	Since      time.Duration `help:"Only include sessions active within this duration."`
	Limit      int           `default:"20" help:"Maximum number of results."`
	Actionable bool          `help:"Only include actionable sessions."`
}

func (c *SearchCmd) Run(app *App) error {
	if c.Role != "" && c.Role != "user" && c.Role != "assistant" {
		return txerr.New(txerr.KindConfiguration, "cli.search", c.Role, fmt.Errorf("role must be 'user' or 'assistant'"))
	}

	var sinceEpoch int64
	if c.Since > 0 {
		sinceEpoch = time.Now().Add(-c.Since).Unix()
	}

	if c.Term == "" {
		sessions, err := app.Store.ListSessions(c.Provider, c.Actionable, sinceEpoch, c.Limit)
		if err != nil {
			return err
		}
		printSummaries(sessions)
		return nil
	}

	if c.FullText {
		hits, err := app.Store.SearchFullText(c.Term, c.Provider, c.Actionable)
		if err != nil {
			return err
		}
		hits = filterByRole(hits, c.Role)
		hits = limitHits(hits, c.Limit)
		printHits(hits)
		return nil
	}

	hits, err := app.Store.SearchFirstPrompt(c.Term, c.Provider, c.Actionable)
	if err != nil {
		return err
	}
	hits = limitHits(hits, c.Limit)
	printHits(hits)
	return nil
}

func filterByRole(hits []store.SearchHit, role string) []store.SearchHit {
	if role == "" {
		return hits
	}
	out := hits[:0]
	for _, h := range hits {
		if strings.EqualFold(h.Role, role) {
			out = append(out, h)
		}
	}
	return out
}

func limitHits(hits []store.SearchHit, limit int) []store.SearchHit {
	if limit <= 0 || len(hits) <= limit {
		return hits
	}
	return hits[:limit]
}

func printSummaries(sessions []store.Summary) {
	for _, s := range sessions {
		fmt.Printf("%s\t%s\t%s\t%s\n", s.ID, s.Provider, s.LastActive.Format(time.RFC3339), s.FirstPrompt)
	}
}

func printHits(hits []store.SearchHit) {
	for _, h := range hits {
		fmt.Printf("%s\t%s\t%s\n", h.SessionID, h.LastActive.Format(time.RFC3339), h.Snippet)
	}
}
