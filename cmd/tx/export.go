package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bedecarroll/tx/internal/txerr"
)

// ExportCmd implements `export <id>` (spec.md §6): dumps a session's
// transcript as JSON.
type ExportCmd struct {
	ID string `arg:"" help:"Session id or uuid to export."`
}

type exportedMessage struct {
	Index     int    `json:"index"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	IsFirst   bool   `json:"is_first"`
}

type exportedTranscript struct {
	ID          string            `json:"id"`
	UUID        string            `json:"uuid,omitempty"`
	Provider    string            `json:"provider"`
	Wrapper     string            `json:"wrapper,omitempty"`
	Model       string            `json:"model,omitempty"`
	Label       string            `json:"label,omitempty"`
	Path        string            `json:"path"`
	FirstPrompt string            `json:"first_prompt"`
	Actionable  bool              `json:"actionable"`
	Messages    []exportedMessage `json:"messages"`
}

func (c *ExportCmd) Run(app *App) error {
	transcript, err := app.Store.FetchTranscript(c.ID)
	if err != nil {
		return err
	}
	if transcript == nil {
		return txerr.New(txerr.KindConfiguration, "cli.export", c.ID, fmt.Errorf("no session found for %q", c.ID))
	}

	out := exportedTranscript{
		ID:          transcript.Summary.ID,
		UUID:        transcript.Summary.UUID,
		Provider:    transcript.Summary.Provider,
		Wrapper:     transcript.Summary.Wrapper,
		Model:       transcript.Summary.Model,
		Label:       transcript.Summary.Label,
		Path:        transcript.Summary.Path,
		FirstPrompt: transcript.Summary.FirstPrompt,
		Actionable:  transcript.Summary.Actionable,
	}
	for _, m := range transcript.Messages {
		em := exportedMessage{
			Index:   m.Index,
			Role:    m.Role,
			Content: m.Content,
			Source:  m.Source,
			IsFirst: m.IsFirst,
		}
		if !m.Timestamp.IsZero() {
			em.Timestamp = m.Timestamp.Format("2006-01-02T15:04:05Z07:00")
		}
		out.Messages = append(out.Messages, em)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
