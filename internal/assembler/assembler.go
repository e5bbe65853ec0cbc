package assembler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/bedecarroll/tx/internal/txerr"
)

const (
	defaultHelperName = "pa"
	defaultCacheTTL   = 30 * time.Second
)

// Assembler owns the cached view of an external prompt-assembler helper. A
// zero value is not usable; construct with New.
type Assembler struct {
	helper    string
	namespace string
	cacheTTL  time.Duration

	mu        sync.Mutex
	fetchedAt time.Time
	profiles  []VirtualProfile
	hasCache  bool
}

// Option customizes an Assembler at construction time.
type Option func(*Assembler)

// WithHelper overrides the helper binary name (default "pa"); used by tests
// to point at a fake helper without touching PATH.
func WithHelper(name string) Option {
	return func(a *Assembler) { a.helper = name }
}

// WithCacheTTL overrides the default 30s cache lifetime.
func WithCacheTTL(ttl time.Duration) Option {
	return func(a *Assembler) { a.cacheTTL = ttl }
}

// New constructs an Assembler for namespace (used to build each profile's
// "namespace/name" key), disabled unless Refresh is called.
func New(namespace string, opts ...Option) *Assembler {
	a := &Assembler{
		helper:    defaultHelperName,
		namespace: namespace,
		cacheTTL:  defaultCacheTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Refresh returns the current PromptStatus, re-fetching the profile catalog
// when force is set or the cache has expired; never returns an error — a
// failing helper surfaces as StatusUnavailable instead (spec.md §4.F).
func (a *Assembler) Refresh(force bool) PromptStatus {
	a.mu.Lock()
	defer a.mu.Unlock()

	if force {
		a.hasCache = false
	}

	if a.hasCache && time.Since(a.fetchedAt) <= a.cacheTTL {
		return PromptStatus{Kind: StatusReady, Profiles: a.profiles, Cached: true}
	}

	profiles, err := a.fetchProfiles()
	if err != nil {
		return PromptStatus{Kind: StatusUnavailable, Message: firstLine(err.Error())}
	}

	a.profiles = profiles
	a.fetchedAt = time.Now()
	a.hasCache = true
	return PromptStatus{Kind: StatusReady, Profiles: profiles, Cached: false}
}

// Show invokes `show --json <name> [args...]` and returns its rendered
// prompt content.
func (a *Assembler) Show(name string, args []string) (ShowResult, error) {
	cmdArgs := append([]string{"show", "--json", name}, args...)
	stdout, err := a.run(cmdArgs...)
	if err != nil {
		return ShowResult{}, txerr.New(txerr.KindAssembler, "assembler.show", name, err)
	}

	var payload struct {
		Profile struct {
			Content string `json:"content"`
		} `json:"profile"`
	}
	if err := json.Unmarshal(stdout, &payload); err != nil {
		return ShowResult{}, txerr.New(txerr.KindAssembler, "assembler.show: parse", name,
			fmt.Errorf("malformed JSON from %s show: %w", a.helper, err))
	}
	return ShowResult{Content: payload.Profile.Content}, nil
}

func (a *Assembler) fetchProfiles() ([]VirtualProfile, error) {
	stdout, err := a.run("list", "--json")
	if err != nil {
		return nil, err
	}

	var entries []struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		Summary     string   `json:"summary"`
		Tags        []string `json:"tags"`
	}
	if err := json.Unmarshal(stdout, &entries); err != nil {
		return nil, fmt.Errorf("malformed JSON from %s list: %w", a.helper, err)
	}

	profiles := make([]VirtualProfile, 0, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			continue
		}
		desc := e.Description
		if desc == "" {
			desc = e.Summary
		}
		profiles = append(profiles, VirtualProfile{
			Key:         a.namespace + "/" + e.Name,
			Name:        e.Name,
			Description: desc,
			Tags:        e.Tags,
		})
	}
	return profiles, nil
}

func (a *Assembler) run(args ...string) ([]byte, error) {
	cmd := exec.Command(a.helper, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to execute %q %s: %w", a.helper, strings.Join(args, " "), err)
	}
	return stdout.Bytes(), nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
