package pipeline

import (
	"fmt"
	"os"
	"strings"

	"github.com/bedecarroll/tx/internal/config"
	"github.com/bedecarroll/tx/internal/txerr"
)

// Build resolves a Request against its Config into a deterministic Plan.
// Its only I/O is reading process environment variables for ${env:NAME}
// expansion and os.Executable() for the capture-arg self-invocation path
// (spec.md §4.D).
func Build(req Request) (*Plan, error) {
	cfg := req.Config

	profile, err := resolveProfile(cfg, req.Profile)
	if err != nil {
		return nil, err
	}

	providerName, err := resolveProviderName(cfg, profile, req)
	if err != nil {
		return nil, err
	}
	provider := cfg.Providers[providerName]

	wrapperName, wrapper, err := resolveWrapper(cfg, profile, req)
	if err != nil {
		return nil, err
	}

	preNames, preCommands, err := resolveSnippets(cfg.Pre, profileSnippetNames(profile, func(p *config.Profile) []string { return p.Pre }), req.AdditionalPre, "pre")
	if err != nil {
		return nil, err
	}
	preCommands = append(preCommands, req.InlinePre...)

	postNames, postCommands, err := resolveSnippets(cfg.Post, profileSnippetNames(profile, func(p *config.Profile) []string { return p.Post }), req.AdditionalPost, "post")
	if err != nil {
		return nil, err
	}

	captureMode := (provider.Stdin != nil && provider.Stdin.Mode == "capture-arg") || req.CapturePrompt

	providerArgs := append([]string{}, provider.Args...)
	if provider.Stdin != nil {
		providerArgs = append(providerArgs, provider.Stdin.Args...)
	}
	providerArgs = append(providerArgs, req.ProviderArgs...)

	env, err := resolveEnv(provider.Env)
	if err != nil {
		return nil, err
	}

	var pipelineStr string
	if captureMode {
		pipelineStr = buildCaptureStage(providerName, provider.Bin, preCommands, providerArgs)
	} else {
		pipelineStr = buildPlainPipeline(preCommands, provider.Bin, providerArgs, postCommands)
	}

	title, err := renderTemplate(cfg.Defaults.TerminalTitle, "", false, providerName, req.Session, req.Cwd, req.Vars)
	if err != nil {
		return nil, txerr.New(txerr.KindTemplate, "pipeline.build: terminal_title", cfg.Defaults.TerminalTitle, err)
	}

	invocation, err := buildInvocation(wrapper, pipelineStr, providerName, req)
	if err != nil {
		return nil, err
	}

	providerWantsPrompt := provider.Stdin != nil && provider.Stdin.Mode != "" && provider.Stdin.Mode != "none"
	needsStdinPrompt := providerWantsPrompt && !captureMode

	assembler := req.Assembler
	if assembler == nil && profile != nil && profile.Assembler != nil {
		assembler = &AssemblerInvocation{Name: profile.Assembler.Name, Args: profile.Assembler.Args}
	}

	stdinPromptLabel := ""
	if needsStdinPrompt && assembler != nil {
		stdinPromptLabel = assembler.Name
	}

	plan := &Plan{
		Pipeline:              pipelineStr,
		Display:               pipelineStr,
		Env:                   env,
		Invocation:            invocation,
		Provider:              providerName,
		TerminalTitle:         title,
		EffectivePre:          preNames,
		EffectivePost:         postNames,
		EffectiveWrapper:      wrapperName,
		NeedsStdinPrompt:      needsStdinPrompt,
		UsesCaptureArg:        captureMode,
		CaptureHasPreCommands: captureMode && len(preCommands) > 0,
		StdinPromptLabel:      stdinPromptLabel,
		Cwd:                   req.Cwd,
		Assembler:             assembler,
	}
	return plan, nil
}

func resolveProfile(cfg *config.Config, name string) (*config.Profile, error) {
	if name == "" {
		return nil, nil
	}
	p, ok := cfg.Profiles[name]
	if !ok {
		return nil, txerr.New(txerr.KindConfiguration, "pipeline.build: profile", name, fmt.Errorf("unknown profile %q", name))
	}
	return &p, nil
}

func resolveProviderName(cfg *config.Config, profile *config.Profile, req Request) (string, error) {
	name := ""
	if profile != nil && profile.Provider != "" {
		name = profile.Provider
	} else if req.ProviderHint != "" {
		name = req.ProviderHint
	} else if cfg.Defaults.Provider != "" {
		name = cfg.Defaults.Provider
	}
	if name == "" {
		return "", txerr.New(txerr.KindConfiguration, "pipeline.build: provider", "", fmt.Errorf("no provider selected"))
	}
	if _, ok := cfg.Providers[name]; !ok {
		return "", txerr.New(txerr.KindConfiguration, "pipeline.build: provider", name, fmt.Errorf("unknown provider %q", name))
	}
	return name, nil
}

func resolveWrapper(cfg *config.Config, profile *config.Profile, req Request) (string, *config.Wrapper, error) {
	name := req.Wrap
	if name == "" && profile != nil {
		name = profile.Wrap
	}
	if name == "" {
		return "", nil, nil
	}
	w, ok := cfg.Wrappers[name]
	if !ok {
		return "", nil, txerr.New(txerr.KindConfiguration, "pipeline.build: wrapper", name, fmt.Errorf("wrapper %q not found", name))
	}
	return name, &w, nil
}

func profileSnippetNames(profile *config.Profile, pick func(*config.Profile) []string) []string {
	if profile == nil {
		return nil
	}
	return pick(profile)
}

func resolveSnippets(catalog map[string]config.Snippet, profileNames, additional []string, kind string) (names, commands []string, err error) {
	all := append(append([]string{}, profileNames...), additional...)
	for _, name := range all {
		snip, ok := catalog[name]
		if !ok {
			return nil, nil, txerr.New(txerr.KindConfiguration, "pipeline.build: "+kind+" snippet", name, fmt.Errorf("unknown %s snippet %q", kind, name))
		}
		names = append(names, name)
		commands = append(commands, snip.Command)
	}
	return names, commands, nil
}

func resolveEnv(templates map[string]string) (map[string]string, error) {
	if len(templates) == 0 {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(templates))
	for key, tmpl := range templates {
		value, err := expandEnvTemplate(tmpl)
		if err != nil {
			return nil, txerr.New(txerr.KindConfiguration, "pipeline.build: env", key, err)
		}
		out[key] = value
	}
	return out, nil
}

func buildPlainPipeline(pre []string, bin string, args []string, post []string) string {
	stages := make([]string, 0, len(pre)+1+len(post))
	stages = append(stages, pre...)
	stages = append(stages, providerStage(bin, args))
	stages = append(stages, post...)
	return strings.Join(stages, " | ")
}

func providerStage(bin string, args []string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, shellQuote(bin))
	for _, a := range args {
		parts = append(parts, shellQuote(a))
	}
	return strings.Join(parts, " ")
}

// buildCaptureStage composes the self-invocation shim command: the tool's
// own absolute executable path if discoverable, else the literal "tx"
// (spec.md §4.D).
func buildCaptureStage(providerName, bin string, pre, args []string) string {
	self := "tx"
	if exe, err := os.Executable(); err == nil && exe != "" {
		self = exe
	}

	parts := []string{shellQuote(self), "internal", "capture-arg", "--provider", shellQuote(providerName), "--bin", shellQuote(bin)}
	for _, cmd := range pre {
		parts = append(parts, "--pre", shellQuote(cmd))
	}
	for _, arg := range args {
		parts = append(parts, "--arg", shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

func buildInvocation(wrapper *config.Wrapper, pipelineStr, providerName string, req Request) (Invocation, error) {
	if wrapper == nil {
		return Invocation{Kind: InvocationShell, ShellCommand: pipelineStr}, nil
	}

	switch wrapper.Mode {
	case "shell":
		rendered, err := renderTemplate(strings.Join(wrapper.Template, " "), pipelineStr, true, providerName, req.Session, req.Cwd, req.Vars)
		if err != nil {
			return Invocation{}, txerr.New(txerr.KindTemplate, "pipeline.build: wrapper", "", err)
		}
		return Invocation{Kind: InvocationShell, ShellCommand: rendered}, nil
	case "exec":
		argv := make([]string, len(wrapper.Template))
		for i, entry := range wrapper.Template {
			rendered, err := renderTemplate(entry, pipelineStr, false, providerName, req.Session, req.Cwd, req.Vars)
			if err != nil {
				return Invocation{}, txerr.New(txerr.KindTemplate, "pipeline.build: wrapper", "", err)
			}
			argv[i] = rendered
		}
		return Invocation{Kind: InvocationExec, Argv: argv}, nil
	default:
		return Invocation{}, txerr.New(txerr.KindConfiguration, "pipeline.build: wrapper", wrapper.Mode, fmt.Errorf("unknown wrapper mode %q", wrapper.Mode))
	}
}
