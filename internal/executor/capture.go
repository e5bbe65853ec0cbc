package executor

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/bedecarroll/tx/internal/txerr"
)

// CaptureArgs mirrors the flags the capture-arg internal subcommand carries
// through the pipeline (spec.md §4.D/§4.E): the provider name (for error
// context), its binary, any declared pre commands, and the provider's
// argument list with the `{prompt}` placeholder still unresolved.
type CaptureArgs struct {
	Provider   string
	Bin        string
	Pre        []string
	Args       []string
	StdinLimit int64
}

// RunCaptureArg implements the capture-arg shim: collect a prompt (from the
// environment contract or stdin), optionally pipe it through pre commands,
// splice it into the provider's argv, and exec the provider with stdio
// inherited (spec.md §4.E).
func RunCaptureArg(args CaptureArgs) error {
	limit := args.StdinLimit
	if limit <= 0 {
		limit = DefaultStdinLimit
	}

	payload, err := collectPayload(limit)
	if err != nil {
		return txerr.New(txerr.KindExecutor, "executor.capture_arg: collect", args.Provider, err)
	}

	prompt := payload
	if len(args.Pre) > 0 {
		prompt, err = runPreChain(args.Pre, payload)
		if err != nil {
			return txerr.New(txerr.KindExecutor, "executor.capture_arg: pre chain", args.Provider, err)
		}
	}

	finalArgs := spliceArg(args.Args, prompt)

	cmd := exec.Command(args.Bin, finalArgs...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Run(); err != nil {
		return exitError(err)
	}
	return nil
}

// collectPayload reads TX_CAPTURE_STDIN_DATA if set, else reads stdin fully
// up to limit bytes, failing if the input is larger.
func collectPayload(limit int64) (string, error) {
	if text, ok := os.LookupEnv(CaptureStdinEnvVar); ok {
		return text, nil
	}

	limited := io.LimitReader(os.Stdin, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", fmt.Errorf("prompt exceeds stdin limit of %d bytes", limit)
	}
	return string(data), nil
}

// runPreChain joins pre into a nested shell pipeline (the same " | "
// joining convention the builder uses), feeds payload to its stdin, and
// returns its stdout as the final prompt.
func runPreChain(pre []string, payload string) (string, error) {
	pipeline := strings.Join(pre, " | ")
	cmd := exec.Command(resolveShell(), "-c", pipeline)
	cmd.Stdin = strings.NewReader(payload)
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimRight(out.String(), "\n"), nil
}

// spliceArg replaces the literal token {prompt} in the first matching
// argument, appending prompt as the last argument when none match.
func spliceArg(args []string, prompt string) []string {
	out := make([]string, len(args))
	copy(out, args)
	for i, a := range out {
		if strings.Contains(a, "{prompt}") {
			out[i] = strings.ReplaceAll(a, "{prompt}", prompt)
			return out
		}
	}
	return append(out, prompt)
}
