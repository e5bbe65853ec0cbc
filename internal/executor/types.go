// Package executor runs a pipeline.Plan to completion: spawning the shell
// or argv invocation, wiring the stdin-capture shim's environment contract,
// and propagating non-zero exits as structured errors (spec.md §4.E).
package executor

// PromptSource produces the single prompt string collected for a plan that
// needs one — a TTY read, a preset string, or prompt-assembler output. The
// executor doesn't care which; it only calls this when NeedsStdinPrompt.
type PromptSource func() (string, error)

// CaptureStdinEnvVar is the stable cross-process contract the shim and the
// shell invocation use to pass a captured prompt without a pipe: the
// executor sets it before spawning the child; the capture-arg shim (running
// as that child, or a descendant of it) reads it back.
const CaptureStdinEnvVar = "TX_CAPTURE_STDIN_DATA"

// DefaultStdinLimit is the byte ceiling the capture-arg shim reads stdin up
// to when TX_CAPTURE_STDIN_DATA isn't set and no override is configured.
const DefaultStdinLimit = 1 << 20
