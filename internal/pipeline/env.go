package pipeline

import (
	"fmt"
	"os"
	"regexp"
)

var envTemplatePattern = regexp.MustCompile(`\$\{env:([^}]+)\}`)

// expandEnvTemplate expands ${env:NAME} references by looking NAME up in the
// process environment, failing if any referenced variable is unset
// (spec.md §4.D "Environment").
func expandEnvTemplate(template string) (string, error) {
	var firstErr error
	out := envTemplatePattern.ReplaceAllStringFunc(template, func(match string) string {
		if firstErr != nil {
			return ""
		}
		name := envTemplatePattern.FindStringSubmatch(match)[1]
		value, ok := os.LookupEnv(name)
		if !ok {
			firstErr = fmt.Errorf("environment variable %q not set", name)
			return ""
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}
