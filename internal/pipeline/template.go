package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// renderTemplate substitutes {{CMD}}, {{provider}}, {{session.*}}, {{cwd}},
// and {{var:NAME}} tokens into tmpl. When shellQuoteCMD is true (wrapper
// "shell" mode), {{CMD}} is single-quoted; in "raw" mode it substitutes
// literally. Unknown placeholders and unbound {{var:...}} lookups fail with
// a named error (spec.md §4.D).
func renderTemplate(tmpl, cmd string, shellQuoteCMD bool, provider string, sess SessionContext, cwd string, vars map[string]string) (string, error) {
	var firstErr error
	out := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		if firstErr != nil {
			return ""
		}
		token := placeholderPattern.FindStringSubmatch(match)[1]
		value, err := resolvePlaceholder(token, cmd, shellQuoteCMD, provider, sess, cwd, vars)
		if err != nil {
			firstErr = err
			return ""
		}
		return value
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

func resolvePlaceholder(token, cmd string, shellQuoteCMD bool, provider string, sess SessionContext, cwd string, vars map[string]string) (string, error) {
	switch {
	case token == "CMD":
		if shellQuoteCMD {
			return shellQuote(cmd), nil
		}
		return cmd, nil
	case token == "provider":
		return provider, nil
	case token == "cwd":
		return cwd, nil
	case token == "session.id":
		return sess.ID, nil
	case token == "session.label":
		return sess.Label, nil
	case token == "session.path":
		return sess.Path, nil
	case token == "session.resume_token":
		return sess.ResumeToken, nil
	case strings.HasPrefix(token, "var:"):
		name := strings.TrimPrefix(token, "var:")
		value, ok := vars[name]
		if !ok {
			return "", fmt.Errorf("unbound template variable %q", name)
		}
		return value, nil
	default:
		return "", fmt.Errorf("unknown template placeholder %q", token)
	}
}
