// Package jsoncolor renders JSON with theme-aware syntax coloring.
package jsoncolor

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	"github.com/colonyops/policyview/internal/core/styles"
)

// token matches, in order of precedence: a string with an optional
// trailing colon (object key), a number, or a literal.
var token = regexp.MustCompile(`"(?:[^"\\]|\\.)*"(\s*:)?|-?[0-9]+(?:\.[0-9]+)?(?:[eE][+-]?[0-9]+)?|true|false|null`)

// Colorize pretty-prints JSON bytes with syntax coloring. Invalid JSON is
// returned unchanged.
func Colorize(data []byte) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return string(data)
	}

	return token.ReplaceAllStringFunc(buf.String(), func(tok string) string {
		switch {
		case strings.HasPrefix(tok, `"`) && strings.HasSuffix(tok, ":"):
			key := strings.TrimRight(tok[:len(tok)-1], " \t")
			return styles.TextPrimaryStyle.Render(key) + styles.TextMutedStyle.Render(tok[len(key):])
		case strings.HasPrefix(tok, `"`):
			return styles.SuccessStyle.Render(tok)
		case tok == "true" || tok == "false":
			return styles.TextSecondaryStyle.Render(tok)
		case tok == "null":
			return styles.TextMutedStyle.Render(tok)
		default:
			return styles.WarningStyle.Render(tok)
		}
	})
}
