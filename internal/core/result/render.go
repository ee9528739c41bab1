package result

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"

	"github.com/colonyops/policyview/internal/core/styles"
)

var (
	policyOnce sync.Once
	ugcPolicy  *bluemonday.Policy
	textPolicy *bluemonday.Policy
)

func policies() (*bluemonday.Policy, *bluemonday.Policy) {
	policyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
		textPolicy = bluemonday.StrictPolicy()
	})
	return ugcPolicy, textPolicy
}

// Sanitize removes scripts, event handlers and other active content from
// a server response while keeping structural markup.
func Sanitize(raw string) string {
	ugc, _ := policies()
	return ugc.Sanitize(raw)
}

// Strip removes all markup and returns single-spaced text.
func Strip(raw string) string {
	_, strict := policies()
	return collapse(html.UnescapeString(strict.Sanitize(raw)))
}

// Markdown sanitizes raw and converts it to markdown.
func Markdown(raw string) (string, error) {
	md, err := ToMarkdown(Sanitize(raw))
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}
	return md, nil
}

// Render turns a response body into styled terminal output wrapped at width.
func Render(raw string, width int) (string, error) {
	md, err := Markdown(raw)
	if err != nil {
		return "", err
	}
	if md == "" {
		return "", nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStyles(styles.GlamourStyle()),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}

	out, err := renderer.Render(md)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.Trim(out, "\n"), nil
}
