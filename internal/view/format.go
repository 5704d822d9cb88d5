package view

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"

	"veriguard/internal/config"
)

var ErrRender = errors.New("render failed")

// Formatter turns reply text into terminal output wrapped to width.
type Formatter interface {
	Format(content string, width int) (string, error)
}

// Glamour renders markdown, and HTML converted to markdown, with glamour.
type Glamour struct {
	Style string
}

func NewGlamour(style string) Glamour {
	if style == "" {
		style = config.DefaultGlamourStyle
	}
	return Glamour{Style: style}
}

func (g Glamour) Format(content string, width int) (string, error) {
	md, err := ToMarkdown(content)
	if err != nil {
		return "", err
	}
	md = displaySafe(md)
	if len(md) > maxGlamourBytes {
		return md, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(g.Style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("%w: create renderer: %w", ErrRender, err)
	}
	out, err := r.Render(md)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	return strings.Trim(out, "\n"), nil
}

// Plain is a Formatter that only applies the display limits.
type Plain struct{}

func (Plain) Format(content string, width int) (string, error) {
	return displaySafe(content), nil
}

var htmlTag = regexp.MustCompile(`(?i)<(p|div|br|hr|ul|ol|li|strong|em|b|i|u|h[1-6]|a|span|table|tr|td|th|blockquote|pre|code)\b[^>]*>`)

func LooksLikeHTML(s string) bool {
	return htmlTag.MatchString(s)
}

// ToMarkdown sanitizes HTML replies and converts them to markdown. Other text
// is returned unchanged.
func ToMarkdown(content string) (string, error) {
	if !LooksLikeHTML(content) {
		return content, nil
	}
	clean := bluemonday.UGCPolicy().Sanitize(content)
	md, err := htmltomarkdown.ConvertString(clean)
	if err != nil {
		return "", fmt.Errorf("%w: convert html: %w", ErrRender, err)
	}
	return strings.TrimSpace(md), nil
}
