package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"veriguard/internal/chat"
)

const minWidth = 20

var (
	userHeading      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	assistantHeading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	placeholderStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("244"))
)

// Page is a rendered conversation.
type Page struct {
	Text string
	// Anchors holds one entry per conversation entry, in order.
	Anchors []Anchor
}

// Anchor is the first line of an entry in Page.Text and its plain heading.
type Anchor struct {
	Line  int
	Label string
}

// EntryAt returns the index of the entry that line belongs to, or -1 for
// lines before the first entry.
func (p Page) EntryAt(line int) int {
	return sort.Search(len(p.Anchors), func(i int) bool { return p.Anchors[i].Line > line }) - 1
}

// Document renders entries for a pane of the given width. A formatting
// failure affects only its own entry, which is shown as raw text; the
// failures are returned joined, each wrapping ErrRender.
func Document(entries []Entry, f Formatter, width int) (Page, error) {
	if width < minWidth {
		width = minWidth
	}
	if len(entries) == 0 {
		return Page{Text: placeholderStyle.Render(ansi.Wrap(Placeholder, width, ""))}, nil
	}
	if f == nil {
		f = Plain{}
	}

	var errs []error
	page := Page{Anchors: make([]Anchor, 0, len(entries))}
	blocks := make([]string, 0, len(entries))
	line := 0
	for i, e := range entries {
		body, err := entryBody(e, f, width)
		if err != nil {
			if !errors.Is(err, ErrRender) {
				err = fmt.Errorf("%w: %w", ErrRender, err)
			}
			errs = append(errs, fmt.Errorf("entry %d: %w", i, err))
		}
		head := heading(e)
		block := head + "\n" + body
		blocks = append(blocks, block)
		page.Anchors = append(page.Anchors, Anchor{Line: line, Label: ansi.Strip(head)})
		// Blocks are separated by one blank line.
		line += strings.Count(block, "\n") + 2
	}
	page.Text = strings.Join(blocks, "\n\n")
	return page, errors.Join(errs...)
}

func heading(e Entry) string {
	stamp := ""
	if !e.CreatedAt.IsZero() {
		stamp = e.CreatedAt.Format("15:04")
	}
	switch e.Kind {
	case KindPending:
		return userHeading.Render("You") + " " + mutedStyle.Render("sending...")
	case KindUnsent:
		return userHeading.Render("You") + " " + mutedStyle.Render("not sent")
	case KindError:
		return errorStyle.Bold(true).Render("Error")
	}
	label := userHeading.Render("You")
	if e.Role == chat.RoleAssistant {
		label = assistantHeading.Render("VeriGuard")
	}
	if stamp == "" {
		return label
	}
	return label + " " + mutedStyle.Render(stamp)
}

func entryBody(e Entry, f Formatter, width int) (string, error) {
	switch {
	case e.Kind == KindError:
		return errorStyle.Render(ansi.Wrap(e.Content, width, "")), nil
	case e.Role != chat.RoleAssistant:
		return ansi.Wrap(displaySafe(e.Content), width, ""), nil
	}

	body, err := f.Format(e.Content, width)
	if err != nil {
		body = ansi.Wrap(displaySafe(e.Content), width, "")
	}
	if src := sourcesBlock(e.Sources, width); src != "" {
		body += "\n\n" + src
	}
	return body, err
}

func sourcesBlock(src *chat.Sources, width int) string {
	if src.Empty() {
		return ""
	}
	var b strings.Builder
	section := func(name string, items []string) {
		if len(items) == 0 {
			return
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(mutedStyle.Render(name))
		for _, it := range items {
			b.WriteString("\n")
			b.WriteString(ansi.Wrap("- "+it, width, ""))
		}
	}
	section("PubMed", sourceLines(src.PubMed))
	section("Fact checks", sourceLines(src.FactChecks))
	return b.String()
}

func sourceLines(raw []json.RawMessage) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if line := chat.SourceLine(r); line != "" {
			out = append(out, line)
		}
	}
	return out
}
