package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"veriguard/internal/chat"
	"veriguard/internal/view"
)

type sessionItem struct {
	s chat.Summary
	// divider is the day label shown above the first session of each day.
	divider string
}

func (i sessionItem) Title() string {
	return i.s.Title
}

func (i sessionItem) Description() string {
	meta := fmt.Sprintf("%s | %d msgs", i.s.UpdatedAt.Local().Format("15:04"), i.s.MessageCount)
	if i.s.Preview == "" {
		return meta
	}
	return meta + " | " + i.s.Preview
}

func (i sessionItem) FilterValue() string {
	return strings.ToLower(i.s.Title + " " + i.s.Preview)
}

func sessionItems(groups []chat.DayGroup) []list.Item {
	items := make([]list.Item, 0, 16)
	for _, g := range groups {
		for idx, s := range g.Sessions {
			item := sessionItem{s: s}
			if idx == 0 {
				item.divider = g.Label
			}
			items = append(items, item)
		}
	}
	return items
}

// sessionDelegate draws each session as a divider line (blank unless it
// starts a new day), a title line, and a description line.
type sessionDelegate struct {
	activeID func() string
}

func (d sessionDelegate) Height() int                             { return 3 }
func (d sessionDelegate) Spacing() int                            { return 0 }
func (d sessionDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd { return nil }

func (d sessionDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(sessionItem)
	if !ok {
		return
	}
	width := m.Width() - 2
	if width < 8 {
		width = 8
	}

	divider := ""
	if it.divider != "" {
		divider = dividerStyle.Render(view.SidebarLabel("── "+it.divider+" ──", width))
	}

	title := view.SidebarLabel(it.Title(), width-2)
	desc := view.SidebarLabel(it.Description(), width-2)
	marker := "  "
	if d.activeID != nil && d.activeID() == it.s.ID {
		marker = "● "
	}

	titleStyle, descStyle := itemTitleStyle, itemDescStyle
	if index == m.Index() {
		titleStyle, descStyle = selectedTitleStyle, selectedDescStyle
	}
	fmt.Fprintf(w, "%s\n%s\n%s", divider, titleStyle.Render(marker+title), descStyle.Render("  "+desc))
}

var (
	dividerStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	itemTitleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	itemDescStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	selectedTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	selectedDescStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("74"))
)
