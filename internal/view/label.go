package view

import (
	"strings"

	"github.com/charmbracelet/x/ansi"
)

// SidebarLabel fits a session title into width cells.
func SidebarLabel(title string, width int) string {
	title = strings.Join(strings.Fields(title), " ")
	if width <= 0 || ansi.StringWidth(title) <= width {
		return title
	}
	return ansi.Truncate(title, width, "…")
}
