// Package export writes sessions out as markdown files.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"veriguard/internal/chat"
	"veriguard/internal/view"
)

type Exporter struct {
	dir string
	cwd string
	now func() time.Time
}

// New returns an Exporter writing into dir. A relative dir is resolved
// against the working directory; an empty one means the working directory.
func New(dir string) (*Exporter, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve cwd: %w", err)
	}
	return &Exporter{
		dir: strings.TrimSpace(dir),
		cwd: cwd,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (e *Exporter) Dir() string {
	if e.dir == "" {
		return e.cwd
	}
	if filepath.IsAbs(e.dir) {
		return e.dir
	}
	return filepath.Join(e.cwd, e.dir)
}

// Export writes sess to <dir>/<id>.md and returns the path.
func (e *Exporter) Export(sess chat.Session) (string, error) {
	path := filepath.Join(e.Dir(), safeFileName(sess.ID)+".md")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	md := BuildSessionMarkdown(sess, e.now())
	if err := os.WriteFile(path, []byte(md), 0o644); err != nil {
		return "", fmt.Errorf("write export file: %w", err)
	}
	return path, nil
}

func BuildSessionMarkdown(sess chat.Session, now time.Time) string {
	var b strings.Builder
	b.WriteString("# " + safeValue(sess.Title) + "\n\n")
	b.WriteString("Exported: " + now.Format(time.RFC3339) + "\n\n")
	b.WriteString("```text\n")
	b.WriteString("session: " + safeValue(sess.ID) + "\n")
	b.WriteString("created: " + sess.CreatedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString("updated: " + sess.UpdatedAt.UTC().Format(time.RFC3339) + "\n")
	b.WriteString(fmt.Sprintf("message_count: %d\n", len(sess.Messages)))
	b.WriteString("```\n\n")
	b.WriteString(BuildTranscriptMarkdown(sess.Messages))
	return b.String()
}

// BuildTranscriptMarkdown renders the exchanges with their sources. HTML
// replies are converted to markdown.
func BuildTranscriptMarkdown(msgs []chat.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		content := strings.TrimSpace(m.Content)
		if m.Role == chat.RoleAssistant {
			if md, err := view.ToMarkdown(content); err == nil {
				content = md
			}
		}
		if content == "" {
			continue
		}

		switch m.Role {
		case chat.RoleUser:
			b.WriteString("## You\n\n")
		default:
			b.WriteString("## VeriGuard\n\n")
		}
		b.WriteString(content + "\n\n")
		writeSources(&b, m.Sources)
	}
	return strings.TrimSpace(b.String()) + "\n"
}

func writeSources(b *strings.Builder, src *chat.Sources) {
	if src.Empty() {
		return
	}
	list := func(name string, items []string) {
		if len(items) == 0 {
			return
		}
		b.WriteString("**" + name + "**\n\n")
		for _, it := range items {
			b.WriteString("- " + it + "\n")
		}
		b.WriteString("\n")
	}
	var pubmed, checks []string
	for _, r := range src.PubMed {
		if line := chat.SourceLine(r); line != "" {
			pubmed = append(pubmed, line)
		}
	}
	for _, r := range src.FactChecks {
		if line := chat.SourceLine(r); line != "" {
			checks = append(checks, line)
		}
	}
	list("PubMed", pubmed)
	list("Fact checks", checks)
}

// ReplyText is the most recent reply of sess as markdown, for copying.
func ReplyText(sess chat.Session) (string, bool) {
	reply, ok := sess.LastReply()
	if !ok {
		return "", false
	}
	if md, err := view.ToMarkdown(reply); err == nil {
		reply = md
	}
	return strings.TrimSpace(reply), true
}

func safeFileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "session"
	}
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return replacer.Replace(s)
}

func safeValue(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "n/a"
	}
	return s
}
