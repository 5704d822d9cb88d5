// Package chat owns the conversation history: sessions, their messages, the
// active-session pointer, and the mapping to and from persisted storage.
package chat

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
)

var ErrNotFound = errors.New("session not found")

// previewWidth bounds Summary.Preview in terminal cells.
const previewWidth = 120

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Sources are the references returned alongside an assistant reply. Entries
// are kept as raw JSON; their shape belongs to the analysis service.
type Sources struct {
	PubMed     []json.RawMessage `json:"pubmed,omitempty"`
	FactChecks []json.RawMessage `json:"fact_checks,omitempty"`
}

func (s *Sources) Empty() bool {
	return s == nil || (len(s.PubMed) == 0 && len(s.FactChecks) == 0)
}

func (s *Sources) clone() *Sources {
	if s.Empty() {
		return nil
	}
	return &Sources{
		PubMed:     cloneRaw(s.PubMed),
		FactChecks: cloneRaw(s.FactChecks),
	}
}

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Sources   *Sources  `json:"sources,omitempty"`
}

type Session struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages"`
}

func (s Session) clone() Session {
	out := s
	out.Messages = make([]Message, len(s.Messages))
	for i, m := range s.Messages {
		m.Sources = m.Sources.clone()
		out.Messages[i] = m
	}
	return out
}

// LastReply returns the newest assistant message content, if any.
func (s Session) LastReply() (string, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == RoleAssistant {
			return s.Messages[i].Content, true
		}
	}
	return "", false
}

// Summary is the list-row view of a session.
type Summary struct {
	ID           string
	Title        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
	Preview      string
}

func (s Session) summary() Summary {
	return Summary{
		ID:           s.ID,
		Title:        s.Title,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		MessageCount: len(s.Messages),
		Preview:      trimPreview(firstUserText(s.Messages)),
	}
}

func firstUserText(msgs []Message) string {
	for _, m := range msgs {
		if m.Role == RoleUser && strings.TrimSpace(m.Content) != "" {
			return m.Content
		}
	}
	return ""
}

func trimPreview(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	return ansi.Truncate(s, previewWidth, "...")
}

func cloneRaw(in []json.RawMessage) []json.RawMessage {
	if len(in) == 0 {
		return nil
	}
	out := make([]json.RawMessage, len(in))
	for i, r := range in {
		out[i] = append(json.RawMessage(nil), r...)
	}
	return out
}
