// Package view turns stored sessions and transient lifecycle entries into the
// text shown in the conversation pane.
package view

import (
	"time"

	"veriguard/internal/chat"
	"veriguard/internal/lifecycle"
)

// Placeholder is shown when there is nothing to display yet.
const Placeholder = "Ask about a health claim, paste an image URL, or attach a file to start a new chat."

type Kind int

const (
	KindMessage Kind = iota
	KindPending
	KindUnsent
	KindError
)

// Entry is one line of the conversation as displayed.
type Entry struct {
	Kind      Kind
	Role      chat.Role
	Content   string
	CreatedAt time.Time
	Sources   *chat.Sources
}

// Project lists the stored messages of sess, then the transient entries.
// sess may be nil for the new-chat screen. The result depends only on its
// inputs.
func Project(sess *chat.Session, transient []lifecycle.Entry) []Entry {
	n := len(transient)
	if sess != nil {
		n += len(sess.Messages)
	}
	out := make([]Entry, 0, n)
	if sess != nil {
		for _, m := range sess.Messages {
			out = append(out, Entry{
				Kind:      KindMessage,
				Role:      m.Role,
				Content:   m.Content,
				CreatedAt: m.CreatedAt,
				Sources:   m.Sources,
			})
		}
	}
	for _, e := range transient {
		out = append(out, Entry{
			Kind:      kindOf(e.Kind),
			Role:      e.Role,
			Content:   e.Content,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

func kindOf(k lifecycle.EntryKind) Kind {
	switch k {
	case lifecycle.EntryPending:
		return KindPending
	case lifecycle.EntryUnsent:
		return KindUnsent
	default:
		return KindError
	}
}
