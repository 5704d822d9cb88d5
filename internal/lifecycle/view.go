package lifecycle

import (
	"time"

	"veriguard/internal/chat"
	"veriguard/internal/router"
)

type EntryKind int

const (
	// EntryPending is the user's turn while its request is in flight.
	EntryPending EntryKind = iota + 1
	// EntryUnsent is a user turn whose request failed. It is never stored.
	EntryUnsent
	EntryError
)

// Entry is a conversation line that exists only on screen. SessionID is the
// session the request was sent from, "" for the new-chat screen.
type Entry struct {
	Kind      EntryKind
	Role      chat.Role
	Content   string
	CreatedAt time.Time
	SessionID string
}

// Transient returns the on-screen entries of the active session that are not
// part of the store.
func (c *Controller) Transient() []Entry {
	active, _ := c.store.Active()
	var out []Entry
	for _, e := range c.transient {
		if e.SessionID == active {
			out = append(out, e)
		}
	}
	return out
}

// ResetView drops the settled entries of the active session. A pending turn
// is kept until its request completes.
func (c *Controller) ResetView() {
	active, _ := c.store.Active()
	c.leave(active)
}

// leave drops the settled entries shown for id.
func (c *Controller) leave(id string) {
	kept := c.transient[:0]
	for _, e := range c.transient {
		if e.SessionID != id || e.Kind == EntryPending {
			kept = append(kept, e)
		}
	}
	c.transient = kept
}

// forget drops every entry of id, pending ones included.
func (c *Controller) forget(id string) {
	kept := c.transient[:0]
	for _, e := range c.transient {
		if e.SessionID != id {
			kept = append(kept, e)
		}
	}
	c.transient = kept
}

func (c *Controller) markPendingUnsent(id string) {
	for i := range c.transient {
		if c.transient[i].Kind == EntryPending && c.transient[i].SessionID == id {
			c.transient[i].Kind = EntryUnsent
		}
	}
}

// StartNewChat leaves the active session and shows the empty screen.
func (c *Controller) StartNewChat() {
	c.ResetView()
	c.store.ClearActive()
	c.router.NavigateToRoot()
}

// Open makes id the active session and navigates to it.
func (c *Controller) Open(id string) error {
	prev, _ := c.store.Active()
	if err := c.store.SetActive(id); err != nil {
		return err
	}
	c.leave(prev)
	c.router.NavigateToSession(id)
	return nil
}

// DeleteSession removes id; deleting the active session returns the view to
// the new-chat screen.
func (c *Controller) DeleteSession(id string) {
	active, _ := c.store.Active()
	c.store.Delete(id)
	c.leave(id)
	if active == id {
		c.router.NavigateToRoot()
	}
}

// Apply syncs the active session with a resolved location.
func (c *Controller) Apply(res router.Resolution) {
	c.ResetView()
	if res.SessionID == "" {
		c.store.ClearActive()
	} else if err := c.store.SetActive(res.SessionID); err != nil {
		c.store.ClearActive()
	}
}
