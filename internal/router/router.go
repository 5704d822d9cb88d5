package router

import (
	"log/slog"

	"veriguard/internal/chat"
	"veriguard/internal/logger"
)

// Sessions is the read-only view of the session store the router needs.
type Sessions interface {
	Get(id string) (chat.Session, bool)
}

// Resolution is what the current location means for the view.
type Resolution struct {
	// SessionID is the session to show; empty means the new-chat screen.
	SessionID string
	// Reset is set when the location named a session that does not exist
	// and was rewritten to the root.
	Reset bool
}

type Router struct {
	history  History
	sessions Sessions
	log      *slog.Logger
	handlers []func(Resolution)
}

func New(history History, sessions Sessions, log *slog.Logger) *Router {
	r := &Router{history: history, sessions: sessions, log: logger.OrDiscard(log)}
	history.Listen(func(string) {
		res := r.Resolve()
		for _, fn := range r.handlers {
			fn(res)
		}
	})
	return r
}

// NavigateToSession pushes the location for id. The caller has already
// updated the view.
func (r *Router) NavigateToSession(id string) {
	path := SessionPath(id)
	if r.history.Current() == path {
		return
	}
	r.history.Push(path)
	r.log.Debug("navigate", "path", path)
}

// NavigateToRoot replaces the current entry with the root so that starting a
// new chat does not leave a back entry behind.
func (r *Router) NavigateToRoot() {
	if r.history.Current() == RootPath {
		return
	}
	r.history.Replace(RootPath)
	r.log.Debug("navigate", "path", RootPath, "replace", true)
}

// Resolve maps the current location to a session. Locations naming unknown
// sessions, and unroutable paths, are rewritten to the root.
func (r *Router) Resolve() Resolution {
	path := r.history.Current()
	id, ok, routable := ParsePath(path)
	if ok {
		if _, found := r.sessions.Get(id); found {
			return Resolution{SessionID: id}
		}
		r.log.Info("location names unknown session, resetting to root", "path", path, "err", chat.ErrNotFound)
		r.history.Replace(RootPath)
		return Resolution{Reset: true}
	}
	if !routable {
		r.log.Info("unroutable location, resetting to root", "path", path)
		r.history.Replace(RootPath)
		return Resolution{Reset: true}
	}
	return Resolution{}
}

// OnNavigate registers fn to run after Back and Forward moves with the
// freshly resolved location.
func (r *Router) OnNavigate(fn func(Resolution)) {
	r.handlers = append(r.handlers, fn)
}

func (r *Router) Back() bool {
	return r.history.Back()
}

func (r *Router) Forward() bool {
	return r.history.Forward()
}

func (r *Router) Location() string {
	return r.history.Current()
}
