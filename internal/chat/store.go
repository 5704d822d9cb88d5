package chat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"veriguard/internal/logger"
	"veriguard/internal/storage"
	"veriguard/internal/title"
)

type EventKind int

const (
	EventCreated EventKind = iota + 1
	EventAppended
	EventDeleted
	EventActiveChanged
)

type Event struct {
	Kind      EventKind
	SessionID string
}

type Options struct {
	Adapter storage.Adapter
	Logger  *slog.Logger
	Now     func() time.Time
	NewID   func() string
}

type listener struct {
	id int
	fn func(Event)
}

// Store is the single owner of the session list. It is not safe for
// concurrent use; all calls are expected to come from one event loop.
type Store struct {
	adapter storage.Adapter
	log     *slog.Logger
	now     func() time.Time
	newID   func() string

	sessions []Session
	active   string

	listeners    []listener
	nextListener int
}

// New returns an empty store that persists to opts.Adapter (which may be nil).
func New(opts Options) *Store {
	s := &Store{
		adapter:  opts.Adapter,
		log:      logger.OrDiscard(opts.Logger),
		now:      opts.Now,
		newID:    opts.NewID,
		sessions: []Session{},
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Load builds a store from the history saved in opts.Adapter. Missing,
// unreadable, or corrupt history yields an empty store; it is never fatal.
func Load(opts Options) *Store {
	s := New(opts)
	if s.adapter == nil {
		return s
	}

	data, ok, err := s.adapter.Get(storage.HistoryKey)
	if err != nil {
		s.log.Warn("read session history failed, starting empty", "err", err)
		return s
	}
	if !ok || len(strings.TrimSpace(string(data))) == 0 {
		return s
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		s.log.Warn("session history is corrupt, starting empty", "err", err, "bytes", len(data))
		return s
	}

	seen := make(map[string]struct{}, len(raw))
	var legacy []Session
	now := s.now()
	for i, r := range raw {
		rec, err := decodeRecord(r)
		if err != nil {
			s.log.Warn("skipping unreadable session record", "index", i, "err", err)
			continue
		}
		switch rec.kind {
		case kindCanonical:
			sess := normalize(rec.canonical, i+1)
			if _, dup := seen[sess.ID]; dup {
				s.log.Warn("skipping duplicate session id", "id", sess.ID)
				continue
			}
			seen[sess.ID] = struct{}{}
			s.sessions = append(s.sessions, sess)
		case kindLegacy:
			id := s.allocateID(seen)
			seen[id] = struct{}{}
			legacy = append(legacy, upgradeLegacy(rec.legacy, id, i+1, now))
		}
	}

	if len(legacy) > 0 {
		// Legacy history was appended oldest first.
		slices.Reverse(legacy)
		s.sessions = append(s.sessions, legacy...)
		s.log.Info("migrated legacy session records", "count", len(legacy))
		s.persist()
	}
	s.log.Debug("session history loaded", "sessions", len(s.sessions))
	return s
}

func (s *Store) allocateID(taken map[string]struct{}) string {
	for {
		id := s.newID()
		if _, ok := taken[id]; !ok && id != "" {
			return id
		}
	}
}

type createConfig struct {
	id          string
	serverTitle string
}

type CreateOption func(*createConfig)

// WithID requests a specific id, typically one assigned by the analysis
// service. It is ignored when blank or already in use.
func WithID(id string) CreateOption {
	return func(c *createConfig) { c.id = strings.TrimSpace(id) }
}

// WithServerTitle supplies a title chosen by the analysis service. A
// non-blank server title takes precedence over the generated one.
func WithServerTitle(t string) CreateOption {
	return func(c *createConfig) { c.serverTitle = t }
}

// ResolveTitle picks the session title: the server's when it is non-blank,
// otherwise one generated from the first query.
func ResolveTitle(serverTitle, firstQuery string) string {
	if t := strings.TrimSpace(serverTitle); t != "" {
		return t
	}
	return title.Generate(firstQuery)
}

// Create inserts a new empty session at the front of the list and makes it
// the active session.
func (s *Store) Create(firstQuery string, opts ...CreateOption) Session {
	var cfg createConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	taken := make(map[string]struct{}, len(s.sessions))
	for _, sess := range s.sessions {
		taken[sess.ID] = struct{}{}
	}
	id := cfg.id
	if _, used := taken[id]; id == "" || used {
		id = s.allocateID(taken)
	}

	now := s.now()
	sess := Session{
		ID:        id,
		Title:     ResolveTitle(cfg.serverTitle, firstQuery),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
	s.sessions = slices.Insert(s.sessions, 0, sess)
	s.active = id
	s.persist()
	s.emit(Event{Kind: EventCreated, SessionID: id})
	return sess.clone()
}

type messageConfig struct {
	sources *Sources
}

type MessageOption func(*messageConfig)

// WithSources attaches reply sources to the assistant message.
func WithSources(src Sources) MessageOption {
	return func(c *messageConfig) { c.sources = src.clone() }
}

// AppendExchange records one user turn and its reply, and moves the session
// to the front of the list.
func (s *Store) AppendExchange(id, userText, assistantText string, opts ...MessageOption) (Session, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Session{}, ErrNotFound
	}
	var cfg messageConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	sess := s.sessions[idx]
	now := s.now()
	if now.Before(sess.CreatedAt) {
		now = sess.CreatedAt
	}
	sess.Messages = append(sess.Messages,
		Message{Role: RoleUser, Content: userText, CreatedAt: now},
		Message{Role: RoleAssistant, Content: assistantText, CreatedAt: now, Sources: cfg.sources},
	)
	sess.UpdatedAt = now

	s.sessions = slices.Delete(s.sessions, idx, idx+1)
	s.sessions = slices.Insert(s.sessions, 0, sess)
	s.persist()
	s.emit(Event{Kind: EventAppended, SessionID: id})
	return sess.clone(), nil
}

// Delete removes a session. Unknown ids are ignored.
func (s *Store) Delete(id string) {
	idx := s.indexOf(id)
	if idx < 0 {
		return
	}
	s.sessions = slices.Delete(s.sessions, idx, idx+1)
	if s.active == id {
		s.active = ""
	}
	s.persist()
	s.emit(Event{Kind: EventDeleted, SessionID: id})
}

func (s *Store) Get(id string) (Session, bool) {
	idx := s.indexOf(id)
	if idx < 0 {
		return Session{}, false
	}
	return s.sessions[idx].clone(), true
}

// List returns session summaries, most recently active first.
func (s *Store) List() []Summary {
	out := make([]Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess.summary())
	}
	return out
}

func (s *Store) Len() int {
	return len(s.sessions)
}

func (s *Store) Active() (string, bool) {
	return s.active, s.active != ""
}

func (s *Store) SetActive(id string) error {
	if s.indexOf(id) < 0 {
		return ErrNotFound
	}
	if s.active == id {
		return nil
	}
	s.active = id
	s.emit(Event{Kind: EventActiveChanged, SessionID: id})
	return nil
}

func (s *Store) ClearActive() {
	if s.active == "" {
		return
	}
	s.active = ""
	s.emit(Event{Kind: EventActiveChanged})
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Event)) func() {
	id := s.nextListener
	s.nextListener++
	s.listeners = append(s.listeners, listener{id: id, fn: fn})
	return func() {
		s.listeners = slices.DeleteFunc(s.listeners, func(l listener) bool { return l.id == id })
	}
}

func (s *Store) emit(evt Event) {
	for _, l := range slices.Clone(s.listeners) {
		l.fn(evt)
	}
}

func (s *Store) indexOf(id string) int {
	if id == "" {
		return -1
	}
	return slices.IndexFunc(s.sessions, func(sess Session) bool { return sess.ID == id })
}

// persist writes the whole history. Failures are logged and dropped: the
// in-memory list stays authoritative for the rest of the run.
func (s *Store) persist() {
	if s.adapter == nil {
		return
	}
	data, err := json.Marshal(s.sessions)
	if err != nil {
		s.log.Error("encode session history failed", "err", err)
		return
	}
	if err := s.adapter.Set(storage.HistoryKey, data); err != nil {
		level := slog.LevelError
		if errors.Is(err, storage.ErrQuotaExceeded) {
			level = slog.LevelWarn
		}
		s.log.Log(context.Background(), level, "persist session history failed", "err", err, "bytes", len(data))
	}
}
