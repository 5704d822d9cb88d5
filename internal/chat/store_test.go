package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"veriguard/internal/storage"
)

type fakeClock struct {
	t    time.Time
	step time.Duration
}

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC), step: time.Second}
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(c.step)
	return c.t
}

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("s%d", n)
	}
}

func newTestStore(adapter storage.Adapter) *Store {
	return New(Options{Adapter: adapter, Now: newClock().Now, NewID: seqIDs()})
}

func TestCreateInsertsAtFrontAndActivates(t *testing.T) {
	s := newTestStore(storage.NewMemory())
	first := s.Create("What is ibuprofen?")
	second := s.Create("")

	if first.Title != "What is ibuprofen?" {
		t.Fatalf("unexpected title %q", first.Title)
	}
	if second.Title != "New Chat" {
		t.Fatalf("expected default title for empty query, got %q", second.Title)
	}
	if !first.CreatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("created_at and updated_at differ on creation")
	}
	if len(first.Messages) != 0 {
		t.Fatalf("new session should have no messages")
	}
	list := s.List()
	if len(list) != 2 || list[0].ID != second.ID || list[1].ID != first.ID {
		t.Fatalf("unexpected list order: %+v", list)
	}
	if active, ok := s.Active(); !ok || active != second.ID {
		t.Fatalf("expected newest session active, got %q", active)
	}
}

func TestCreateHonoursRequestedIDUnlessTaken(t *testing.T) {
	s := newTestStore(nil)
	a := s.Create("q", WithID("server-1"))
	if a.ID != "server-1" {
		t.Fatalf("expected requested id, got %q", a.ID)
	}
	b := s.Create("q", WithID("server-1"))
	if b.ID == "server-1" || b.ID == "" {
		t.Fatalf("expected fresh id for taken request, got %q", b.ID)
	}
}

func TestServerTitleWins(t *testing.T) {
	s := newTestStore(nil)
	got := s.Create("Does turmeric really cure cancer in humans", WithServerTitle("Turmeric and cancer"))
	if got.Title != "Turmeric and cancer" {
		t.Fatalf("server title should win, got %q", got.Title)
	}
	got = s.Create("Does turmeric really cure cancer in humans", WithServerTitle("   "))
	if got.Title != "turmeric really cure cancer" {
		t.Fatalf("blank server title should fall back to generated, got %q", got.Title)
	}
}

func TestAppendExchange(t *testing.T) {
	s := newTestStore(storage.NewMemory())
	a := s.Create("first")
	b := s.Create("second")

	updated, err := s.AppendExchange(a.ID, "hello", "world", WithSources(Sources{
		PubMed: []json.RawMessage{json.RawMessage(`{"pmid":"1"}`)},
	}))
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if len(updated.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(updated.Messages))
	}
	if updated.Messages[0].Role != RoleUser || updated.Messages[0].Content != "hello" {
		t.Fatalf("unexpected user message %+v", updated.Messages[0])
	}
	if updated.Messages[1].Role != RoleAssistant || updated.Messages[1].Sources.Empty() {
		t.Fatalf("unexpected assistant message %+v", updated.Messages[1])
	}
	if !updated.UpdatedAt.After(a.UpdatedAt) {
		t.Fatalf("updated_at did not advance")
	}
	if s.List()[0].ID != a.ID || s.List()[1].ID != b.ID {
		t.Fatalf("appended session should move to front")
	}

	if _, err := s.AppendExchange("missing", "x", "y"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRecencyOrderingInvariant(t *testing.T) {
	s := newTestStore(nil)
	ids := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		ids = append(ids, s.Create(fmt.Sprintf("query %d", i)).ID)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		id := ids[rng.Intn(len(ids))]
		if _, err := s.AppendExchange(id, "q", "a"); err != nil {
			t.Fatalf("append: %v", err)
		}
		if got := s.List()[0].ID; got != id {
			t.Fatalf("step %d: expected %s first, got %s", i, id, got)
		}
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(storage.NewMemory())
	a := s.Create("a")
	b := s.Create("b")

	s.Delete(a.ID)
	if active, _ := s.Active(); active != b.ID {
		t.Fatalf("deleting inactive session should keep active pointer, got %q", active)
	}
	s.Delete(b.ID)
	if _, ok := s.Active(); ok {
		t.Fatalf("deleting active session should unset active pointer")
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	s.Delete("absent")
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	s := newTestStore(nil)
	a := s.Create("a")
	if _, err := s.AppendExchange(a.ID, "q", "r"); err != nil {
		t.Fatalf("append: %v", err)
	}
	got, ok := s.Get(a.ID)
	if !ok {
		t.Fatalf("expected session")
	}
	got.Messages[0].Content = "mutated"
	again, _ := s.Get(a.ID)
	if again.Messages[0].Content != "q" {
		t.Fatalf("Get must not expose internal state")
	}
	if _, ok := s.Get("nope"); ok {
		t.Fatalf("expected miss for unknown id")
	}
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 50} {
		t.Run(fmt.Sprintf("n=%d", n), func(t *testing.T) {
			mem := storage.NewMemory()
			orig := newTestStore(mem)
			for i := 0; i < n; i++ {
				sess := orig.Create(fmt.Sprintf("question number %d about aspirin", i))
				if i%2 == 0 {
					if _, err := orig.AppendExchange(sess.ID, "q", "a"); err != nil {
						t.Fatalf("append: %v", err)
					}
				}
			}
			if n == 0 {
				// An empty store writes nothing; force the key to exist.
				if err := mem.Set(storage.HistoryKey, []byte("[]")); err != nil {
					t.Fatalf("seed: %v", err)
				}
			}

			loaded := Load(Options{Adapter: mem})
			want := orig.sessions
			got := loaded.sessions
			if len(got) != len(want) {
				t.Fatalf("expected %d sessions, got %d", len(want), len(got))
			}
			for i := range want {
				assertSessionEqual(t, want[i], got[i])
			}
		})
	}
}

func assertSessionEqual(t *testing.T, want, got Session) {
	t.Helper()
	if want.ID != got.ID || want.Title != got.Title {
		t.Fatalf("identity mismatch: want %s/%q got %s/%q", want.ID, want.Title, got.ID, got.Title)
	}
	if !want.CreatedAt.Equal(got.CreatedAt) || !want.UpdatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("timestamp mismatch for %s", want.ID)
	}
	if len(want.Messages) != len(got.Messages) {
		t.Fatalf("message count mismatch for %s", want.ID)
	}
	for i := range want.Messages {
		w, g := want.Messages[i], got.Messages[i]
		if w.Role != g.Role || w.Content != g.Content || !w.CreatedAt.Equal(g.CreatedAt) {
			t.Fatalf("message %d mismatch for %s: %+v vs %+v", i, want.ID, w, g)
		}
	}
}

func TestLoadToleratesBadStorage(t *testing.T) {
	corrupt := storage.NewMemory()
	_ = corrupt.Set(storage.HistoryKey, []byte(`{not json`))
	if s := Load(Options{Adapter: corrupt}); s.Len() != 0 {
		t.Fatalf("corrupt history should load empty")
	}

	unreadable := storage.NewMemory()
	unreadable.ReadErr = storage.ErrStorage
	if s := Load(Options{Adapter: unreadable}); s.Len() != 0 {
		t.Fatalf("unreadable storage should load empty")
	}

	if s := Load(Options{Adapter: storage.NewMemory()}); s.Len() != 0 {
		t.Fatalf("missing history should load empty")
	}
}

func TestLoadSkipsBadRecordsAndFixesInvariants(t *testing.T) {
	mem := storage.NewMemory()
	_ = mem.Set(storage.HistoryKey, []byte(`[
		{"id":"a","title":"","created_at":"2026-01-02T10:00:00Z","updated_at":"2026-01-01T10:00:00Z","messages":null},
		42,
		{"nothing":"here"},
		{"id":"a","title":"dup","created_at":"2026-01-02T10:00:00Z","updated_at":"2026-01-02T10:00:00Z","messages":[]}
	]`))
	s := Load(Options{Adapter: mem})
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}
	got, _ := s.Get("a")
	if got.Title != "Chat 1" {
		t.Fatalf("expected positional title, got %q", got.Title)
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("updated_at must not precede created_at")
	}
	if got.Messages == nil {
		t.Fatalf("messages should be an empty slice, not nil")
	}
}

func TestLoadMigratesLegacyRecords(t *testing.T) {
	mem := storage.NewMemory()
	_ = mem.Set(storage.HistoryKey, []byte(`[
		{"timestamp":"09:15 AM","title":"Vaccines","extracted_text":"do vaccines cause autism","summary":"<p>No.</p>","pubmed_results":[{"pmid":"123"}],"fact_checks":[]},
		{"timestamp":"09:20 AM","extracted_text":"is coffee healthy","summary":""}
	]`))

	s := Load(Options{Adapter: mem, NewID: seqIDs(), Now: newClock().Now})
	list := s.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 migrated sessions, got %d", len(list))
	}
	if list[0].Title != "Chat 2" || list[1].Title != "Vaccines" {
		t.Fatalf("expected newest legacy record first, got %q then %q", list[0].Title, list[1].Title)
	}
	vaccines, _ := s.Get(list[1].ID)
	if len(vaccines.Messages) != 2 || vaccines.Messages[1].Sources.Empty() {
		t.Fatalf("expected user+assistant with sources, got %+v", vaccines.Messages)
	}
	coffee, _ := s.Get(list[0].ID)
	if len(coffee.Messages) != 1 || coffee.Messages[0].Role != RoleUser {
		t.Fatalf("legacy record without summary keeps only the user turn, got %+v", coffee.Messages)
	}

	data, _, _ := mem.Get(storage.HistoryKey)
	if strings.Contains(string(data), "extracted_text") {
		t.Fatalf("legacy shape must not be written back: %s", data)
	}
	reloaded := Load(Options{Adapter: mem})
	if reloaded.List()[0].ID != list[0].ID {
		t.Fatalf("migrated ids should be stable across reloads")
	}
}

func TestPersistFailureKeepsMemoryAuthoritative(t *testing.T) {
	mem := storage.NewMemory()
	s := newTestStore(mem)
	a := s.Create("before quota")

	mem.WriteErr = storage.ErrQuotaExceeded
	if _, err := s.AppendExchange(a.ID, "q", "a"); err != nil {
		t.Fatalf("storage failure must not surface: %v", err)
	}
	b := s.Create("after quota")
	if s.Len() != 2 {
		t.Fatalf("in-memory state should include both sessions")
	}
	if got, _ := s.Get(a.ID); len(got.Messages) != 2 {
		t.Fatalf("append should be kept in memory")
	}

	mem.WriteErr = nil
	persisted := Load(Options{Adapter: mem})
	if persisted.Len() != 1 {
		t.Fatalf("expected only the pre-failure write on disk, got %d", persisted.Len())
	}
	if _, ok := persisted.Get(b.ID); ok {
		t.Fatalf("session created during failure should not be persisted")
	}
}

func TestSubscribe(t *testing.T) {
	s := newTestStore(nil)
	var got []EventKind
	unsubscribe := s.Subscribe(func(e Event) { got = append(got, e.Kind) })

	a := s.Create("x")
	_, _ = s.AppendExchange(a.ID, "q", "r")
	s.ClearActive()
	_ = s.SetActive(a.ID)
	s.Delete(a.ID)
	s.Delete(a.ID)
	unsubscribe()
	s.Create("y")

	want := []EventKind{EventCreated, EventAppended, EventActiveChanged, EventActiveChanged, EventDeleted}
	if len(got) != len(want) {
		t.Fatalf("events mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events mismatch: got %v want %v", got, want)
		}
	}
	if err := s.SetActive("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGroupedByCreationDay(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC), step: 0}
	s := New(Options{Now: clock.Now, NewID: seqIDs()})

	old := s.Create("old")
	clock.t = clock.t.Add(24 * time.Hour)
	yesterday := s.Create("yesterday")
	clock.t = clock.t.Add(24 * time.Hour)
	today := s.Create("today")
	_, _ = s.AppendExchange(old.ID, "bump", "to front")

	groups := s.Grouped(clock.t)
	if len(groups) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(groups))
	}
	if groups[0].Label != "Today" || groups[0].Sessions[0].ID != today.ID {
		t.Fatalf("unexpected first group %+v", groups[0])
	}
	if groups[1].Label != "Yesterday" || groups[1].Sessions[0].ID != yesterday.ID {
		t.Fatalf("unexpected second group %+v", groups[1])
	}
	if groups[2].Label != "Thu Mar 12, 2026" || groups[2].Sessions[0].ID != old.ID {
		t.Fatalf("unexpected third group %+v", groups[2])
	}
}

func TestSearch(t *testing.T) {
	s := newTestStore(nil)
	a := s.Create("ibuprofen dosage")
	_, _ = s.AppendExchange(a.ID, "how much ibuprofen", "Up to 1200 mg per day.")
	s.Create("coffee and sleep")

	got := s.Search(`"IBUPROFEN" mg`)
	if len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("unexpected search result %+v", got)
	}
	if len(s.Search("  ")) != 2 {
		t.Fatalf("blank search should list everything")
	}
}

func TestPreviewCutsOnRuneBoundary(t *testing.T) {
	s := newTestStore(nil)
	a := s.Create("accents")
	long := strings.Repeat("é", 130)
	if _, err := s.AppendExchange(a.ID, long, "r"); err != nil {
		t.Fatalf("append: %v", err)
	}
	preview := s.List()[0].Preview
	if !utf8.ValidString(preview) {
		t.Fatalf("preview is not valid UTF-8: %q", preview)
	}
	if !strings.HasSuffix(preview, "...") || utf8.RuneCountInString(preview) != 120 {
		t.Fatalf("unexpected preview %q (%d runes)", preview, utf8.RuneCountInString(preview))
	}

	short := s.Create("short")
	if _, err := s.AppendExchange(short.ID, "héllo", "r"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := s.List()[0].Preview; got != "héllo" {
		t.Fatalf("short preview should be kept, got %q", got)
	}
}

func TestSubscribersNotifiedInOrder(t *testing.T) {
	s := newTestStore(nil)
	var order []int
	unsubs := make([]func(), 0, 5)
	for i := 0; i < 5; i++ {
		i := i
		unsubs = append(unsubs, s.Subscribe(func(Event) { order = append(order, i) }))
	}
	unsubs[2]()
	unsubs[2]()

	s.Create("x")
	// Create emits once.
	want := []int{0, 1, 3, 4}
	if fmt.Sprint(order) != fmt.Sprint(want) {
		t.Fatalf("expected notification order %v, got %v", want, order)
	}
}
