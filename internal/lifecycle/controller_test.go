package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"veriguard/internal/analysis"
	"veriguard/internal/chat"
	"veriguard/internal/router"
	"veriguard/internal/storage"
)

type analyzerFunc func(ctx context.Context, p analysis.Payload) (analysis.Reply, error)

func (f analyzerFunc) Analyze(ctx context.Context, p analysis.Payload) (analysis.Reply, error) {
	return f(ctx, p)
}

func summaryAnalyzer(summary string) analyzerFunc {
	return func(ctx context.Context, p analysis.Payload) (analysis.Reply, error) {
		return analysis.Reply{Summary: summary}, nil
	}
}

type harness struct {
	store   *chat.Store
	mem     *storage.Memory
	history *router.MemoryHistory
	router  *router.Router
	ctrl    *Controller
}

func newHarness(t *testing.T, an Analyzer, timeout time.Duration) *harness {
	t.Helper()
	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	now := func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	n := 0
	mem := storage.NewMemory()
	store := chat.New(chat.Options{
		Adapter: mem,
		Now:     now,
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
	})
	hist := router.NewHistory(router.RootPath, nil)
	r := router.New(hist, store, nil)
	ctrl := New(Options{Store: store, Router: r, Analyzer: an, Timeout: timeout, Now: now})
	return &harness{store: store, mem: mem, history: hist, router: r, ctrl: ctrl}
}

func TestScenarioFirstSubmissionCreatesSession(t *testing.T) {
	h := newHarness(t, summaryAnalyzer("Ibuprofen is an NSAID."), 0)

	res, err := h.ctrl.Submit(context.Background(), Input{Text: "What is ibuprofen?"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.State != Fulfilled || !res.Created || !res.ClearInput {
		t.Fatalf("unexpected result %+v", res)
	}
	if h.store.Len() != 1 {
		t.Fatalf("expected exactly one session, got %d", h.store.Len())
	}
	sess, _ := h.store.Get(res.SessionID)
	if sess.Title != "What is ibuprofen?" {
		t.Fatalf("unexpected title %q", sess.Title)
	}
	if len(sess.Messages) != 2 || sess.Messages[0].Role != chat.RoleUser || sess.Messages[1].Role != chat.RoleAssistant {
		t.Fatalf("expected user+assistant messages, got %+v", sess.Messages)
	}
	if h.router.Location() != "/chat/"+sess.ID {
		t.Fatalf("unexpected location %s", h.router.Location())
	}
	if len(h.ctrl.Transient()) != 0 {
		t.Fatalf("pending entry should be promoted, got %+v", h.ctrl.Transient())
	}
	if h.ctrl.State() != Idle || h.ctrl.LastOutcome() != Fulfilled {
		t.Fatalf("expected idle after fulfilment, got %s/%s", h.ctrl.State(), h.ctrl.LastOutcome())
	}
	if data, ok, _ := h.mem.Get(storage.HistoryKey); !ok || !strings.Contains(string(data), "What is ibuprofen?") {
		t.Fatalf("exchange should be persisted")
	}
}

func TestScenarioSecondSubmissionAppends(t *testing.T) {
	h := newHarness(t, summaryAnalyzer("reply"), 0)
	other := h.store.Create("older chat")
	h.ctrl.StartNewChat()
	first, _ := h.ctrl.Submit(context.Background(), Input{Text: "What is ibuprofen?"})
	before, _ := h.store.Get(first.SessionID)
	location := h.router.Location()
	depth := h.history.Len()

	_, _ = h.store.AppendExchange(other.ID, "bump", "bump")
	_ = h.store.SetActive(first.SessionID)

	res, err := h.ctrl.Submit(context.Background(), Input{Text: "And with coffee?"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.Created || res.SessionID != first.SessionID {
		t.Fatalf("expected append to active session, got %+v", res)
	}
	after, _ := h.store.Get(first.SessionID)
	if len(after.Messages) != len(before.Messages)+2 {
		t.Fatalf("expected two more messages, got %d -> %d", len(before.Messages), len(after.Messages))
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("updated_at did not advance")
	}
	if h.store.List()[0].ID != first.SessionID {
		t.Fatalf("session should move to front")
	}
	if h.router.Location() != location || h.history.Len() != depth {
		t.Fatalf("location should be unchanged, got %s", h.router.Location())
	}
}

func TestScenarioTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	h := newHarness(t, analysis.NewClient(srv.URL, nil, nil), 40*time.Millisecond)
	existing := h.store.Create("existing")
	h.ctrl.StartNewChat()
	snapshot := h.store.List()

	res, err := h.ctrl.Submit(context.Background(), Input{Text: "slow question"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.State != TimedOut || !errors.Is(res.Err, analysis.ErrTimeout) {
		t.Fatalf("expected timed-out result, got %+v", res)
	}
	if res.ClearInput {
		t.Fatalf("input should be kept after a failure by default")
	}
	if !h.ctrl.CanSubmit() {
		t.Fatalf("submission should be re-enabled")
	}
	if h.store.Len() != 1 {
		t.Fatalf("no session may be created on failure")
	}
	got, _ := h.store.Get(existing.ID)
	if len(got.Messages) != 0 || h.store.List()[0].UpdatedAt != snapshot[0].UpdatedAt {
		t.Fatalf("existing session must not be mutated")
	}

	entries := h.ctrl.Transient()
	if len(entries) != 2 || entries[0].Kind != EntryUnsent || entries[1].Kind != EntryError {
		t.Fatalf("expected unsent turn followed by inline error, got %+v", entries)
	}
	if !strings.HasPrefix(entries[1].Content, "Error: Request timed out") {
		t.Fatalf("unexpected error text %q", entries[1].Content)
	}
}

func TestStatusFailureAndClearInputOption(t *testing.T) {
	h := newHarness(t, analyzerFunc(func(ctx context.Context, p analysis.Payload) (analysis.Reply, error) {
		return analysis.Reply{}, &analysis.StatusError{Code: 500, Message: "Error processing input"}
	}), 0)
	h.ctrl.clearInputOnError = true

	res, _ := h.ctrl.Submit(context.Background(), Input{Text: "x"})
	if res.State != Failed || !res.ClearInput {
		t.Fatalf("unexpected result %+v", res)
	}
	entries := h.ctrl.Transient()
	want := "Error: HTTP error! status: 500, message: Error processing input. Please try again or check your connection."
	if entries[len(entries)-1].Content != want {
		t.Fatalf("unexpected error text %q", entries[len(entries)-1].Content)
	}
	if h.store.Len() != 0 {
		t.Fatalf("failure must not create sessions")
	}
}

func TestEmptySubmissionIsRejectedWithoutStateChange(t *testing.T) {
	called := false
	h := newHarness(t, analyzerFunc(func(ctx context.Context, p analysis.Payload) (analysis.Reply, error) {
		called = true
		return analysis.Reply{}, nil
	}), 0)

	_, err := h.ctrl.Begin(context.Background(), Input{Text: "   "})
	if !errors.Is(err, analysis.ErrEmptySubmission) {
		t.Fatalf("expected ErrEmptySubmission, got %v", err)
	}
	if h.ctrl.State() != Idle || len(h.ctrl.Transient()) != 0 || called {
		t.Fatalf("empty submission must be a no-op")
	}
}

func TestSinglePendingRequest(t *testing.T) {
	h := newHarness(t, summaryAnalyzer("ok"), 0)
	req, err := h.ctrl.Begin(context.Background(), Input{Text: "first"})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if h.ctrl.CanSubmit() {
		t.Fatalf("submission should be disabled while pending")
	}
	if entries := h.ctrl.Transient(); len(entries) != 1 || entries[0].Kind != EntryPending || entries[0].Content != "first" {
		t.Fatalf("expected optimistic pending entry, got %+v", entries)
	}
	if _, err := h.ctrl.Begin(context.Background(), Input{Text: "second"}); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}

	h.ctrl.Complete(req.Run())
	if !h.ctrl.CanSubmit() {
		t.Fatalf("submission should be re-enabled")
	}
	if res := h.ctrl.Complete(req.Run()); !res.Stale {
		t.Fatalf("second completion of the same request should be stale")
	}
}

func TestCancelIsTreatedAsFailure(t *testing.T) {
	h := newHarness(t, analyzerFunc(func(ctx context.Context, p analysis.Payload) (analysis.Reply, error) {
		<-ctx.Done()
		return analysis.Reply{}, fmt.Errorf("%w: %w", analysis.ErrNetwork, ctx.Err())
	}), time.Minute)

	req, _ := h.ctrl.Begin(context.Background(), Input{Text: "q"})
	h.ctrl.Cancel()
	res := h.ctrl.Complete(req.Run())
	if res.State != Failed {
		t.Fatalf("expected failed state after cancel, got %s", res.State)
	}
	entries := h.ctrl.Transient()
	if !strings.Contains(entries[len(entries)-1].Content, "cancelled") {
		t.Fatalf("unexpected error text %q", entries[len(entries)-1].Content)
	}
}

func TestServerIdentityAndTitle(t *testing.T) {
	h := newHarness(t, analyzerFunc(func(ctx context.Context, p analysis.Payload) (analysis.Reply, error) {
		return analysis.Reply{
			Summary:   "<p>No evidence.</p>",
			ChatID:    "srv-42",
			ChatTitle: "Turmeric claims",
			Sources:   analysis.Sources{FactChecks: nil},
		}, nil
	}), 0)

	res, _ := h.ctrl.Submit(context.Background(), Input{Text: "Does turmeric really cure cancer in humans"})
	if res.SessionID != "srv-42" {
		t.Fatalf("expected server id, got %q", res.SessionID)
	}
	sess, _ := h.store.Get("srv-42")
	if sess.Title != "Turmeric claims" {
		t.Fatalf("server title should win, got %q", sess.Title)
	}
}

func TestFileAndURLPayloads(t *testing.T) {
	var channels []analysis.Channel
	h := newHarness(t, analyzerFunc(func(ctx context.Context, p analysis.Payload) (analysis.Reply, error) {
		channels = append(channels, p.Channel)
		return analysis.Reply{Summary: "ok"}, nil
	}), 0)

	_, _ = h.ctrl.Submit(context.Background(), Input{Text: "ignored", File: &analysis.File{Name: "a.png"}})
	_, _ = h.ctrl.Submit(context.Background(), Input{Text: "https://x.test/a.png"})
	if len(channels) != 2 || channels[0] != analysis.ChannelFile || channels[1] != analysis.ChannelImageURL {
		t.Fatalf("unexpected channels %v", channels)
	}
	sess, _ := h.store.Get(h.store.List()[0].ID)
	if sess.Messages[0].Content != "Uploaded file: a.png" {
		t.Fatalf("unexpected user turn %q", sess.Messages[0].Content)
	}
}

func TestScenarioDeleteActiveSession(t *testing.T) {
	h := newHarness(t, summaryAnalyzer("ok"), 0)
	res, _ := h.ctrl.Submit(context.Background(), Input{Text: "What is ibuprofen?"})

	h.ctrl.DeleteSession(res.SessionID)
	if _, ok := h.store.Active(); ok {
		t.Fatalf("active pointer should be unset")
	}
	if h.router.Location() != router.RootPath {
		t.Fatalf("expected root location, got %s", h.router.Location())
	}
	if got := h.router.Resolve(); got.SessionID != "" {
		t.Fatalf("expected new-chat resolution, got %+v", got)
	}
}

func TestScenarioUnknownLocation(t *testing.T) {
	h := newHarness(t, summaryAnalyzer("ok"), 0)
	h.history.Push("/chat/unknown-id")

	res := h.router.Resolve()
	h.ctrl.Apply(res)
	if !res.Reset || h.router.Location() != router.RootPath {
		t.Fatalf("expected reset to root, got %+v at %s", res, h.router.Location())
	}
	if _, ok := h.store.Active(); ok {
		t.Fatalf("expected no active session")
	}
}

func TestBackNavigationAppliesResolution(t *testing.T) {
	h := newHarness(t, summaryAnalyzer("ok"), 0)
	h.router.OnNavigate(h.ctrl.Apply)

	a, _ := h.ctrl.Submit(context.Background(), Input{Text: "first chat"})
	h.ctrl.StartNewChat()
	b, _ := h.ctrl.Submit(context.Background(), Input{Text: "second chat"})
	if err := h.ctrl.Open(a.SessionID); err != nil {
		t.Fatalf("open: %v", err)
	}

	h.router.Back()
	if active, _ := h.store.Active(); active != b.SessionID {
		t.Fatalf("expected back to land on %s, got %s", b.SessionID, active)
	}
	h.router.Back()
	if active, ok := h.store.Active(); ok {
		t.Fatalf("expected the new-chat screen, got %s", active)
	}
	h.router.Forward()
	h.router.Forward()
	if active, _ := h.store.Active(); active != a.SessionID {
		t.Fatalf("expected forward to land on %s, got %s", a.SessionID, active)
	}
}

func TestTransientEntriesStayWithTheirSession(t *testing.T) {
	fail := false
	h := newHarness(t, analyzerFunc(func(ctx context.Context, p analysis.Payload) (analysis.Reply, error) {
		if fail {
			return analysis.Reply{}, errors.New("boom")
		}
		return analysis.Reply{Summary: "ok"}, nil
	}), 0)

	x, _ := h.ctrl.Submit(context.Background(), Input{Text: "chat x"})
	h.ctrl.StartNewChat()
	y, _ := h.ctrl.Submit(context.Background(), Input{Text: "chat y"})
	if err := h.ctrl.Open(x.SessionID); err != nil {
		t.Fatalf("open x: %v", err)
	}

	fail = true
	req, err := h.ctrl.Begin(context.Background(), Input{Text: "question for x"})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := h.ctrl.Open(y.SessionID); err != nil {
		t.Fatalf("open y: %v", err)
	}
	if entries := h.ctrl.Transient(); len(entries) != 0 {
		t.Fatalf("pending turn of x must not show in y, got %+v", entries)
	}

	h.ctrl.Complete(req.Run())
	if entries := h.ctrl.Transient(); len(entries) != 0 {
		t.Fatalf("failure of x must not show in y, got %+v", entries)
	}
	if got, _ := h.store.Get(y.SessionID); len(got.Messages) != 2 {
		t.Fatalf("y must be untouched, got %d messages", len(got.Messages))
	}

	if err := h.ctrl.Open(x.SessionID); err != nil {
		t.Fatalf("reopen x: %v", err)
	}
	entries := h.ctrl.Transient()
	if len(entries) != 2 || entries[0].Kind != EntryUnsent || entries[0].Content != "question for x" || entries[1].Kind != EntryError {
		t.Fatalf("expected x's failed turn back in x, got %+v", entries)
	}

	h.ctrl.StartNewChat()
	if entries := h.ctrl.Transient(); len(entries) != 0 {
		t.Fatalf("new-chat screen should be empty, got %+v", entries)
	}
	if err := h.ctrl.Open(x.SessionID); err != nil {
		t.Fatalf("open x again: %v", err)
	}
	if entries := h.ctrl.Transient(); len(entries) != 0 {
		t.Fatalf("settled entries are dropped once x is left, got %+v", entries)
	}
}
