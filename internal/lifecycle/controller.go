// Package lifecycle drives one analysis request at a time from submission to
// a stored exchange or an inline error.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"veriguard/internal/analysis"
	"veriguard/internal/chat"
	"veriguard/internal/logger"
)

const DefaultTimeout = 25 * time.Second

var ErrBusy = errors.New("a request is already pending")

type State int

const (
	Idle State = iota
	Pending
	Fulfilled
	Failed
	TimedOut
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Fulfilled:
		return "fulfilled"
	case Failed:
		return "failed"
	case TimedOut:
		return "timed-out"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Analyzer interface {
	Analyze(ctx context.Context, p analysis.Payload) (analysis.Reply, error)
}

// Navigator is the part of the router the controller drives.
type Navigator interface {
	NavigateToSession(id string)
	NavigateToRoot()
}

type Input struct {
	Text string
	File *analysis.File
}

type Options struct {
	Store    *chat.Store
	Router   Navigator
	Analyzer Analyzer
	Timeout  time.Duration
	// ClearInputOnError clears the input box after a failed request too.
	// By default the text is kept so it can be resubmitted.
	ClearInputOnError bool
	Logger            *slog.Logger
	Now               func() time.Time
}

type Controller struct {
	store             *chat.Store
	router            Navigator
	analyzer          Analyzer
	timeout           time.Duration
	clearInputOnError bool
	log               *slog.Logger
	now               func() time.Time

	state     State
	last      State
	current   *Request
	nextID    int
	transient []Entry
}

func New(opts Options) *Controller {
	c := &Controller{
		store:             opts.Store,
		router:            opts.Router,
		analyzer:          opts.Analyzer,
		timeout:           opts.Timeout,
		clearInputOnError: opts.ClearInputOnError,
		log:               logger.OrDiscard(opts.Logger),
		now:               opts.Now,
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	return c
}

// Request is one in-flight submission. Run is the only part that blocks and
// may be called off the event loop; everything else stays on it.
type Request struct {
	id        int
	payload   analysis.Payload
	userText  string
	sessionID string
	timeout   time.Duration
	analyzer  Analyzer
	ctx       context.Context
	cancel    context.CancelFunc
}

type Outcome struct {
	requestID int
	Reply     analysis.Reply
	Err       error
}

type Result struct {
	State     State
	SessionID string
	Created   bool
	// ClearInput tells the view whether to empty the input box.
	ClearInput bool
	Err        error
	// Stale is set for outcomes of a request that is no longer current.
	Stale bool
}

func (c *Controller) State() State {
	return c.state
}

// LastOutcome is the terminal state of the most recent completed request.
func (c *Controller) LastOutcome() State {
	return c.last
}

func (c *Controller) CanSubmit() bool {
	return c.state != Pending
}

func (c *Controller) Timeout() time.Duration {
	return c.timeout
}

// Begin validates the input, moves to Pending, and shows the pending user
// turn. The request's timeout starts now.
func (c *Controller) Begin(ctx context.Context, in Input) (*Request, error) {
	if c.state == Pending {
		return nil, ErrBusy
	}
	payload, err := analysis.SelectPayload(in.Text, in.File)
	if err != nil {
		return nil, err
	}

	c.nextID++
	activeID, _ := c.store.Active()
	req := &Request{
		id:        c.nextID,
		payload:   payload,
		userText:  payload.Describe(),
		sessionID: activeID,
		timeout:   c.timeout,
		analyzer:  c.analyzer,
	}
	req.ctx, req.cancel = context.WithTimeout(ctx, c.timeout)

	c.state = Pending
	c.current = req
	c.transient = append(c.transient, Entry{
		Kind:      EntryPending,
		Role:      chat.RoleUser,
		Content:   req.userText,
		CreatedAt: c.now(),
		SessionID: activeID,
	})
	c.log.Info("request pending", "request", req.id, "channel", payload.Channel, "session", activeID)
	return req, nil
}

// Run performs the network call. A timeout or Cancel surfaces as an error
// in the outcome like any other failure.
func (r *Request) Run() Outcome {
	defer r.cancel()
	reply, err := r.analyzer.Analyze(r.ctx, r.payload)
	return Outcome{requestID: r.id, Reply: reply, Err: err}
}

// Cancel aborts the request.
func (r *Request) Cancel() {
	r.cancel()
}

func (r *Request) Payload() analysis.Payload {
	return r.payload
}

// Cancel aborts the pending request, if any.
func (c *Controller) Cancel() {
	if c.current != nil {
		c.current.Cancel()
	}
}

// Complete applies an outcome: on success the exchange is stored (creating
// the session when none was active), on failure an inline error is shown and
// no session is touched. The controller is Idle afterwards either way.
func (c *Controller) Complete(o Outcome) Result {
	req := c.current
	if req == nil || o.requestID != req.id {
		c.log.Debug("dropping stale outcome", "request", o.requestID)
		return Result{State: c.state, Stale: true}
	}
	c.current = nil
	c.state = Idle

	if o.Err != nil {
		return c.fail(req, o.Err)
	}
	return c.fulfill(req, o.Reply)
}

func (c *Controller) fulfill(req *Request, reply analysis.Reply) Result {
	sessionID := req.sessionID
	created := false
	if _, ok := c.store.Get(sessionID); !ok {
		sess := c.store.Create(req.userText,
			chat.WithID(reply.ChatID),
			chat.WithServerTitle(reply.ChatTitle),
		)
		sessionID = sess.ID
		created = true
	}

	opts := []chat.MessageOption{}
	if len(reply.Sources.PubMed) > 0 || len(reply.Sources.FactChecks) > 0 {
		opts = append(opts, chat.WithSources(chat.Sources{
			PubMed:     reply.Sources.PubMed,
			FactChecks: reply.Sources.FactChecks,
		}))
	}
	if _, err := c.store.AppendExchange(sessionID, req.userText, reply.Content(), opts...); err != nil {
		// The session was resolved or created just above on this loop.
		c.log.Error("append exchange failed", "session", sessionID, "err", err)
		return c.fail(req, err)
	}

	if created {
		c.router.NavigateToSession(sessionID)
	}
	// The stored exchange replaces the pending turn and any earlier errors.
	c.forget(req.sessionID)
	c.last = Fulfilled
	c.log.Info("request fulfilled", "request", req.id, "session", sessionID, "created", created)
	return Result{State: Fulfilled, SessionID: sessionID, Created: created, ClearInput: true}
}

func (c *Controller) fail(req *Request, err error) Result {
	state := Failed
	if errors.Is(err, analysis.ErrTimeout) {
		state = TimedOut
	}
	c.markPendingUnsent(req.sessionID)
	c.transient = append(c.transient, Entry{
		Kind:      EntryError,
		Role:      chat.RoleAssistant,
		Content:   ErrorText(err, req.timeout),
		CreatedAt: c.now(),
		SessionID: req.sessionID,
	})
	c.last = state
	c.log.Warn("request failed", "request", req.id, "state", state, "err", err)
	return Result{State: state, SessionID: req.sessionID, ClearInput: c.clearInputOnError, Err: err}
}

// Submit runs a whole request synchronously.
func (c *Controller) Submit(ctx context.Context, in Input) (Result, error) {
	req, err := c.Begin(ctx, in)
	if err != nil {
		return Result{State: c.state}, err
	}
	return c.Complete(req.Run()), nil
}

// ErrorText is the inline message shown for a failed request.
func ErrorText(err error, timeout time.Duration) string {
	var msg string
	var serr *analysis.StatusError
	switch {
	case errors.Is(err, analysis.ErrTimeout):
		msg = fmt.Sprintf("Request timed out after %s", timeout)
	case errors.As(err, &serr):
		msg = serr.Error()
	case errors.Is(err, context.Canceled):
		msg = "Request was cancelled"
	default:
		msg = err.Error()
	}
	return "Error: " + msg + ". Please try again or check your connection."
}
