package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"veriguard/internal/analysis"
	"veriguard/internal/chat"
	"veriguard/internal/clipboard"
	"veriguard/internal/config"
	"veriguard/internal/export"
	"veriguard/internal/lifecycle"
	"veriguard/internal/logger"
	"veriguard/internal/router"
	"veriguard/internal/view"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type focusArea int

const (
	focusInput focusArea = iota
	focusList
	focusConversation
)

// Deps are the collaborators the model drives. Store, Router and Controller
// must share the same session store.
type Deps struct {
	Config     config.AppConfig
	Store      *chat.Store
	Router     *router.Router
	Controller *lifecycle.Controller
	Exporter   *export.Exporter
	Formatter  view.Formatter
	Logger     *slog.Logger
	// Copy defaults to clipboard.Copy.
	Copy func(ctx context.Context, text string) error
	Now  func() time.Time
}

// changes collects store and router notifications. They fire synchronously
// inside Update and are folded into the view before Update returns.
type changes struct {
	store     bool
	navigated bool
}

type Model struct {
	cfg       config.AppConfig
	store     *chat.Store
	router    *router.Router
	ctrl      *lifecycle.Controller
	exporter  *export.Exporter
	formatter view.Formatter
	copy      func(ctx context.Context, text string) error
	now       func() time.Time
	log       *slog.Logger
	changes   *changes

	list     list.Model
	viewport viewport.Model
	help     help.Model
	spinner  spinner.Model
	input    textinput.Model
	search   textinput.Model
	attach   textinput.Model
	keys     keyMap

	width  int
	height int

	focus       focusArea
	searchMode  bool
	attachMode  bool
	searchQuery string
	attached    *analysis.File
	rendering   bool
	renderNonce int

	rendered    map[string]view.Page
	highlighted map[string]view.Matches
	matchHits   []view.Hit
	matchCount  int
	matchIndex  int

	status string
	err    error
}

type outcomeMsg struct {
	outcome lifecycle.Outcome
}
type renderMsg struct {
	cacheKey string
	page     view.Page
	nonce    int
	err      error
}
type exportMsg struct {
	path string
	err  error
}
type copyMsg struct {
	err error
}

func NewModel(d Deps) Model {
	ch := &changes{}
	store := d.Store

	l := list.New([]list.Item{}, sessionDelegate{activeID: func() string {
		id, _ := store.Active()
		return id
	}}, 40, 20)
	l.Title = "Chats"
	l.SetShowFilter(false)
	l.SetFilteringEnabled(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()

	vp := viewport.New(60, 20)

	h := help.New()
	h.ShowAll = false

	sp := spinner.New()
	sp.Spinner = spinner.Points

	in := textinput.New()
	in.Placeholder = "Ask about a health claim, or paste an image URL..."
	in.Prompt = "> "
	in.CharLimit = 4000
	in.Focus()

	search := textinput.New()
	search.Placeholder = "Search chats..."
	search.Prompt = "/ "
	search.CharLimit = 256

	attach := textinput.New()
	attach.Placeholder = "path to an image or document"
	attach.Prompt = "attach: "
	attach.CharLimit = 1024

	formatter := d.Formatter
	if formatter == nil {
		formatter = view.NewGlamour(d.Config.GlamourStyle)
	}
	cp := d.Copy
	if cp == nil {
		cp = clipboard.Copy
	}
	now := d.Now
	if now == nil {
		now = time.Now
	}

	m := Model{
		cfg:       d.Config,
		store:     store,
		router:    d.Router,
		ctrl:      d.Controller,
		exporter:  d.Exporter,
		formatter: formatter,
		copy:      cp,
		now:       now,
		log:       logger.OrDiscard(d.Logger),
		changes:   ch,

		list:     l,
		viewport: vp,
		help:     h,
		spinner:  sp,
		input:    in,
		search:   search,
		attach:   attach,
		keys:     defaultKeys(),

		rendered:    make(map[string]view.Page),
		highlighted: make(map[string]view.Matches),
		matchIndex:  -1,
	}

	store.Subscribe(func(chat.Event) { ch.store = true })
	ctrl := d.Controller
	d.Router.OnNavigate(func(res router.Resolution) {
		ctrl.Apply(res)
		ch.navigated = true
	})

	m.applySessions()
	m.refreshKeys()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func requestCmd(req *lifecycle.Request) tea.Cmd {
	return func() tea.Msg {
		return outcomeMsg{outcome: req.Run()}
	}
}

func (m Model) exportCmd() tea.Cmd {
	sess, ok := m.activeSession()
	if !ok || m.exporter == nil {
		return nil
	}
	exp := m.exporter
	return func() tea.Msg {
		path, err := exp.Export(sess)
		return exportMsg{path: path, err: err}
	}
}

func (m Model) copyCmd() tea.Cmd {
	sess, ok := m.activeSession()
	if !ok {
		return nil
	}
	text, ok := export.ReplyText(sess)
	if !ok {
		return nil
	}
	cp := m.copy
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return copyMsg{err: cp(ctx, text)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	rerender := false

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		rerender = true

	case outcomeMsg:
		res := m.ctrl.Complete(msg.outcome)
		if res.Stale {
			break
		}
		m.applyResult(res)
		rerender = true

	case renderMsg:
		if msg.nonce != m.renderNonce {
			break
		}
		m.rendering = false
		if msg.err != nil {
			m.log.Warn("conversation rendered with fallbacks", "err", msg.err)
			m.status = "Some replies are shown as plain text"
		}
		m.rendered[msg.cacheKey] = msg.page
		m.setViewportFromRendered(msg.cacheKey, msg.page, true)

	case exportMsg:
		if msg.err != nil {
			m.err = msg.err
			m.status = "Export failed: " + msg.err.Error()
		} else {
			m.status = "Exported: " + msg.path
		}

	case copyMsg:
		if msg.err != nil {
			m.err = msg.err
			if errors.Is(msg.err, clipboard.ErrToolNotFound) {
				m.status = "Could not copy: clipboard tool not found"
			} else {
				m.status = "Could not copy: " + msg.err.Error()
			}
		} else {
			m.status = "Copied reply to clipboard"
		}

	case tea.KeyMsg:
		cmd, quit := m.handleKey(msg)
		if quit {
			return m, tea.Quit
		}
		cmds = append(cmds, cmd)
	}

	if m.changes.store {
		m.applySessions()
	}
	if rerender || m.changes.store || m.changes.navigated {
		cmds = append(cmds, m.renderConversation())
	}
	m.changes.store, m.changes.navigated = false, false

	if m.ctrl.State() == lifecycle.Pending {
		var spin tea.Cmd
		m.spinner, spin = m.spinner.Update(msg)
		cmds = append(cmds, spin)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.attachMode {
		return m.handleAttachKey(msg), false
	}
	if m.searchMode {
		return m.handleSearchKey(msg), false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.ctrl.Cancel()
		return nil, true
	case key.Matches(msg, m.keys.Cancel):
		m.ctrl.Cancel()
		m.status = "Cancelling..."
		return nil, false
	case key.Matches(msg, m.keys.NewChat):
		m.ctrl.StartNewChat()
		m.changes.navigated = true
		m.status = "New chat"
		return m.setFocus(focusInput), false
	case key.Matches(msg, m.keys.Back):
		if !m.router.Back() {
			m.status = "No earlier location"
		}
		return nil, false
	case key.Matches(msg, m.keys.Forward):
		if !m.router.Forward() {
			m.status = "No later location"
		}
		return nil, false
	case key.Matches(msg, m.keys.Delete):
		m.deleteSelected()
		return nil, false
	case key.Matches(msg, m.keys.Attach):
		m.attachMode = true
		m.attach.SetValue("")
		return m.attach.Focus(), false
	case key.Matches(msg, m.keys.Tab):
		return m.setFocus((m.focus + 1) % 3), false
	}

	switch m.focus {
	case focusInput:
		if key.Matches(msg, m.keys.Submit) {
			return m.submit(), false
		}
		if msg.Type == tea.KeyEnter {
			m.status = "Waiting for the current request to finish"
			return nil, false
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd, false

	case focusList:
		switch {
		case key.Matches(msg, m.keys.Open):
			m.openSelected()
			return nil, false
		case key.Matches(msg, m.keys.Search):
			return m.startSearch(), false
		case key.Matches(msg, m.keys.Export):
			return m.exportCmd(), false
		case key.Matches(msg, m.keys.Copy):
			return m.copyCmd(), false
		}
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd, false
	}

	switch {
	case key.Matches(msg, m.keys.Search):
		return m.startSearch(), false
	case key.Matches(msg, m.keys.Export):
		return m.exportCmd(), false
	case key.Matches(msg, m.keys.Copy):
		return m.copyCmd(), false
	case key.Matches(msg, m.keys.NextMatch):
		if strings.TrimSpace(m.searchQuery) != "" {
			m.jumpToMatch(1)
		}
	case key.Matches(msg, m.keys.PrevMatch):
		if strings.TrimSpace(m.searchQuery) != "" {
			m.jumpToMatch(-1)
		}
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
	case key.Matches(msg, m.keys.Up):
		m.viewport.LineUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.LineDown(1)
	}
	return nil, false
}

func (m *Model) handleAttachKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.attachMode = false
		m.attach.Blur()
		return nil
	case tea.KeyEnter:
		m.attachMode = false
		m.attach.Blur()
		path := strings.TrimSpace(m.attach.Value())
		if path == "" {
			m.attached = nil
			m.status = "Attachment removed"
			return nil
		}
		f, err := analysis.FileFromPath(path)
		if err != nil {
			m.err = err
			m.status = "Could not attach file"
			return nil
		}
		m.attached = f
		m.status = "Attached " + f.Name
		return m.setFocus(focusInput)
	}
	var cmd tea.Cmd
	m.attach, cmd = m.attach.Update(msg)
	return cmd
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.searchMode = false
		m.searchQuery = ""
		m.search.SetValue("")
		m.search.Blur()
		m.applySessions()
		m.refreshViewportFromCache()
		return nil
	case tea.KeyEnter:
		m.searchMode = false
		m.search.Blur()
		m.searchQuery = strings.TrimSpace(m.search.Value())
		m.applySessions()
		m.refreshViewportFromCache()
		return nil
	}
	before := strings.TrimSpace(m.search.Value())
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if after := strings.TrimSpace(m.search.Value()); after != before {
		m.searchQuery = after
		m.applySessions()
		m.refreshViewportFromCache()
	}
	return cmd
}

func (m *Model) startSearch() tea.Cmd {
	m.searchMode = true
	m.search.SetValue(m.searchQuery)
	m.search.CursorEnd()
	return m.search.Focus()
}

func (m *Model) setFocus(f focusArea) tea.Cmd {
	m.focus = f
	if f == focusInput {
		return m.input.Focus()
	}
	m.input.Blur()
	return nil
}

func (m *Model) submit() tea.Cmd {
	req, err := m.ctrl.Begin(context.Background(), lifecycle.Input{
		Text: m.input.Value(),
		File: m.attached,
	})
	switch {
	case errors.Is(err, analysis.ErrEmptySubmission):
		m.status = "Type a question, paste an image URL, or attach a file"
		return nil
	case errors.Is(err, lifecycle.ErrBusy):
		m.status = "Waiting for the current request to finish"
		return nil
	case err != nil:
		m.err = err
		m.status = "Could not submit: " + err.Error()
		return nil
	}
	m.err = nil
	m.status = "Analyzing..."
	m.refreshKeys()
	return tea.Batch(requestCmd(req), m.spinner.Tick, m.renderConversation())
}

func (m *Model) applyResult(res lifecycle.Result) {
	if res.ClearInput {
		m.input.SetValue("")
		m.attached = nil
	}
	switch res.State {
	case lifecycle.Fulfilled:
		m.status = "Reply received"
	case lifecycle.TimedOut:
		m.status = "Request timed out"
	default:
		m.status = "Request failed"
	}
	m.refreshKeys()
}

func (m *Model) refreshKeys() {
	m.keys.Submit.SetEnabled(m.ctrl.CanSubmit())
	m.keys.Cancel.SetEnabled(!m.ctrl.CanSubmit())
}

func (m *Model) deleteSelected() {
	id := ""
	if m.focus == focusList {
		id = m.currentSelectedID()
	}
	if id == "" {
		id, _ = m.store.Active()
	}
	if id == "" {
		m.status = "No chat selected"
		return
	}
	m.ctrl.DeleteSession(id)
	m.status = "Deleted chat"
}

func (m *Model) openSelected() {
	id := m.currentSelectedID()
	if id == "" {
		return
	}
	if err := m.ctrl.Open(id); err != nil {
		m.err = err
		m.status = "Could not open chat"
		return
	}
	m.status = ""
}

func (m *Model) applySessions() {
	var summaries []chat.Summary
	if q := strings.TrimSpace(m.searchQuery); q != "" {
		summaries = m.store.Search(q)
	} else {
		summaries = m.store.List()
	}
	prev := m.currentSelectedID()
	items := sessionItems(chat.GroupByDay(summaries, m.now()))
	m.list.SetItems(items)
	if len(items) == 0 {
		return
	}

	want := prev
	if want == "" {
		want, _ = m.store.Active()
	}
	selectIdx := 0
	for idx, it := range items {
		if it.(sessionItem).s.ID == want {
			selectIdx = idx
			break
		}
	}
	m.list.Select(selectIdx)
}

func (m *Model) currentSelectedID() string {
	item, ok := m.list.SelectedItem().(sessionItem)
	if !ok {
		return ""
	}
	return item.s.ID
}

func (m Model) activeSession() (chat.Session, bool) {
	id, ok := m.store.Active()
	if !ok {
		return chat.Session{}, false
	}
	return m.store.Get(id)
}

// renderConversation projects the active session and the controller's
// transient entries. Formatting runs off the loop; renderNonce drops results
// that a later render has superseded.
func (m *Model) renderConversation() tea.Cmd {
	var sess *chat.Session
	if s, ok := m.activeSession(); ok {
		sess = &s
	}
	entries := view.Project(sess, m.ctrl.Transient())

	cacheKey := m.renderCacheKey(sess, entries)
	if page, ok := m.rendered[cacheKey]; ok {
		m.renderNonce++
		m.rendering = false
		m.setViewportFromRendered(cacheKey, page, true)
		return nil
	}

	m.rendering = true
	m.renderNonce++
	nonce := m.renderNonce
	wrap := m.viewport.Width - 2
	if wrap < 20 {
		wrap = 20
	}
	f := m.formatter
	return func() tea.Msg {
		page, err := view.Document(entries, f, wrap)
		return renderMsg{cacheKey: cacheKey, page: page, nonce: nonce, err: err}
	}
}

func (m Model) renderCacheKey(sess *chat.Session, entries []view.Entry) string {
	var b strings.Builder
	if sess != nil {
		fmt.Fprintf(&b, "%s|u=%d|n=%d", sess.ID, sess.UpdatedAt.UnixNano(), len(sess.Messages))
	}
	fmt.Fprintf(&b, "|w=%d", m.viewport.Width)
	for _, e := range entries[lenStored(sess):] {
		fmt.Fprintf(&b, "|%d:%d:%s", e.Kind, len(e.Content), e.Content[:min(len(e.Content), 16)])
	}
	return b.String()
}

func lenStored(sess *chat.Session) int {
	if sess == nil {
		return 0
	}
	return len(sess.Messages)
}

func (m Model) highlightCacheKey(cacheKey, query string) string {
	return cacheKey + "|q=" + strings.ToLower(strings.TrimSpace(query))
}

func (m *Model) refreshViewportFromCache() {
	var sess *chat.Session
	if s, ok := m.activeSession(); ok {
		sess = &s
	}
	cacheKey := m.renderCacheKey(sess, view.Project(sess, m.ctrl.Transient()))
	page, ok := m.rendered[cacheKey]
	if !ok {
		return
	}
	oldOffset := m.viewport.YOffset
	m.setViewportFromRendered(cacheKey, page, false)
	m.viewport.SetYOffset(m.clampViewportOffset(oldOffset))
}

func (m *Model) setViewportFromRendered(cacheKey string, page view.Page, gotoEnd bool) {
	content := page.Text
	query := strings.TrimSpace(m.searchQuery)
	if query != "" {
		hKey := m.highlightCacheKey(cacheKey, query)
		res, ok := m.highlighted[hKey]
		if !ok {
			res = view.Highlight(page, query, func(s string) string {
				return searchMatchStyle.Render(s)
			})
			m.highlighted[hKey] = res
		}
		content = res.Text
		m.setMatchMeta(res)
	} else {
		m.clearMatches()
	}

	m.viewport.SetContent(content)
	if gotoEnd {
		m.viewport.GotoBottom()
		if len(m.matchHits) > 0 {
			m.matchIndex = 0
			m.viewport.SetYOffset(m.clampViewportOffset(m.matchHits[0].Line))
		}
	}
}

func (m *Model) setMatchMeta(res view.Matches) {
	if res.Count == 0 || len(res.Hits) == 0 {
		m.clearMatches()
		return
	}
	m.matchCount = res.Count
	m.matchHits = append(m.matchHits[:0], res.Hits...)
	if m.matchIndex < 0 || m.matchIndex >= len(m.matchHits) {
		m.matchIndex = 0
	}
}

func (m *Model) clearMatches() {
	m.matchHits = nil
	m.matchCount = 0
	m.matchIndex = -1
}

func (m *Model) jumpToMatch(delta int) {
	if len(m.matchHits) == 0 {
		m.status = "No search matches in this chat"
		return
	}

	if m.matchIndex < 0 || m.matchIndex >= len(m.matchHits) {
		m.matchIndex = 0
	} else if delta > 0 {
		m.matchIndex = (m.matchIndex + 1) % len(m.matchHits)
	} else if delta < 0 {
		m.matchIndex = (m.matchIndex - 1 + len(m.matchHits)) % len(m.matchHits)
	}

	hit := m.matchHits[m.matchIndex]
	m.viewport.SetYOffset(m.clampViewportOffset(hit.Line))
	m.status = fmt.Sprintf("Match %d/%d", m.matchIndex+1, len(m.matchHits))
	if hit.Label != "" {
		m.status += " in " + hit.Label
	}
}

func (m *Model) clampViewportOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	maxOffset := m.viewport.TotalLineCount() - m.viewport.Height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if offset > maxOffset {
		return maxOffset
	}
	return offset
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	left, right := m.paneWidths()

	bodyHeight := m.height - 2
	if bodyHeight < 10 {
		bodyHeight = 10
	}

	m.list.SetSize(left-2, bodyHeight-2)
	m.viewport.Width = right - 2
	// Two rows below the conversation: a rule and the input line.
	m.viewport.Height = bodyHeight - 4
	m.input.Width = right - 8
	m.attach.Width = right - 12
}

func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Starting..."
	}

	left, right := m.paneWidths()
	leftPane := panelStyle(m.focus == focusList).Width(left).Height(m.height - 2).Render(m.list.View())
	conversation := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		ruleStyle.Render(strings.Repeat("─", max(right-4, 1))),
		m.inputLine(),
	)
	rightPane := panelStyle(m.focus != focusList).Width(right).Height(m.height - 2).Render(conversation)
	body := lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane)

	helpView := m.help.View(m.keys)
	if m.searchMode {
		helpView = m.search.View() + "  " + helpView
	} else if m.searchQuery != "" {
		helpView = "search: " + m.searchQuery + "  " + helpView
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statusLine(),
		body,
		helpView,
	)
}

func (m Model) inputLine() string {
	if m.attachMode {
		return m.attach.View()
	}
	line := m.input.View()
	if m.attached != nil {
		line = attachedStyle.Render("[file: "+m.attached.Name+"]") + " " + line
	}
	if m.ctrl.State() == lifecycle.Pending {
		line = m.spinner.View() + " " + line
	}
	return line
}

func (m Model) statusLine() string {
	status := "new chat"
	if sess, ok := m.activeSession(); ok {
		status = fmt.Sprintf("chat=%s  messages=%d", shorten(sess.Title, 32), len(sess.Messages))
	}
	status += "  loc=" + m.router.Location()
	if m.ctrl.State() == lifecycle.Pending {
		status += "  [pending]"
	}
	if m.searchQuery != "" || m.searchMode {
		status += "  [search]"
		if strings.TrimSpace(m.searchQuery) != "" {
			if m.matchCount > 0 {
				cur := m.matchIndex + 1
				if cur < 1 {
					cur = 1
				}
				status += fmt.Sprintf("  [line %d/%d, %d matches]", cur, len(m.matchHits), m.matchCount)
			} else {
				status += "  [match 0]"
			}
		}
	}
	if m.rendering {
		status += "  [rendering]"
	}
	if strings.TrimSpace(m.status) != "" {
		status += "  " + shorten(strings.TrimSpace(m.status), 80)
	}
	if m.err != nil {
		status += "  err=" + shorten(m.err.Error(), 60)
	}
	return statusStyle.Render(status)
}

func (m *Model) paneWidths() (int, int) {
	left := m.width / 3
	if left < 32 {
		left = 32
	}
	if left > m.width-32 {
		left = m.width - 32
	}
	if left < 20 {
		left = 20
	}
	right := m.width - left - 1
	if right < 20 {
		right = 20
	}
	return left, right
}

func shorten(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("24")).
			Padding(0, 1)
	searchMatchStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("16")).
				Background(lipgloss.Color("220"))
	ruleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	attachedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("178"))
)

func panelStyle(active bool) lipgloss.Style {
	border := lipgloss.NormalBorder()
	if active {
		return lipgloss.NewStyle().
			Border(border, true).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 1)
	}
	return lipgloss.NewStyle().
		Border(border, true).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)
}

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Tab       key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	PrevMatch key.Binding
	NextMatch key.Binding
	Search    key.Binding
	Submit    key.Binding
	Open      key.Binding
	NewChat   key.Binding
	Delete    key.Binding
	Back      key.Binding
	Forward   key.Binding
	Attach    key.Binding
	Export    key.Binding
	Copy      key.Binding
	Cancel    key.Binding
	Quit      key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "switch focus"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "b"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "f"),
			key.WithHelp("pgdn", "page down"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "prev match"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "next match"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open chat"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "new chat"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "delete chat"),
		),
		Back: key.NewBinding(
			key.WithKeys("alt+left"),
			key.WithHelp("alt+←", "back"),
		),
		Forward: key.NewBinding(
			key.WithKeys("alt+right"),
			key.WithHelp("alt+→", "forward"),
		),
		Attach: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "attach file"),
		),
		Export: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "export markdown"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy reply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel request"),
			key.WithDisabled(),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Tab, k.NewChat, k.Back, k.Forward, k.Attach, k.Search, k.Copy, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Tab, k.PageUp, k.PageDown},
		{k.Submit, k.Open, k.NewChat, k.Delete, k.Back, k.Forward, k.Attach},
		{k.Search, k.NextMatch, k.PrevMatch, k.Export, k.Copy, k.Cancel, k.Quit},
	}
}
