package router

// History is the navigable location stack. Listeners registered with Listen
// only hear Back and Forward moves, never Push or Replace.
type History interface {
	Current() string
	Push(path string)
	Replace(path string)
	Back() bool
	Forward() bool
	CanGoBack() bool
	CanGoForward() bool
	Listen(fn func(path string))
}

// MemoryHistory is an in-process History. onChange, when set, sees every
// location change and is used to remember the location across restarts.
type MemoryHistory struct {
	entries   []string
	cursor    int
	listeners []func(string)
	onChange  func(string)
}

func NewHistory(initial string, onChange func(string)) *MemoryHistory {
	if initial == "" {
		initial = RootPath
	}
	return &MemoryHistory{entries: []string{initial}, onChange: onChange}
}

func (h *MemoryHistory) Current() string {
	return h.entries[h.cursor]
}

func (h *MemoryHistory) Push(path string) {
	h.entries = append(h.entries[:h.cursor+1], path)
	h.cursor++
	h.changed()
}

func (h *MemoryHistory) Replace(path string) {
	h.entries[h.cursor] = path
	h.changed()
}

func (h *MemoryHistory) Back() bool {
	if !h.CanGoBack() {
		return false
	}
	h.cursor--
	h.changed()
	h.pop()
	return true
}

func (h *MemoryHistory) Forward() bool {
	if !h.CanGoForward() {
		return false
	}
	h.cursor++
	h.changed()
	h.pop()
	return true
}

func (h *MemoryHistory) CanGoBack() bool {
	return h.cursor > 0
}

func (h *MemoryHistory) CanGoForward() bool {
	return h.cursor < len(h.entries)-1
}

func (h *MemoryHistory) Listen(fn func(string)) {
	h.listeners = append(h.listeners, fn)
}

// Len is the number of entries in the stack.
func (h *MemoryHistory) Len() int {
	return len(h.entries)
}

func (h *MemoryHistory) changed() {
	if h.onChange != nil {
		h.onChange(h.Current())
	}
}

func (h *MemoryHistory) pop() {
	cur := h.Current()
	for _, fn := range h.listeners {
		fn(cur)
	}
}
