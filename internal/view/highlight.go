package view

import (
	"regexp"
	"strings"
)

var escapeSeq = regexp.MustCompile(`\x1b\[[0-?]*[ -/]*[@-~]`)

// Hit is a line of a page with at least one match.
type Hit struct {
	Line  int
	Count int
	// Entry indexes Page.Anchors, -1 when the line precedes every entry.
	Entry int
	Label string
}

// Matches is a page with a query highlighted.
type Matches struct {
	Text  string
	Count int
	Hits  []Hit
}

// Highlight wraps case-insensitive occurrences of query in page with mark
// and reports which conversation entry each matching line belongs to.
// Matching runs on the visible text, so a word styled halfway through is
// still found; each visible run of a match is marked separately and escape
// sequences pass through unchanged.
func Highlight(page Page, query string, mark func(string) string) Matches {
	q := strings.TrimSpace(query)
	if q == "" {
		return Matches{Text: page.Text}
	}
	if mark == nil {
		mark = func(s string) string { return s }
	}

	lines := strings.Split(page.Text, "\n")
	var res Matches
	for i, line := range lines {
		out, n := highlightLine(line, q, mark)
		if n == 0 {
			continue
		}
		lines[i] = out
		hit := Hit{Line: i, Count: n, Entry: page.EntryAt(i)}
		if hit.Entry >= 0 {
			hit.Label = page.Anchors[hit.Entry].Label
		}
		res.Count += n
		res.Hits = append(res.Hits, hit)
	}
	res.Text = strings.Join(lines, "\n")
	return res
}

func highlightLine(line, q string, mark func(string) string) (string, int) {
	spans := foldedSpans(escapeSeq.ReplaceAllString(line, ""), q)
	if len(spans) == 0 {
		return line, 0
	}

	var b strings.Builder
	// markRun writes a visible run that starts at plain offset at.
	markRun := func(run string, at int) {
		end, cur := at+len(run), at
		for _, sp := range spans {
			if sp[1] <= cur || sp[0] >= end {
				continue
			}
			from, to := max(sp[0], cur), min(sp[1], end)
			b.WriteString(run[cur-at : from-at])
			b.WriteString(mark(run[from-at : to-at]))
			cur = to
		}
		b.WriteString(run[cur-at:])
	}

	pos, plain := 0, 0
	for _, seq := range escapeSeq.FindAllStringIndex(line, -1) {
		run := line[pos:seq[0]]
		markRun(run, plain)
		plain += len(run)
		b.WriteString(line[seq[0]:seq[1]])
		pos = seq[1]
	}
	markRun(line[pos:], plain)
	return b.String(), len(spans)
}

// foldedSpans returns the byte ranges of non-overlapping case-insensitive
// occurrences of q in s.
func foldedSpans(s, q string) [][2]int {
	hay, needle := strings.ToLower(s), strings.ToLower(q)
	if len(hay) != len(s) || len(needle) != len(q) {
		// Case folding changed byte offsets; match exactly instead.
		hay, needle = s, q
	}
	var spans [][2]int
	for start := 0; ; {
		i := strings.Index(hay[start:], needle)
		if i < 0 {
			return spans
		}
		at := start + i
		spans = append(spans, [2]int{at, at + len(needle)})
		start = at + len(needle)
	}
}
