package chat

import (
	"sort"
	"strings"
	"time"
)

type DayGroup struct {
	Day      time.Time
	Label    string
	Sessions []Summary
}

// Grouped buckets List by the calendar day of each session's creation, in
// now's location. Days are newest first; within a day the list order holds.
func (s *Store) Grouped(now time.Time) []DayGroup {
	return GroupByDay(s.List(), now)
}

func GroupByDay(summaries []Summary, now time.Time) []DayGroup {
	loc := now.Location()
	byDay := make(map[time.Time]*DayGroup)
	days := make([]time.Time, 0, 8)
	for _, sum := range summaries {
		day := startOfDay(sum.CreatedAt.In(loc))
		g, ok := byDay[day]
		if !ok {
			g = &DayGroup{Day: day, Label: DayLabel(day, now)}
			byDay[day] = g
			days = append(days, day)
		}
		g.Sessions = append(g.Sessions, sum)
	}

	sort.Slice(days, func(i, j int) bool { return days[i].After(days[j]) })
	out := make([]DayGroup, 0, len(days))
	for _, d := range days {
		out = append(out, *byDay[d])
	}
	return out
}

func DayLabel(day, now time.Time) string {
	today := startOfDay(now)
	day = startOfDay(day.In(now.Location()))
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	default:
		return day.Format("Mon Jan 2, 2006")
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Search returns summaries of sessions whose title or messages contain every
// search term, case-insensitively, in list order.
func (s *Store) Search(query string) []Summary {
	terms := tokenizeSearchTerms(query)
	if len(terms) == 0 {
		return s.List()
	}

	out := make([]Summary, 0, len(s.sessions))
	for _, sess := range s.sessions {
		var b strings.Builder
		b.WriteString(strings.ToLower(sess.Title))
		for _, m := range sess.Messages {
			b.WriteByte('\n')
			b.WriteString(strings.ToLower(m.Content))
		}
		haystack := b.String()

		matched := true
		for _, term := range terms {
			if !strings.Contains(haystack, term) {
				matched = false
				break
			}
		}
		if matched {
			out = append(out, sess.summary())
		}
	}
	return out
}

func tokenizeSearchTerms(raw string) []string {
	parts := strings.Fields(strings.ToLower(strings.TrimSpace(raw)))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(p, "`\"'.,:;!?()[]{}<>|")
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
