package chat

import (
	"encoding/json"
	"strconv"
	"strings"
)

// SourceLine is a one-line description of a single source entry, used by the
// conversation view and by exports.
func SourceLine(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}

	var obj map[string]any
	if json.Unmarshal(raw, &obj) != nil {
		return strings.TrimSpace(string(raw))
	}
	label := firstString(obj, "title", "claim", "text", "name")
	if rating := firstString(obj, "rating", "textualRating", "verdict"); rating != "" {
		if label == "" {
			label = rating
		} else {
			label += " (" + rating + ")"
		}
	}
	link := firstString(obj, "url", "link", "source")
	if id := firstString(obj, "pmid"); link == "" && id != "" {
		link = "https://pubmed.ncbi.nlm.nih.gov/" + id + "/"
	}
	switch {
	case label != "" && link != "":
		return label + " - " + link
	case label != "":
		return label
	case link != "":
		return link
	}
	compact, err := json.Marshal(obj)
	if err != nil {
		return strings.TrimSpace(string(raw))
	}
	return string(compact)
}

func firstString(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case string:
			if t := strings.TrimSpace(v); t != "" {
				return strings.Join(strings.Fields(t), " ")
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
