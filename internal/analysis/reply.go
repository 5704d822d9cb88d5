package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MissingSummary stands in for a reply that carried no summary.
const MissingSummary = "Error: No summary provided by backend"

type Sources struct {
	PubMed     []json.RawMessage `json:"pubmed"`
	FactChecks []json.RawMessage `json:"fact_checks"`
}

type Reply struct {
	Summary   string  `json:"summary"`
	ChatID    string  `json:"chat_id"`
	ChatTitle string  `json:"chat_title"`
	Sources   Sources `json:"sources"`
}

// wireReply also accepts the flattened shape some service builds return,
// where the analysis text and sources sit at the top level.
type wireReply struct {
	Reply
	GrokAnalysis  string            `json:"grok_analysis"`
	ExtractedText string            `json:"extracted_text"`
	PubMedResults []json.RawMessage `json:"pubmed_results"`
	FactChecks    []json.RawMessage `json:"fact_checks"`
}

func decodeReply(data []byte) (Reply, error) {
	var w wireReply
	if err := json.Unmarshal(data, &w); err != nil {
		return Reply{}, fmt.Errorf("decode analysis reply: %w", err)
	}
	r := w.Reply
	if strings.TrimSpace(r.Summary) == "" {
		r.Summary = w.GrokAnalysis
	}
	if len(r.Sources.PubMed) == 0 {
		r.Sources.PubMed = w.PubMedResults
	}
	if len(r.Sources.FactChecks) == 0 {
		r.Sources.FactChecks = w.FactChecks
	}
	return r, nil
}

// Content is the assistant text to display and store for r.
func (r Reply) Content() string {
	if strings.TrimSpace(r.Summary) == "" {
		return MissingSummary
	}
	return r.Summary
}
