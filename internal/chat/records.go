package chat

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type recordKind int

const (
	kindUnknown recordKind = iota
	kindCanonical
	kindLegacy
)

// legacyRecord is the single-exchange shape written by the first client
// release. It is read on load and upgraded; it is never written.
type legacyRecord struct {
	Timestamp     string            `json:"timestamp"`
	Title         string            `json:"title"`
	ExtractedText string            `json:"extracted_text"`
	Summary       string            `json:"summary"`
	PubMedResults []json.RawMessage `json:"pubmed_results"`
	FactChecks    []json.RawMessage `json:"fact_checks"`
}

type storedRecord struct {
	kind      recordKind
	canonical Session
	legacy    legacyRecord
}

func decodeRecord(raw json.RawMessage) (storedRecord, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return storedRecord{}, fmt.Errorf("decode record: %w", err)
	}

	_, hasID := probe["id"]
	_, hasMessages := probe["messages"]
	_, hasExtracted := probe["extracted_text"]
	_, hasSummary := probe["summary"]

	switch {
	case hasID || hasMessages:
		var s Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return storedRecord{}, fmt.Errorf("decode session record: %w", err)
		}
		if strings.TrimSpace(s.ID) == "" {
			return storedRecord{}, fmt.Errorf("decode session record: missing id")
		}
		return storedRecord{kind: kindCanonical, canonical: s}, nil
	case hasExtracted || hasSummary:
		var l legacyRecord
		if err := json.Unmarshal(raw, &l); err != nil {
			return storedRecord{}, fmt.Errorf("decode legacy record: %w", err)
		}
		return storedRecord{kind: kindLegacy, legacy: l}, nil
	default:
		return storedRecord{kind: kindUnknown}, fmt.Errorf("decode record: unrecognized shape")
	}
}

func upgradeLegacy(l legacyRecord, id string, position int, now time.Time) Session {
	s := Session{
		ID:        id,
		Title:     strings.TrimSpace(l.Title),
		CreatedAt: now,
		UpdatedAt: now,
		Messages:  []Message{},
	}
	if s.Title == "" {
		s.Title = positionalTitle(position)
	}
	if text := strings.TrimSpace(l.ExtractedText); text != "" {
		s.Messages = append(s.Messages, Message{Role: RoleUser, Content: text, CreatedAt: now})
	}
	if strings.TrimSpace(l.Summary) != "" {
		reply := Message{Role: RoleAssistant, Content: l.Summary, CreatedAt: now}
		src := &Sources{PubMed: l.PubMedResults, FactChecks: l.FactChecks}
		if !src.Empty() {
			reply.Sources = src
		}
		s.Messages = append(s.Messages, reply)
	}
	return s
}

// normalize enforces the session invariants on a record read from storage.
func normalize(s Session, position int) Session {
	s.ID = strings.TrimSpace(s.ID)
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		s.Title = positionalTitle(position)
	}
	if s.UpdatedAt.Before(s.CreatedAt) {
		s.UpdatedAt = s.CreatedAt
	}
	if s.Messages == nil {
		s.Messages = []Message{}
	}
	return s
}

func positionalTitle(position int) string {
	return fmt.Sprintf("Chat %d", position)
}
