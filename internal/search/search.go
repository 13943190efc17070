// Package search provides keyword search over transcripts, backed by
// Meilisearch with a PostgreSQL fallback.
package search

import "time"

// Scope selects which transcript fields a query runs against.
type Scope string

const (
	ScopeSummary Scope = "summary"
	ScopeContent Scope = "content"
	ScopeBoth    Scope = "both"
)

// Query describes a transcript search request. ParticipantEmail is the
// caller's visibility filter; empty means no filter (admin).
type Query struct {
	Text             string
	Scope            Scope
	Fuzzy            bool
	StartDate        *time.Time
	EndDate          *time.Time
	MeetingType      string
	ParticipantEmail string
	Limit            int
}

// Result is a single transcript hit.
type Result struct {
	TranscriptID   int64      `json:"transcriptId"`
	RecordingStart *time.Time `json:"recordingStart"`
	MeetingType    string     `json:"meetingType,omitempty"`
	Snippet        string     `json:"snippet"`
	MatchedIn      string     `json:"matchedIn"`
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
	Backend string   `json:"backend"`
}

// TranscriptRecord is the data pushed into the search index.
type TranscriptRecord struct {
	ID                 int64    `json:"id"`
	Summary            string   `json:"summary"`
	Content            string   `json:"content"`
	MeetingType        string   `json:"meetingType"`
	Participants       []string `json:"participants"`
	RecordingStartUnix int64    `json:"recordingStartUnix"`
}

// Searcher can execute a transcript search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}
