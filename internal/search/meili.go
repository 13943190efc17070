package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const idxTranscripts = "minutes_transcripts"

// Meili implements Searcher via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures the transcript index.
// An unreachable server is tolerated: the health loop flips the store back to
// healthy when it recovers.
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndex()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndex() {
	if _, err := m.client.CreateIndex(&meili.IndexConfig{
		Uid:        idxTranscripts,
		PrimaryKey: "id",
	}); err != nil {
		log.Printf("search: create index %s (may already exist): %v", idxTranscripts, err)
	}

	index := m.client.Index(idxTranscripts)
	filterable := []interface{}{"participants", "meetingType", "recordingStartUnix"}
	if _, err := index.UpdateFilterableAttributes(&filterable); err != nil {
		log.Printf("search: update filterable attrs: %v", err)
	}
	searchable := []string{"summary", "content"}
	if _, err := index.UpdateSearchableAttributes(&searchable); err != nil {
		log.Printf("search: update searchable attrs: %v", err)
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring index")
				m.configureIndex()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries the transcript index. The participant filter and date range
// are pushed down as Meilisearch filters so pagination stays correct.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit <= 0 {
		limit = 20
	}

	sr := &meili.SearchRequest{
		Limit:                 limit,
		AttributesToHighlight: []string{"summary", "content"},
		HighlightPreTag:       "<mark>",
		HighlightPostTag:      "</mark>",
		ShowRankingScore:      true,
	}

	switch q.Scope {
	case ScopeSummary:
		sr.AttributesToSearchOn = []string{"summary"}
	case ScopeContent:
		sr.AttributesToSearchOn = []string{"content"}
	}

	var filters []string
	if q.ParticipantEmail != "" {
		filters = append(filters, fmt.Sprintf("participants = %q", q.ParticipantEmail))
	}
	if q.MeetingType != "" {
		filters = append(filters, fmt.Sprintf("meetingType = %q", q.MeetingType))
	}
	if q.StartDate != nil {
		filters = append(filters, fmt.Sprintf("recordingStartUnix >= %d", q.StartDate.Unix()))
	}
	if q.EndDate != nil {
		filters = append(filters, fmt.Sprintf("recordingStartUnix <= %d", q.EndDate.Unix()))
	}
	if len(filters) > 0 {
		sr.Filter = filters
	}

	resp, err := m.client.Index(idxTranscripts).Search(q.Text, sr)
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch search: %w", err)
	}

	results := make([]Result, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		results = append(results, hitToResult(hit, q.Scope))
	}
	return results, int(resp.EstimatedTotalHits), nil
}

func hitToResult(hit meili.Hit, scope Scope) Result {
	r := Result{
		TranscriptID: decodeInt64(hit, "id"),
		MeetingType:  decodeString(hit, "meetingType"),
	}
	if unix := decodeInt64(hit, "recordingStartUnix"); unix > 0 {
		t := time.Unix(unix, 0).UTC()
		r.RecordingStart = &t
	}

	summarySnippet := decodeFormattedString(hit, "summary")
	contentSnippet := decodeFormattedString(hit, "content")
	switch {
	case scope == ScopeContent && contentSnippet != "":
		r.Snippet, r.MatchedIn = contentSnippet, "content"
	case strings.Contains(summarySnippet, "<mark>") || contentSnippet == "":
		r.Snippet, r.MatchedIn = summarySnippet, "summary"
	default:
		r.Snippet, r.MatchedIn = contentSnippet, "content"
	}
	if r.Snippet == "" {
		r.Snippet = decodeString(hit, "summary")
		r.MatchedIn = "summary"
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeInt64(hit meili.Hit, key string) int64 {
	raw, ok := hit[key]
	if !ok {
		return 0
	}
	var n int64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

// IndexTranscript adds or updates one transcript in the search index.
func (m *Meili) IndexTranscript(rec TranscriptRecord) error {
	_, err := m.client.Index(idxTranscripts).AddDocuments([]TranscriptRecord{rec}, nil)
	return err
}

// IndexTranscripts bulk-indexes transcripts.
func (m *Meili) IndexTranscripts(records []TranscriptRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxTranscripts).AddDocuments(records, nil)
	return err
}
