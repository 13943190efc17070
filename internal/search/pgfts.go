package search

import (
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search runs either websearch_to_tsquery matching or, when Fuzzy is set,
// ILIKE substring matching over the selected scope. The participant filter
// uses the same jsonb containment predicate as the listing queries.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	args := []any{text}
	argN := 2

	summaryExpr := "coalesce(t.summary, '')"
	contentExpr := "coalesce(t.transcript_content->>'cleaned', '')"
	searchedExpr := summaryExpr
	switch q.Scope {
	case ScopeContent:
		searchedExpr = contentExpr
	case ScopeBoth:
		searchedExpr = summaryExpr + " || ' ' || " + contentExpr
	}

	var match, rank string
	if q.Fuzzy {
		match = searchedExpr + " ILIKE '%' || $1 || '%'"
		rank = "0.0"
	} else {
		match = fmt.Sprintf("to_tsvector('english', %s) @@ websearch_to_tsquery('english', $1)", searchedExpr)
		rank = fmt.Sprintf("ts_rank(to_tsvector('english', %s), websearch_to_tsquery('english', $1))", searchedExpr)
	}

	where := []string{match}
	if q.ParticipantEmail != "" {
		where = append(where, fmt.Sprintf("t.verified_participant_emails @> jsonb_build_array($%d::text)", argN))
		args = append(args, q.ParticipantEmail)
		argN++
	}
	if q.MeetingType != "" {
		where = append(where, fmt.Sprintf("t.meeting_type = $%d", argN))
		args = append(args, q.MeetingType)
		argN++
	}
	if q.StartDate != nil {
		where = append(where, fmt.Sprintf("t.recording_start >= $%d", argN))
		args = append(args, *q.StartDate)
		argN++
	}
	if q.EndDate != nil {
		where = append(where, fmt.Sprintf("t.recording_start <= $%d", argN))
		args = append(args, *q.EndDate)
		argN++
	}
	whereSQL := strings.Join(where, " AND ")

	countSQL := "SELECT count(*) FROM transcripts t WHERE " + whereSQL
	var total int
	if err := p.db.QueryRow(countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	snippet := fmt.Sprintf(
		"ts_headline('english', %s, websearch_to_tsquery('english', $1), 'MaxFragments=1,MaxWords=30')",
		searchedExpr)
	if q.Fuzzy {
		snippet = fmt.Sprintf("left(%s, 160)", searchedExpr)
	}

	dataSQL := fmt.Sprintf(`
		SELECT t.id, t.recording_start, coalesce(t.meeting_type, ''), %s AS snippet
		FROM transcripts t
		WHERE %s
		ORDER BY %s DESC, t.recording_start DESC NULLS LAST
		LIMIT %d`, snippet, whereSQL, rank, limit)

	rows, err := p.db.Query(dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}
	defer rows.Close()

	matchedIn := "summary"
	if q.Scope == ScopeContent {
		matchedIn = "content"
	}

	results := make([]Result, 0, limit)
	for rows.Next() {
		var r Result
		var start sql.NullTime
		if err := rows.Scan(&r.TranscriptID, &start, &r.MeetingType, &r.Snippet); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		if start.Valid {
			t := start.Time.UTC()
			r.RecordingStart = &t
		}
		r.MatchedIn = matchedIn
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("pgfts iterate: %w", err)
	}
	return results, total, nil
}
