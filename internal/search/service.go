package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
// Fuzzy queries always go to Postgres since the ILIKE semantics differ from
// Meilisearch typo tolerance.
func (s *Service) Search(q Query) Response {
	if !q.Fuzzy && s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "meilisearch"}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text, Backend: "postgres"}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Backend: "postgres"}
}

// IndexTranscript indexes one transcript (fire-and-forget to Meilisearch).
func (s *Service) IndexTranscript(rec TranscriptRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexTranscript(rec); err != nil {
			log.Printf("search: index transcript %d: %v", rec.ID, err)
		}
	}()
}

// ReindexAll pushes the full transcript corpus into Meilisearch. Called at
// bootstrap; loading is the caller's job so the store stays out of this
// package.
func (s *Service) ReindexAll(ctx context.Context, records []TranscriptRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	if ctx.Err() != nil {
		return
	}
	if err := s.meili.IndexTranscripts(records); err != nil {
		log.Printf("search: reindex transcripts: %v", err)
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
