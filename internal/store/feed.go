// Package store archives delivered postings into the job_feed table so
// downstream tooling can inspect what was applied to. Archival is best
// effort: a failure is logged by the caller and never stops a run.
package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yunhdeng/job-bot/internal/model"
)

// FeedStore writes delivered postings to PostgreSQL.
type FeedStore struct {
	pool *pgxpool.Pool
}

func NewFeedStore(pool *pgxpool.Pool) *FeedStore {
	return &FeedStore{pool: pool}
}

// Archive inserts one posting keyed by (platform, job id), skipping
// duplicates so re-running a day never double-archives.
func (s *FeedStore) Archive(ctx context.Context, platform string, p model.Posting, outcome model.Outcome) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode posting: %w", err)
	}

	sourceKey := fmt.Sprintf("%s:%s", platform, p.ID)
	_, err = s.pool.Exec(ctx,
		`INSERT INTO job_feed (platform, source_key, raw_data, outcome)
		 SELECT $1, $2, $3::jsonb, $4
		 WHERE NOT EXISTS (
		   SELECT 1 FROM job_feed WHERE source_key = $2
		 )`,
		platform, sourceKey, string(raw), string(outcome),
	)
	if err != nil {
		return fmt.Errorf("archive posting %s: %w", sourceKey, err)
	}
	return nil
}
