// Package ledger persists the per-platform, per-day record of delivery
// attempts and enforces the daily and hourly delivery caps.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/yunhdeng/job-bot/internal/model"
)

// Ledger is the append-only record set for one platform and one calendar
// day. It is owned exclusively by that platform's controller during a run.
// Every Record call persists before returning, so a crash mid-run never
// forgets a delivery that already happened.
type Ledger struct {
	dir       string
	platform  string
	dailyCap  int
	hourlyCap int

	day     string // partition key, YYYYMMDD
	records []model.DeliveryRecord
	seen    map[string]bool

	now func() time.Time
	log *zap.Logger
}

// Open loads (or creates) today's partition for the given platform,
// deduplicating by job ID with first occurrence winning.
func Open(dir, platform string, dailyCap, hourlyCap int, log *zap.Logger) (*Ledger, error) {
	l := &Ledger{
		dir:       dir,
		platform:  platform,
		dailyCap:  dailyCap,
		hourlyCap: hourlyCap,
		now:       time.Now,
		log:       log,
	}
	l.day = l.now().Format("20060102")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	if err := l.load(); err != nil {
		return nil, err
	}
	return l, nil
}

// load replaces the in-memory record set with the current partition file's
// contents, deduplicating by job ID with first occurrence winning.
func (l *Ledger) load() error {
	l.records = nil
	l.seen = make(map[string]bool)

	raw, err := os.ReadFile(l.path())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read ledger %s: %w", l.path(), err)
	}

	var loaded []model.DeliveryRecord
	if err := json.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("decode ledger %s: %w", l.path(), err)
	}
	for _, rec := range loaded {
		if l.seen[rec.JobID] {
			continue
		}
		l.seen[rec.JobID] = true
		l.records = append(l.records, rec)
	}
	return nil
}

// roll switches to a fresh partition once the calendar day has changed
// since the last access. The process is a long-running daemon, so the caps
// must count against the current day, not the day the ledger was opened.
func (l *Ledger) roll() {
	day := l.now().Format("20060102")
	if day == l.day {
		return
	}
	l.day = day
	if err := l.load(); err != nil {
		l.log.Error("loading new day partition failed, starting empty", zap.Error(err))
	}
	l.log.Info("ledger rolled to new day",
		zap.String("platform", l.platform),
		zap.String("day", day),
		zap.Int("carried_records", len(l.records)))
}

func (l *Ledger) path() string {
	return filepath.Join(l.dir, fmt.Sprintf("job_records_%s_%s.json", l.platform, l.day))
}

// Count returns the number of deduplicated records for today.
func (l *Ledger) Count() int {
	l.roll()
	return len(l.records)
}

// Today returns a copy of today's deduplicated records in append order.
func (l *Ledger) Today() []model.DeliveryRecord {
	l.roll()
	out := make([]model.DeliveryRecord, len(l.records))
	copy(out, l.records)
	return out
}

// Seen reports whether a delivery attempt for the job is already recorded
// today.
func (l *Ledger) Seen(jobID string) bool {
	l.roll()
	return l.seen[jobID]
}

// CanDeliver checks both caps against today's record set.
func (l *Ledger) CanDeliver() bool {
	l.roll()
	if l.dailyCap > 0 && len(l.records) >= l.dailyCap {
		return false
	}
	if l.hourlyCap > 0 && l.countLastHour() >= l.hourlyCap {
		return false
	}
	return true
}

func (l *Ledger) countLastHour() int {
	cutoff := l.now().Add(-time.Hour)
	n := 0
	for _, rec := range l.records {
		if rec.Timestamp.After(cutoff) {
			n++
		}
	}
	return n
}

// Record appends a delivery record and persists the partition before
// returning. A job ID already present today is ignored so it is never
// counted twice across process restarts.
func (l *Ledger) Record(rec model.DeliveryRecord) error {
	l.roll()
	if l.seen[rec.JobID] {
		return nil
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now()
	}
	rec.Platform = l.platform

	l.seen[rec.JobID] = true
	l.records = append(l.records, rec)
	return l.flush()
}

// flush writes the full partition to a temp file and renames it into place,
// so readers never observe a torn write.
func (l *Ledger) flush() error {
	data, err := json.MarshalIndent(l.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp := l.path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, l.path()); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
