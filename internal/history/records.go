package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Record is a persisted per-file outcome.
type Record struct {
	ID             int64
	RunID          string
	Path           string
	Status         string
	Source         string
	Query          string
	Season         string
	Episode        string
	CandidateTitle string
	Language       string
	Error          string
	CreatedAt      time.Time
}

const (
	insertColumns = "run_id, path, status, source, query, season, episode, candidate_title, language, error_message, created_at"
	recordColumns = "id, " + insertColumns
)

// Add inserts rec. A zero CreatedAt is stamped with the current time.
func (s *Store) Add(ctx context.Context, rec Record) error {
	if s == nil {
		return errors.New("history store unavailable")
	}
	if rec.Path == "" || rec.Status == "" {
		return errors.New("record requires path and status")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx,
			`INSERT INTO outcomes (`+insertColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RunID,
			rec.Path,
			rec.Status,
			nullableString(rec.Source),
			nullableString(rec.Query),
			nullableString(rec.Season),
			nullableString(rec.Episode),
			nullableString(rec.CandidateTitle),
			nullableString(rec.Language),
			nullableString(rec.Error),
			formatTime(rec.CreatedAt),
		)
		if err != nil {
			return fmt.Errorf("insert outcome: %w", err)
		}
		return nil
	})
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if s == nil {
		return nil, errors.New("history store unavailable")
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM outcomes ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent outcomes: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Last returns the newest record for path.
func (s *Store) Last(ctx context.Context, path string) (Record, bool, error) {
	if s == nil {
		return Record{}, false, errors.New("history store unavailable")
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM outcomes WHERE path = ? ORDER BY id DESC LIMIT 1`, path)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("last outcome: %w", err)
	}
	return rec, true, nil
}

// CountByStatus tallies the records of a run.
func (s *Store) CountByStatus(ctx context.Context, runID string) (map[string]int, error) {
	if s == nil {
		return nil, errors.New("history store unavailable")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM outcomes WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return nil, fmt.Errorf("count outcomes: %w", err)
	}
	defer rows.Close()
	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// Prune deletes records created before cutoff and returns how many were removed.
func (s *Store) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s == nil {
		return 0, errors.New("history store unavailable")
	}
	var removed int64
	err := retryOnBusy(ctx, func() error {
		res, err := s.db.ExecContext(ctx,
			`DELETE FROM outcomes WHERE created_at < ?`, formatTime(cutoff))
		if err != nil {
			return fmt.Errorf("prune outcomes: %w", err)
		}
		removed, err = res.RowsAffected()
		return err
	})
	return removed, err
}

func scanRecord(scanner interface{ Scan(dest ...any) error }) (Record, error) {
	var (
		rec            Record
		source         sql.NullString
		query          sql.NullString
		season         sql.NullString
		episode        sql.NullString
		candidateTitle sql.NullString
		language       sql.NullString
		errorMessage   sql.NullString
		createdRaw     string
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.RunID,
		&rec.Path,
		&rec.Status,
		&source,
		&query,
		&season,
		&episode,
		&candidateTitle,
		&language,
		&errorMessage,
		&createdRaw,
	); err != nil {
		return Record{}, err
	}
	rec.Source = source.String
	rec.Query = query.String
	rec.Season = season.String
	rec.Episode = episode.String
	rec.CandidateTitle = candidateTitle.String
	rec.Language = language.String
	rec.Error = errorMessage.String
	if created, err := parseTimeString(createdRaw); err == nil {
		rec.CreatedAt = created
	}
	return rec, nil
}
