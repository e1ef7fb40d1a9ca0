package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/MimeLyc/localcat/internal/glossary"
	"github.com/MimeLyc/localcat/internal/session"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// HistoryStore keeps a record of every batch run and of the suggestion
// produced for each segment in it.
type HistoryStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewHistoryStore(path string) (*HistoryStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &HistoryStore{db: db, now: time.Now}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *HistoryStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *HistoryStore) init(ctx context.Context) error {
	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA foreign_keys = ON;",
	} {
		if _, err := s.db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("apply %q: %w", pragma, err)
		}
	}
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var applied int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if applied > 0 {
			continue
		}
		// embed.FS paths always use forward slashes
		content, err := migrationFiles.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := s.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer of a migration filename ("001_init.sql" -> 1).
func migrationVersion(name string) int {
	end := 0
	for end < len(name) && name[end] >= '0' && name[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, _ := strconv.Atoi(name[:end])
	return n
}

// CreateRun registers a new run over the given source files.
func (s *HistoryStore) CreateRun(ctx context.Context, sources []string) (Run, error) {
	if sources == nil {
		sources = []string{}
	}
	payload, err := json.Marshal(sources)
	if err != nil {
		return Run{}, err
	}
	run := Run{
		ID:        fmt.Sprintf("run-%d", s.now().UnixNano()),
		Sources:   sources,
		StartedAt: s.now().UTC(),
	}
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO runs (id, sources_json, started_at) VALUES (?, ?, ?)`,
		run.ID,
		string(payload),
		run.StartedAt,
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// RecordResults appends results to a run, continuing its sequence numbers.
func (s *HistoryStore) RecordResults(ctx context.Context, runID string, results []session.Result) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var next int
	if err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq) + 1, 0) FROM segment_results WHERE run_id = ?`, runID).Scan(&next); err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	processedAt := s.now().UTC()
	for i, res := range results {
		hits := res.Hits
		if hits == nil {
			hits = []glossary.Hit{}
		}
		var hitsJSON []byte
		if hitsJSON, err = json.Marshal(hits); err != nil {
			return err
		}
		memoryTarget := ""
		if res.Match != nil {
			memoryTarget = res.Match.Target
		}
		if _, err = tx.ExecContext(
			ctx,
			`INSERT INTO segment_results (
				run_id, seq, segment_id, origin_file, source_text, outcome, memory_target, rendered, hits_json, processed_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			next+i,
			res.Segment.ID,
			res.Segment.OriginFile,
			res.Segment.Text,
			string(res.Outcome),
			memoryTarget,
			res.Rendered,
			string(hitsJSON),
			processedAt,
		); err != nil {
			return fmt.Errorf("insert result %s: %w", res.Segment.ID, err)
		}
	}
	return tx.Commit()
}

func (s *HistoryStore) LoadResults(ctx context.Context, runID string) ([]ResultRow, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT run_id, seq, segment_id, origin_file, source_text, outcome, memory_target, rendered, hits_json, processed_at
		 FROM segment_results
		 WHERE run_id = ?
		 ORDER BY seq ASC`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]ResultRow, 0)
	for rows.Next() {
		var item ResultRow
		var outcome string
		var hitsJSON string
		if err := rows.Scan(
			&item.RunID,
			&item.Seq,
			&item.SegmentID,
			&item.OriginFile,
			&item.SourceText,
			&outcome,
			&item.MemoryTarget,
			&item.Rendered,
			&hitsJSON,
			&item.ProcessedAt,
		); err != nil {
			return nil, err
		}
		item.Outcome = session.Outcome(outcome)
		if err := json.Unmarshal([]byte(hitsJSON), &item.Hits); err != nil {
			return nil, fmt.Errorf("decode hits of %s/%d: %w", item.RunID, item.Seq, err)
		}
		ret = append(ret, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ret, nil
}

// ListRuns returns the most recent runs first.
func (s *HistoryStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, sources_json, started_at FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ret := make([]Run, 0)
	for rows.Next() {
		var run Run
		var sourcesJSON string
		if err := rows.Scan(&run.ID, &sourcesJSON, &run.StartedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sourcesJSON), &run.Sources); err != nil {
			return nil, err
		}
		ret = append(ret, run)
	}
	return ret, rows.Err()
}

func (s *HistoryStore) CountOutcomes(ctx context.Context, runID string) (OutcomeCounts, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT outcome, COUNT(*) FROM segment_results WHERE run_id = ? GROUP BY outcome`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(OutcomeCounts)
	for rows.Next() {
		var outcome string
		var n int
		if err := rows.Scan(&outcome, &n); err != nil {
			return nil, err
		}
		counts[session.Outcome(outcome)] = n
	}
	return counts, rows.Err()
}

// DeleteRunsBefore drops runs, and their results, started before cutoff.
func (s *HistoryStore) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (deleted int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(
		ctx,
		`DELETE FROM segment_results WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)`,
		cutoff.UTC(),
	); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE started_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}
	if deleted, err = res.RowsAffected(); err != nil {
		return 0, err
	}
	return deleted, tx.Commit()
}

// DeleteRun drops a single run and its results.
func (s *HistoryStore) DeleteRun(ctx context.Context, runID string) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM segment_results WHERE run_id = ?`, runID); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID); err != nil {
		return err
	}
	return tx.Commit()
}
