package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"

	"github.com/valpere/peredoc/internal"
)

// DefaultSourceLang is the source language of every glossary entry the
// pipeline reads; documents are translated from English.
const DefaultSourceLang = "en"

type Store struct {
	db *sql.DB
}

// pragmas apply to every connection: writers wait for the lock instead of
// failing with SQLITE_BUSY, and WAL lets readers proceed during a write.
const pragmas = "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

func dsn(dbPath string) string {
	if strings.Contains(dbPath, "?") {
		return dbPath + "&" + pragmas
	}
	return dbPath + "?" + pragmas
}

// New opens (and migrates) the database at dbPath. The store is safe for
// concurrent use by many pipeline runs.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers inside the process.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- runs is a metadata-only audit of pipeline runs; document text is never stored
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		source_name TEXT,
		source_sha256 TEXT NOT NULL,
		source_chars INTEGER NOT NULL,
		translated_chars INTEGER NOT NULL,
		target_lang TEXT NOT NULL,
		profile TEXT NOT NULL,
		backend TEXT NOT NULL,
		overall_quality INTEGER DEFAULT 0,
		corrected BOOLEAN DEFAULT FALSE,
		degraded BOOLEAN DEFAULT FALSE,
		failed_stage TEXT,
		error TEXT,
		generation_calls INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- glossary stores user-defined terminology for consistent translation of specific terms
	CREATE TABLE IF NOT EXISTS glossary (
		id TEXT PRIMARY KEY,
		source_lang TEXT NOT NULL,
		target_lang TEXT NOT NULL,
		source_term TEXT NOT NULL,
		target_term TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(source_lang, target_lang, source_term)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_glossary_lookup ON glossary(source_lang, target_lang);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// so equal terms typed in different forms share one row.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

// normalizeLang lowercases a language key; "Quebec French" and
// "quebec french" address the same glossary.
func normalizeLang(lang string) string {
	return strings.ToLower(normalizeText(lang))
}

// SaveRun records a finished run.
func (s *Store) SaveRun(ctx context.Context, rec internal.RunRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source_name, source_sha256, source_chars, translated_chars, target_lang, profile, backend,
			overall_quality, corrected, degraded, failed_stage, error, generation_calls, duration_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SourceName, rec.SourceSHA256, rec.SourceChars, rec.TranslatedChars, rec.TargetLang, rec.Profile, rec.Backend,
		rec.OverallQuality, rec.Corrected, rec.Degraded, rec.FailedStage, rec.Error, rec.GenerationCalls, rec.DurationMS, rec.Timestamp)
	return err
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]internal.RunRecord, error) {
	query := `SELECT id, COALESCE(source_name, ''), source_sha256, source_chars, translated_chars, target_lang, profile, backend,
		overall_quality, corrected, degraded, COALESCE(failed_stage, ''), COALESCE(error, ''), generation_calls, duration_ms, created_at
		FROM runs ORDER BY created_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []internal.RunRecord
	for rows.Next() {
		var r internal.RunRecord
		if err := rows.Scan(&r.ID, &r.SourceName, &r.SourceSHA256, &r.SourceChars, &r.TranslatedChars, &r.TargetLang, &r.Profile, &r.Backend,
			&r.OverallQuality, &r.Corrected, &r.Degraded, &r.FailedStage, &r.Error, &r.GenerationCalls, &r.DurationMS, &r.Timestamp); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunStats summarises the run history.
type RunStats struct {
	TotalRuns       int
	FailedRuns      int
	CorrectedRuns   int
	DegradedRuns    int
	AverageQuality  float64
	GenerationCalls int
	// FailuresByStage counts failed runs per stage.
	FailuresByStage map[string]int
}

// Stats returns summary statistics for the run history.
func (s *Store) Stats(ctx context.Context) (*RunStats, error) {
	stats := &RunStats{FailuresByStage: map[string]int{}}

	err := s.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN failed_stage IS NOT NULL AND failed_stage != '' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN corrected THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN degraded THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(CASE WHEN failed_stage IS NULL OR failed_stage = '' THEN overall_quality END), 0),
			COALESCE(SUM(generation_calls), 0)
		FROM runs`).Scan(
		&stats.TotalRuns,
		&stats.FailedRuns,
		&stats.CorrectedRuns,
		&stats.DegradedRuns,
		&stats.AverageQuality,
		&stats.GenerationCalls,
	)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT failed_stage, COUNT(*) FROM runs WHERE failed_stage IS NOT NULL AND failed_stage != '' GROUP BY failed_stage`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var st string
		var n int
		if err := rows.Scan(&st, &n); err != nil {
			return nil, err
		}
		stats.FailuresByStage[st] = n
	}
	return stats, rows.Err()
}

// GlossaryEntry represents a row in the glossary table.
type GlossaryEntry struct {
	ID         string
	SourceLang string
	TargetLang string
	SourceTerm string
	TargetTerm string
	CreatedAt  time.Time
}

// AddGlossaryTerm inserts or replaces a glossary entry.
func (s *Store) AddGlossaryTerm(ctx context.Context, sourceLang, targetLang, sourceTerm, targetTerm string) error {
	return addTerm(ctx, s.db, sourceLang, targetLang, sourceTerm, targetTerm)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func addTerm(ctx context.Context, db execer, sourceLang, targetLang, sourceTerm, targetTerm string) error {
	src, dst := normalizeText(sourceTerm), normalizeText(targetTerm)
	if src == "" || dst == "" {
		return fmt.Errorf("glossary term and translation must not be empty")
	}
	if normalizeLang(targetLang) == "" {
		return fmt.Errorf("glossary target language must not be empty")
	}
	_, err := db.ExecContext(ctx,
		`INSERT OR REPLACE INTO glossary (id, source_lang, target_lang, source_term, target_term)
		 VALUES (?, ?, ?, ?, ?)`,
		"gl_"+uuid.NewString(), normalizeLang(sourceLang), normalizeLang(targetLang), src, dst)
	return err
}

// ImportGlossary adds every entry in one transaction and returns the number
// written. Nothing is written if any entry is rejected.
func (s *Store) ImportGlossary(ctx context.Context, entries []GlossaryEntry) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	for i, e := range entries {
		if err := addTerm(ctx, tx, e.SourceLang, e.TargetLang, e.SourceTerm, e.TargetTerm); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("entry %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// GetGlossaryTerms returns all glossary terms for a language pair as a
// source-term → target-term map, ready to embed in a translation prompt.
func (s *Store) GetGlossaryTerms(ctx context.Context, sourceLang, targetLang string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_term, target_term FROM glossary WHERE source_lang = ? AND target_lang = ?`,
		normalizeLang(sourceLang), normalizeLang(targetLang))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	terms := make(map[string]string)
	for rows.Next() {
		var src, tgt string
		if err := rows.Scan(&src, &tgt); err != nil {
			return nil, err
		}
		terms[src] = tgt
	}
	return terms, rows.Err()
}

// ListGlossaryTerms returns all glossary entries, optionally filtered by language
// pair (pass empty strings to return everything).
func (s *Store) ListGlossaryTerms(ctx context.Context, sourceLang, targetLang string) ([]GlossaryEntry, error) {
	query := `SELECT id, source_lang, target_lang, source_term, target_term, created_at FROM glossary`
	var args []interface{}
	sourceLang, targetLang = normalizeLang(sourceLang), normalizeLang(targetLang)

	switch {
	case sourceLang != "" && targetLang != "":
		query += ` WHERE source_lang = ? AND target_lang = ?`
		args = append(args, sourceLang, targetLang)
	case sourceLang != "":
		query += ` WHERE source_lang = ?`
		args = append(args, sourceLang)
	case targetLang != "":
		query += ` WHERE target_lang = ?`
		args = append(args, targetLang)
	}
	query += ` ORDER BY source_lang, target_lang, source_term`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []GlossaryEntry
	for rows.Next() {
		var e GlossaryEntry
		if err := rows.Scan(&e.ID, &e.SourceLang, &e.TargetLang, &e.SourceTerm, &e.TargetTerm, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// DeleteGlossaryTerm removes a glossary entry by ID.
func (s *Store) DeleteGlossaryTerm(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM glossary WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("glossary entry not found: %s", id)
	}
	return nil
}

// MergeTerms overlays explicit on stored: explicit renderings win.
func MergeTerms(stored, explicit map[string]string) map[string]string {
	if len(stored) == 0 {
		return explicit
	}
	out := make(map[string]string, len(stored)+len(explicit))
	for k, v := range stored {
		out[k] = v
	}
	for k, v := range explicit {
		out[k] = v
	}
	return out
}
