package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

type RunRepository struct {
	db *sql.DB
}

func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *RunRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS extraction_runs (
	id TEXT PRIMARY KEY,
	purpose TEXT NOT NULL,
	source_count INTEGER NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT,
	request JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS extraction_results (
	run_id TEXT PRIMARY KEY REFERENCES extraction_runs(id) ON DELETE CASCADE,
	themes JSONB NOT NULL,
	stats JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_extraction_runs_status ON extraction_runs(status);
CREATE INDEX IF NOT EXISTS idx_extraction_runs_created_at ON extraction_runs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *RunRepository) CreateRun(ctx context.Context, run *domain.ExtractionRun, req domain.ExtractionRequest) error {
	requestJSON, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO extraction_runs (
	id, purpose, source_count, status, error_message, request, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
		run.ID, string(run.Purpose), run.SourceCount, string(run.Status), run.Error,
		requestJSON, run.CreatedAt, run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert extraction run: %w", err)
	}
	return nil
}

func (r *RunRepository) GetRun(ctx context.Context, id string) (*domain.ExtractionRun, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, purpose, source_count, status, error_message, created_at, updated_at
FROM extraction_runs
WHERE id = $1
`, id)

	var run domain.ExtractionRun
	var purpose, status string

	err := row.Scan(&run.ID, &purpose, &run.SourceCount, &status, &run.Error, &run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRunNotFound, "get run", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan extraction run: %w", err)
	}

	run.Purpose = domain.ResearchPurpose(purpose)
	run.Status = domain.RunStatus(status)
	return &run, nil
}

func (r *RunRepository) GetRequest(ctx context.Context, id string) (*domain.ExtractionRequest, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT request FROM extraction_runs WHERE id = $1
`, id)

	var raw []byte
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRunNotFound, "get request", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan extraction request: %w", err)
	}

	var req domain.ExtractionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("unmarshal extraction request: %w", err)
	}
	req.RunID = id
	return &req, nil
}

func (r *RunRepository) UpdateStatus(ctx context.Context, id string, status domain.RunStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE extraction_runs
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update run status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update run status rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrRunNotFound, "update run status", fmt.Errorf("id %s", id))
	}
	return nil
}

func (r *RunRepository) SaveResult(ctx context.Context, id string, result *domain.ExtractionResult) error {
	themesJSON, err := json.Marshal(result.Themes)
	if err != nil {
		return fmt.Errorf("marshal themes: %w", err)
	}
	statsJSON, err := json.Marshal(result.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO extraction_results (run_id, themes, stats, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (run_id) DO UPDATE SET themes = EXCLUDED.themes, stats = EXCLUDED.stats
`, id, themesJSON, statsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert extraction result: %w", err)
	}
	return nil
}

func (r *RunRepository) GetResult(ctx context.Context, id string) (*domain.ExtractionResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT themes, stats FROM extraction_results WHERE run_id = $1
`, id)

	var themesRaw, statsRaw []byte
	if err := row.Scan(&themesRaw, &statsRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrRunNotFound, "get result", fmt.Errorf("run %s", id))
		}
		return nil, fmt.Errorf("scan extraction result: %w", err)
	}

	var result domain.ExtractionResult
	if err := json.Unmarshal(themesRaw, &result.Themes); err != nil {
		return nil, fmt.Errorf("unmarshal themes: %w", err)
	}
	if err := json.Unmarshal(statsRaw, &result.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	return &result, nil
}
