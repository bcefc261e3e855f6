package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	_ "modernc.org/sqlite"

	"github.com/jdoyin/textmill/internal/common"
	"github.com/jdoyin/textmill/internal/job"
)

// SQLiteStore keeps one job per database file: a single meta row plus one
// row per chunk. Saves run in a transaction, which gives the same
// crash-consistency as the JSON rewrite without rewriting unchanged chunk
// text on every transition.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

func OpenSQLite(path string, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, common.WrapError(err, "open sqlite store")
	}
	s := &SQLiteStore{db: db, log: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, common.WrapError(err, "migrate sqlite store")
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS job_meta (
  document_id  TEXT PRIMARY KEY,
  chunk_size   INTEGER NOT NULL,
  total_chunks INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS chunks (
  idx          INTEGER PRIMARY KEY,
  text         TEXT NOT NULL,
  status       TEXT NOT NULL,
  result       TEXT,
  error_detail TEXT,
  attempts     INTEGER NOT NULL DEFAULT 0
);
`)
	return err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Create(ctx context.Context, j *job.Job) error {
	if err := j.Validate(); err != nil {
		return common.NewAppError("JOB_INVALID", "refusing to create inconsistent job", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.WrapError(err, "begin create")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks`); err != nil {
		return common.WrapError(err, "clear chunks")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM job_meta`); err != nil {
		return common.WrapError(err, "clear meta")
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO job_meta(document_id, chunk_size, total_chunks) VALUES(?,?,?)`,
		j.Meta.DocumentID, j.Meta.ChunkSize, j.Meta.TotalChunks); err != nil {
		return common.WrapError(err, "insert meta")
	}
	for i := range j.Chunks {
		c := &j.Chunks[i]
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks(idx, text, status, result, error_detail, attempts) VALUES(?,?,?,?,?,?)`,
			c.Index, c.Text, string(c.Status), nullableString(c.Result), nullableString(c.ErrorDetail), c.Attempts); err != nil {
			return common.WrapError(err, "insert chunk")
		}
	}
	if err := tx.Commit(); err != nil {
		return common.WrapError(err, "commit create")
	}
	s.log.Info("job created", "document_id", j.Meta.DocumentID, "chunks", j.Meta.TotalChunks)
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*job.Job, error) {
	var j job.Job
	row := s.db.QueryRowContext(ctx, `SELECT document_id, chunk_size, total_chunks FROM job_meta`)
	if err := row.Scan(&j.Meta.DocumentID, &j.Meta.ChunkSize, &j.Meta.TotalChunks); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewAppError("JOB_NOT_FOUND", "no job in sqlite store", common.ErrNotFound)
		}
		return nil, common.WrapError(err, "load meta")
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT idx, text, status, result, error_detail, attempts FROM chunks ORDER BY idx`)
	if err != nil {
		return nil, common.WrapError(err, "load chunks")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c      job.Chunk
			status string
			result sql.NullString
			detail sql.NullString
		)
		if err := rows.Scan(&c.Index, &c.Text, &status, &result, &detail, &c.Attempts); err != nil {
			return nil, common.WrapError(err, "scan chunk")
		}
		c.Status = job.Status(status)
		if result.Valid {
			v := result.String
			c.Result = &v
		}
		if detail.Valid {
			v := detail.String
			c.ErrorDetail = &v
		}
		j.Chunks = append(j.Chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, common.WrapError(err, "iterate chunks")
	}

	if err := j.Validate(); err != nil {
		s.log.Error("sqlite job inconsistent", "document_id", j.Meta.DocumentID, "error", err)
		return nil, common.NewAppError("JOB_MALFORMED", "sqlite job state is inconsistent", common.ErrInvalidInput)
	}
	return &j, nil
}

func (s *SQLiteStore) Save(ctx context.Context, j *job.Job) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.NewAppError("JOB_SAVE_FAILED", "begin save", err)
	}
	defer tx.Rollback()

	// Chunk text is immutable after creation; only status fields change.
	for i := range j.Chunks {
		c := &j.Chunks[i]
		if _, err := tx.ExecContext(ctx,
			`UPDATE chunks SET status=?, result=?, error_detail=?, attempts=? WHERE idx=?`,
			string(c.Status), nullableString(c.Result), nullableString(c.ErrorDetail), c.Attempts, c.Index); err != nil {
			return common.NewAppError("JOB_SAVE_FAILED", "update chunk", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return common.NewAppError("JOB_SAVE_FAILED", "commit save", err)
	}
	return nil
}

func nullableString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
