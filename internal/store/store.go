package store

import (
	"context"
	"log/slog"
	"strings"

	"github.com/jdoyin/textmill/internal/job"
)

// Store persists the job artifact for one document. Create always
// overwrites any existing artifact; Load fails with common.ErrNotFound when
// the artifact is absent and with common.ErrInvalidInput when it is
// malformed. Save must be atomic enough that a concurrent reader never
// observes a torn write.
type Store interface {
	Create(ctx context.Context, j *job.Job) error
	Load(ctx context.Context) (*job.Job, error)
	Save(ctx context.Context, j *job.Job) error
	Close() error
}

// Open selects a backend from the artifact path: ".db" files get the
// SQLite store, everything else the whole-document JSON store.
func Open(path string, logger *slog.Logger) (Store, error) {
	if strings.HasSuffix(path, ".db") {
		return OpenSQLite(path, logger)
	}
	return NewJSONStore(path, logger), nil
}
