package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/jdoyin/textmill/internal/chunker"
	"github.com/jdoyin/textmill/internal/common"
	"github.com/jdoyin/textmill/internal/job"
)

func newTestJSONStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book_chunked.json")
	return NewJSONStore(path, nil), path
}

func seedJob() *job.Job {
	j := job.New("book", []string{"first ", "second ", "third"}, 10)
	j.Chunks[0].MarkDone("FIRST ")
	j.Chunks[0].Attempts = 1
	j.Chunks[1].MarkError("rate limited")
	j.Chunks[1].Attempts = 2
	return j
}

func TestJSONStoreRoundTrip(t *testing.T) {
	s, _ := newTestJSONStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, seedJob()); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Meta.DocumentID != "book" || got.Meta.ChunkSize != 10 || got.Meta.TotalChunks != 3 {
		t.Fatalf("meta mismatch: %+v", got.Meta)
	}
	if got.Chunks[0].Status != job.StatusDone || got.Chunks[0].Result == nil || *got.Chunks[0].Result != "FIRST " {
		t.Fatalf("done chunk mismatch: %+v", got.Chunks[0])
	}
	if got.Chunks[0].Attempts != 1 {
		t.Fatalf("attempts not persisted: %+v", got.Chunks[0])
	}
	if got.Chunks[1].Status != job.StatusError || got.Chunks[1].ErrorDetail == nil || *got.Chunks[1].ErrorDetail != "rate limited" {
		t.Fatalf("error chunk mismatch: %+v", got.Chunks[1])
	}
	if got.Chunks[2].Status != job.StatusPending || got.Chunks[2].Result != nil {
		t.Fatalf("pending chunk mismatch: %+v", got.Chunks[2])
	}
}

func TestJSONStoreMultibyteTextSurvivesSaveLoad(t *testing.T) {
	s, _ := newTestJSONStore(t)
	ctx := context.Background()

	// End-to-end over the splitter: CJK text has no boundary characters,
	// so every chunk comes from a hard cut. The reloaded chunks must still
	// concatenate back to the original document.
	text := strings.Repeat("あ", 20)
	parts, err := chunker.Split(text, 10)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if err := s.Create(ctx, job.New("book", parts, 10)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var rebuilt strings.Builder
	for i, c := range got.Chunks {
		if !utf8.ValidString(c.Text) {
			t.Errorf("chunk %d is not valid UTF-8 after reload: %q", i, c.Text)
		}
		rebuilt.WriteString(c.Text)
	}
	if rebuilt.String() != text {
		t.Fatalf("document corrupted through save/load: got %q", rebuilt.String())
	}
}

func TestJSONStoreSaveReflectsTransitions(t *testing.T) {
	s, _ := newTestJSONStore(t)
	ctx := context.Background()

	j := job.New("book", []string{"only"}, 10)
	if err := s.Create(ctx, j); err != nil {
		t.Fatalf("create: %v", err)
	}

	j.Chunks[0].MarkDone("ONLY")
	j.Chunks[0].Attempts = 1
	if err := s.Save(ctx, j); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !got.Chunks[0].Done() || *got.Chunks[0].Result != "ONLY" {
		t.Fatalf("transition not persisted: %+v", got.Chunks[0])
	}
}

func TestJSONStoreCreateOverwrites(t *testing.T) {
	s, _ := newTestJSONStore(t)
	ctx := context.Background()

	if err := s.Create(ctx, seedJob()); err != nil {
		t.Fatalf("first create: %v", err)
	}
	fresh := job.New("book", []string{"new split"}, 20)
	if err := s.Create(ctx, fresh); err != nil {
		t.Fatalf("second create: %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Chunks) != 1 || got.Meta.ChunkSize != 20 {
		t.Fatalf("expected overwritten job, got %+v", got.Meta)
	}
}

func TestJSONStoreLoadMissing(t *testing.T) {
	s, _ := newTestJSONStore(t)
	if _, err := s.Load(context.Background()); !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestJSONStoreLoadGarbage(t *testing.T) {
	s, path := newTestJSONStore(t)
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Load(context.Background()); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestJSONStoreLoadRejectsBadStatus(t *testing.T) {
	s, path := newTestJSONStore(t)
	artifact := map[string]any{
		"meta": map[string]any{"document_id": "book", "chunk_size": 10, "total_chunks": 1},
		"chunks": []map[string]any{
			{"index": 0, "text": "x", "status": "exploded", "result": nil, "error_detail": nil},
		},
	}
	b, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Load(context.Background()); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestJSONStoreLoadRejectsIllegalDoneChunk(t *testing.T) {
	s, path := newTestJSONStore(t)
	// Status says done but there is no result; the artifact parses and
	// matches the schema shape, yet the state itself is illegal.
	artifact := map[string]any{
		"meta": map[string]any{"document_id": "book", "chunk_size": 10, "total_chunks": 1},
		"chunks": []map[string]any{
			{"index": 0, "text": "x", "status": "done", "result": nil, "error_detail": nil},
		},
	}
	b, err := json.Marshal(artifact)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := s.Load(context.Background()); !errors.Is(err, common.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestJSONStoreLeavesNoTempFiles(t *testing.T) {
	s, path := newTestJSONStore(t)
	ctx := context.Background()
	j := seedJob()
	if err := s.Create(ctx, j); err != nil {
		t.Fatalf("create: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := s.Save(ctx, j); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the artifact on disk, found %d entries", len(entries))
	}
}
