package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"promptstudio/internal/providers/image"
	"promptstudio/internal/providers/wavespeed"
	"promptstudio/internal/storage"
)

type execStub struct {
	err   error
	calls [][]any
}

func (s *execStub) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.calls = append(s.calls, args)
	return pgconn.CommandTag{}, s.err
}

func (s *execStub) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	return nil
}

func (s *execStub) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, nil
}

func testWorker(t *testing.T, sql *execStub) *jobWorker {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	wsClient, err := wavespeed.NewClient(wavespeed.Options{})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return &jobWorker{
		ctx:    context.Background(),
		runner: sql,
		logger: zerolog.New(io.Discard),
		imageProviders: map[string]image.Generator{
			"seedream": image.NewSeedream(wsClient),
		},
		store: store,
	}
}

func imageJob(id string) job {
	return job{
		ID:         id,
		TaskType:   "IMAGE_GEN",
		Provider:   "seedream",
		Quantity:   1,
		Aspect:     "1:1",
		Prompt:     json.RawMessage(`{"subject":"a red barn"}`),
		Properties: json.RawMessage(`{"prompt":"a red barn at dawn"}`),
	}
}

func TestProcessImageJobFailsWhenNoAssetStored(t *testing.T) {
	sql := &execStub{err: errors.New("db unavailable")}
	w := testWorker(t, sql)

	if err := w.processImageJob(imageJob("job-1")); err == nil {
		t.Fatal("expected error when every asset row insert fails")
	}
}

func TestProcessImageJobPersistsArtifactWithThumbnail(t *testing.T) {
	sql := &execStub{}
	w := testWorker(t, sql)

	if err := w.processImageJob(imageJob("job-2")); err != nil {
		t.Fatalf("process image job: %v", err)
	}
	if len(sql.calls) != 1 {
		t.Fatalf("asset inserts = %d", len(sql.calls))
	}
	props, ok := sql.calls[0][5].(json.RawMessage)
	if !ok {
		t.Fatalf("properties arg type = %T", sql.calls[0][5])
	}
	if !bytes.Contains(props, []byte("thumbnail_key")) {
		t.Fatalf("properties missing thumbnail key: %s", props)
	}
}

func TestPersistArtifactsRejectsEscapingStorageKey(t *testing.T) {
	sql := &execStub{}
	w := testWorker(t, sql)

	err := w.persistArtifacts(imageJob("job-3"), "VIDEO", []wavespeed.Artifact{{
		StorageKey: "../escape.mp4",
		MIME:       "video/mp4",
		Data:       []byte("not a real video"),
	}})
	if err == nil {
		t.Fatal("expected error for traversal storage key")
	}
	if len(sql.calls) != 0 {
		t.Fatalf("asset inserts = %d, want none", len(sql.calls))
	}
}
