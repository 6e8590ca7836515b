package service

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"home-cloud/internal/event"
	"home-cloud/internal/model"
	"home-cloud/pkg/apierror"
)

type uploadPart struct {
	name    string
	content string
}

func multipartBody(t *testing.T, destPath string, files []uploadPart) *multipart.Reader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if destPath != "" {
		require.NoError(t, writer.WriteField("path", destPath))
	}
	for _, file := range files {
		formFile, err := writer.CreateFormFile("files", file.name)
		require.NoError(t, err)
		_, err = io.WriteString(formFile, file.content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	return multipart.NewReader(&buf, writer.Boundary())
}

type stubOrganizer struct {
	mu     sync.Mutex
	record model.RecognitionRecord
	calls  []string
}

func (s *stubOrganizer) Organize(_ context.Context, storedAbs string) model.RecognitionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, storedAbs)
	record := s.record
	record.Filename = filepath.Base(storedAbs)

	return record
}

func (s *stubOrganizer) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.calls)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUploadStoresFiles(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	svc := NewUploadService(store, nil, event.NewBus(), discardLogger())
	require.NoError(t, os.Mkdir(filepath.Join(store.RootAbs(), "inbox"), 0o755))

	reader := multipartBody(t, "/inbox", []uploadPart{
		{name: "a.txt", content: "alpha"},
		{name: "b.txt", content: "bravo"},
	})

	resp, err := svc.Ingest(context.Background(), reader)
	require.NoError(t, err)
	require.Equal(t, "2 stored, 0 skipped, 0 failed", resp.Message)
	require.Equal(t, []string{"a.txt: stored", "b.txt: stored"}, resp.Details)

	stored, err := os.ReadFile(filepath.Join(store.RootAbs(), "inbox", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "alpha", string(stored))
}

func TestUploadDefaultsToRoot(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	svc := NewUploadService(store, nil, event.NewBus(), discardLogger())

	reader := multipartBody(t, "", []uploadPart{{name: "root.txt", content: "r"}})

	resp, err := svc.Ingest(context.Background(), reader)
	require.NoError(t, err)
	require.Equal(t, "1 stored, 0 skipped, 0 failed", resp.Message)
	require.FileExists(t, filepath.Join(store.RootAbs(), "root.txt"))
}

func TestUploadSkipsExisting(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	svc := NewUploadService(store, nil, event.NewBus(), discardLogger())
	writeFile(t, store.RootAbs(), "report.txt", "original")

	reader := multipartBody(t, "/", []uploadPart{{name: "report.txt", content: "replacement"}})

	resp, err := svc.Ingest(context.Background(), reader)
	require.NoError(t, err)
	require.Equal(t, "0 stored, 1 skipped, 0 failed", resp.Message)
	require.Equal(t, []string{"report.txt: skipped (already exists)"}, resp.Details)

	kept, err := os.ReadFile(filepath.Join(store.RootAbs(), "report.txt"))
	require.NoError(t, err)
	require.Equal(t, "original", string(kept))
}

func TestUploadContinuesAfterFailedItem(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	svc := NewUploadService(store, nil, event.NewBus(), discardLogger())

	reader := multipartBody(t, "/", []uploadPart{
		{name: "..", content: "nope"},
		{name: "good.txt", content: "fine"},
	})

	resp, err := svc.Ingest(context.Background(), reader)
	require.NoError(t, err)
	require.Equal(t, "1 stored, 0 skipped, 1 failed", resp.Message)
	require.Equal(t, []string{"..: failed (invalid filename)", "good.txt: stored"}, resp.Details)
	require.FileExists(t, filepath.Join(store.RootAbs(), "good.txt"))
}

func TestUploadRejectsBadDestination(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	svc := NewUploadService(store, nil, event.NewBus(), discardLogger())

	t.Run("missing directory", func(t *testing.T) {
		reader := multipartBody(t, "/missing", []uploadPart{{name: "a.txt", content: "x"}})

		_, err := svc.Ingest(context.Background(), reader)
		requireAPIError(t, err, apierror.CodeNotFound)
	})

	t.Run("destination validated even without files", func(t *testing.T) {
		reader := multipartBody(t, "/missing", nil)

		_, err := svc.Ingest(context.Background(), reader)
		requireAPIError(t, err, apierror.CodeNotFound)
	})
}

func TestUploadRunsRecognitionForVideos(t *testing.T) {
	t.Parallel()

	t.Run("organized video gets the organized detail", func(t *testing.T) {
		store := newTestStorage(t)
		organizer := &stubOrganizer{record: model.RecognitionRecord{
			Status:       model.RecognitionOrganized,
			MatchedTitle: "Inception (2010)",
		}}
		svc := NewUploadService(store, organizer, event.NewBus(), discardLogger())

		reader := multipartBody(t, "/", []uploadPart{
			{name: "Inception.2010.1080p.mkv", content: "video"},
			{name: "notes.txt", content: "text"},
		})

		resp, err := svc.Ingest(context.Background(), reader)
		require.NoError(t, err)
		require.Equal(t, "2 stored, 0 skipped, 0 failed", resp.Message)
		require.Contains(t, resp.Details, "Inception.2010.1080p.mkv: stored (organized as Inception (2010))")
		require.Contains(t, resp.Details, "notes.txt: stored")
		require.Equal(t, 1, organizer.callCount())
	})

	t.Run("partial recognition keeps the file where it landed", func(t *testing.T) {
		store := newTestStorage(t)
		organizer := &stubOrganizer{record: model.RecognitionRecord{
			Status:       model.RecognitionPartial,
			MatchedTitle: "Dune",
		}}
		svc := NewUploadService(store, organizer, event.NewBus(), discardLogger())

		reader := multipartBody(t, "/", []uploadPart{{name: "dune.mp4", content: "video"}})

		resp, err := svc.Ingest(context.Background(), reader)
		require.NoError(t, err)
		require.Equal(t, []string{"dune.mp4: stored (recognized as Dune, not moved)"}, resp.Details)
	})

	t.Run("unrecognized video keeps the plain detail", func(t *testing.T) {
		store := newTestStorage(t)
		organizer := &stubOrganizer{record: model.RecognitionRecord{
			Status: model.RecognitionUnrecognized,
		}}
		svc := NewUploadService(store, organizer, event.NewBus(), discardLogger())

		reader := multipartBody(t, "/", []uploadPart{{name: "clip.webm", content: "video"}})

		resp, err := svc.Ingest(context.Background(), reader)
		require.NoError(t, err)
		require.Equal(t, []string{"clip.webm: stored"}, resp.Details)
		require.Equal(t, 1, organizer.callCount())
	})
}

func TestUploadPublishesEvents(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	t.Cleanup(unsubscribe)
	svc := NewUploadService(store, nil, bus, discardLogger())

	reader := multipartBody(t, "/", []uploadPart{{name: "a.txt", content: "x"}})

	_, err := svc.Ingest(context.Background(), reader)
	require.NoError(t, err)

	select {
	case e := <-events:
		require.Equal(t, event.TypeFileUploaded, e.Type)
	default:
		t.Fatal("no file.uploaded event published")
	}
}
