package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"home-cloud/internal/event"
	"home-cloud/internal/model"
	"home-cloud/internal/storage"
	"home-cloud/pkg/apierror"
)

const (
	uploadChunkSize   = 1 << 20
	maxFieldValueSize = 4096
)

// Organizer hands stored video files to the recognition pipeline. Its result
// only ever annotates the item detail.
type Organizer interface {
	Organize(ctx context.Context, storedAbs string) model.RecognitionRecord
}

// UploadService ingests multipart uploads part by part, in stream order.
// Individual item failures never abort the batch.
type UploadService struct {
	store     *storage.Storage
	organizer Organizer
	bus       event.Bus
	logger    *slog.Logger
}

func NewUploadService(store *storage.Storage, organizer Organizer, bus event.Bus, logger *slog.Logger) *UploadService {
	return &UploadService{store: store, organizer: organizer, bus: bus, logger: logger}
}

// Ingest consumes the multipart stream. The `path` field selects the
// destination directory and must precede the file parts; the destination is
// locked once the first file arrives. Only a malformed request or a bad
// destination fails the call; everything else is a per-item outcome.
func (s *UploadService) Ingest(ctx context.Context, reader *multipart.Reader) (model.UploadResponse, error) {
	destPath := ""
	destAbs := ""
	outcomes := make([]model.UploadOutcome, 0, 4)

	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if isBodyTooLarge(err) {
				return model.UploadResponse{}, apierror.New(apierror.CodePayloadTooLarge,
					"request body exceeds the upload limit", "", http.StatusRequestEntityTooLarge)
			}
			return model.UploadResponse{}, apierror.InvalidRequest("malformed multipart request", err.Error())
		}

		if part.FileName() == "" {
			if part.FormName() == "path" && destAbs == "" {
				if value, readErr := readFieldValue(part); readErr == nil {
					destPath = value
				}
			}
			_ = part.Close()
			continue
		}

		if destAbs == "" {
			resolved, resolveErr := s.store.ResolveDir(destPath)
			if resolveErr != nil {
				_ = part.Close()
				return model.UploadResponse{}, resolveErr
			}
			destAbs = resolved
		}

		outcome := s.storeFile(ctx, destAbs, part.FileName(), part)
		_ = part.Close()
		outcomes = append(outcomes, outcome)
	}

	if destAbs == "" {
		// No file parts: still surface a bad destination.
		if _, err := s.store.ResolveDir(destPath); err != nil {
			return model.UploadResponse{}, err
		}
	}

	return buildUploadResponse(outcomes), nil
}

// storeFile writes one part to disk and, for video files, runs recognition.
// The part reader is drained by the caller advancing the multipart stream.
func (s *UploadService) storeFile(ctx context.Context, destAbs string, rawName string, r io.Reader) model.UploadOutcome {
	clean, err := s.store.CleanName(rawName)
	if err != nil {
		return failedOutcome(rawName, "invalid filename")
	}

	targetAbs := filepath.Join(destAbs, clean)

	file, err := os.OpenFile(targetAbs, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return model.UploadOutcome{
				Name:   clean,
				Status: model.UploadSkipped,
				Detail: fmt.Sprintf("%s: skipped (already exists)", clean),
			}
		}
		if errors.Is(err, fs.ErrPermission) {
			return failedOutcome(clean, "permission denied")
		}
		return failedOutcome(clean, err.Error())
	}

	written, err := io.CopyBuffer(file, r, make([]byte, uploadChunkSize))
	if err != nil {
		_ = file.Close()
		_ = os.Remove(targetAbs)
		return failedOutcome(clean, "write failed: "+err.Error())
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(targetAbs)
		return failedOutcome(clean, "write failed: "+err.Error())
	}

	storedRel := s.store.RelPath(targetAbs)
	s.publish(event.TypeFileUploaded, map[string]interface{}{
		"name": clean,
		"path": storedRel,
		"size": written,
	})
	s.logger.Info("file stored", "name", clean, "path", storedRel, "size", written)

	detail := clean + ": stored"
	if s.organizer != nil && IsVideoFilename(clean) {
		record := s.organizer.Organize(ctx, targetAbs)
		switch record.Status {
		case model.RecognitionOrganized:
			detail = fmt.Sprintf("%s: stored (organized as %s)", clean, record.MatchedTitle)
		case model.RecognitionPartial:
			detail = fmt.Sprintf("%s: stored (recognized as %s, not moved)", clean, record.MatchedTitle)
		}
	}

	return model.UploadOutcome{Name: clean, Status: model.UploadStored, Detail: detail}
}

func failedOutcome(name string, reason string) model.UploadOutcome {
	return model.UploadOutcome{
		Name:   name,
		Status: model.UploadFailed,
		Detail: fmt.Sprintf("%s: failed (%s)", name, reason),
	}
}

func buildUploadResponse(outcomes []model.UploadOutcome) model.UploadResponse {
	var stored, skipped, failed int
	details := make([]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		details = append(details, outcome.Detail)
		switch outcome.Status {
		case model.UploadStored:
			stored++
		case model.UploadSkipped:
			skipped++
		default:
			failed++
		}
	}

	return model.UploadResponse{
		Message: fmt.Sprintf("%d stored, %d skipped, %d failed", stored, skipped, failed),
		Details: details,
	}
}

func readFieldValue(part *multipart.Part) (string, error) {
	data, err := io.ReadAll(io.LimitReader(part, maxFieldValueSize))
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

func (s *UploadService) publish(eventType event.Type, payload interface{}) {
	if s.bus == nil {
		return
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}
