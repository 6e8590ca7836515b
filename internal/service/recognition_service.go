package service

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"home-cloud/internal/event"
	"home-cloud/internal/media/guess"
	"home-cloud/internal/media/tmdb"
	"home-cloud/internal/model"
	"home-cloud/internal/storage"
)

const posterFilename = "poster.jpg"

// MetadataSearcher is the seam to the external metadata service. A nil
// searcher (no API key configured) degrades every video to unrecognized.
type MetadataSearcher interface {
	SearchMulti(ctx context.Context, query string) ([]tmdb.Result, error)
	DownloadPoster(ctx context.Context, posterPath string) ([]byte, error)
}

var videoExtensions = map[string]struct{}{
	".mp4": {}, ".mkv": {}, ".avi": {}, ".mov": {},
	".wmv": {}, ".flv": {}, ".webm": {}, ".m4v": {},
}

func IsVideoFilename(name string) bool {
	_, ok := videoExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// RecognitionService organizes stored video files into per-title folders
// based on metadata lookups. Every step is best-effort: failures downgrade
// the outcome, never the enclosing upload.
type RecognitionService struct {
	store    *storage.Storage
	searcher MetadataSearcher
	bus      event.Bus
	logger   *slog.Logger
}

func NewRecognitionService(store *storage.Storage, searcher MetadataSearcher, bus event.Bus, logger *slog.Logger) *RecognitionService {
	return &RecognitionService{store: store, searcher: searcher, bus: bus, logger: logger}
}

// Organize runs the pipeline on an already-stored video file and reports
// what happened. The file never leaves its upload folder unless every step
// up to the relocate succeeded.
func (s *RecognitionService) Organize(ctx context.Context, storedAbs string) model.RecognitionRecord {
	filename := filepath.Base(storedAbs)
	record := model.RecognitionRecord{
		Filename:   filename,
		Status:     model.RecognitionUnrecognized,
		StoredPath: s.store.RelPath(storedAbs),
		CreatedAt:  time.Now().UTC(),
	}
	defer func() { s.publishOutcome(record) }()

	guessed, ok := guess.FromFilename(filename)
	if !ok {
		s.logger.Debug("no title guess from filename", "filename", filename)
		return record
	}
	record.GuessedTitle = guessed.Title
	record.GuessedYear = guessed.Year

	if s.searcher == nil {
		s.logger.Debug("metadata search disabled, leaving file as uploaded", "filename", filename)
		return record
	}

	results, err := s.searcher.SearchMulti(ctx, guessed.Title)
	if err != nil {
		s.logger.Warn("metadata search failed", "title", guessed.Title, "error", err)
		return record
	}

	match, ok := tmdb.BestMatch(results, guessed.Year)
	if !ok {
		s.logger.Debug("no usable metadata match", "title", guessed.Title, "year", guessed.Year)
		return record
	}

	official := match.DisplayTitle()
	sanitized := SanitizeTitle(official)
	if sanitized == "" {
		s.logger.Warn("matched title empty after sanitizing", "title", official)
		return record
	}

	// The folder name comes from an external service; hold it to the same
	// rules as a client-supplied name before it touches the filesystem.
	folderName, err := s.store.CleanName(sanitized)
	if err != nil {
		s.logger.Warn("matched title is not a usable folder name", "title", official, "error", err)
		return record
	}

	record.MatchedTitle = official
	record.MediaKind = match.Kind()

	folderAbs := filepath.Join(filepath.Dir(storedAbs), folderName)
	if err := os.MkdirAll(folderAbs, 0o755); err != nil {
		s.logger.Warn("cannot create title folder", "folder", folderName, "error", err)
		record.Status = model.RecognitionPartial
		return record
	}

	targetAbs := filepath.Join(folderAbs, filename)
	if _, err := os.Lstat(targetAbs); err == nil {
		s.logger.Info("target occupied, file stays in upload folder",
			"filename", filename, "folder", folderName)
		record.Status = model.RecognitionPartial
		return record
	} else if !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("cannot stat relocation target", "filename", filename, "error", err)
		record.Status = model.RecognitionPartial
		return record
	}

	if err := os.Rename(storedAbs, targetAbs); err != nil {
		s.logger.Warn("relocation failed, file stays in upload folder",
			"filename", filename, "error", err)
		record.Status = model.RecognitionPartial
		return record
	}

	record.StoredPath = s.store.RelPath(targetAbs)
	record.Status = model.RecognitionOrganized

	s.fetchPoster(ctx, folderAbs, match.PosterPath)

	return record
}

// fetchPoster writes poster.jpg next to the relocated file, atomically via a
// temp file. Skipped when the match has no poster reference or the poster is
// already there; failures are logged only.
func (s *RecognitionService) fetchPoster(ctx context.Context, folderAbs string, posterPath string) {
	if posterPath == "" {
		return
	}

	posterAbs := filepath.Join(folderAbs, posterFilename)
	if _, err := os.Lstat(posterAbs); err == nil {
		return
	}

	data, err := s.searcher.DownloadPoster(ctx, posterPath)
	if err != nil {
		s.logger.Warn("poster download failed", "poster", posterPath, "error", err)
		return
	}

	tmp, err := os.CreateTemp(folderAbs, ".poster-*")
	if err != nil {
		s.logger.Warn("cannot create poster temp file", "folder", folderAbs, "error", err)
		return
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		s.logger.Warn("poster write failed", "folder", folderAbs, "error", err)
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		s.logger.Warn("poster write failed", "folder", folderAbs, "error", err)
		return
	}

	if err := os.Rename(tmpPath, posterAbs); err != nil {
		_ = os.Remove(tmpPath)
		s.logger.Warn("poster rename failed", "folder", folderAbs, "error", err)
	}
}

func (s *RecognitionService) publishOutcome(record model.RecognitionRecord) {
	if s.bus == nil {
		return
	}

	eventType := event.TypeMediaUnrecognized
	if record.Status != model.RecognitionUnrecognized {
		eventType = event.TypeMediaRecognized
	}

	s.bus.Publish(event.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Payload:   record,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	})
}

// SanitizeTitle strips the characters that are illegal in folder names and
// collapses whitespace runs.
func SanitizeTitle(title string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\\', '/', ':', '*', '?', '"', '<', '>', '|':
			return -1
		}
		return r
	}, title)

	return strings.Join(strings.Fields(cleaned), " ")
}
