package service

import (
	"io/fs"
	"os"
	"path/filepath"

	"home-cloud/internal/storage"
)

// DownloadService hands files and directories to the transport layer for
// streaming. Range handling and zip encoding stay in the handler, the
// service only resolves and classifies the target.
type DownloadService struct {
	store *storage.Storage
}

func NewDownloadService(store *storage.Storage) *DownloadService {
	return &DownloadService{store: store}
}

// Open returns the file opened for reading plus its stat info. Directories
// are rejected with TYPE_MISMATCH, callers wanting a directory use
// ArchiveDir instead.
func (s *DownloadService) Open(clientPath string) (*os.File, fs.FileInfo, error) {
	return s.store.OpenForRead(clientPath)
}

// ArchiveDir resolves an existing directory and derives the archive name
// clients see. The media root itself archives as "media.zip".
func (s *DownloadService) ArchiveDir(clientPath string) (string, string, error) {
	resolved, err := s.store.ResolveDir(clientPath)
	if err != nil {
		return "", "", err
	}

	name := filepath.Base(resolved)
	if s.store.IsRoot(resolved) {
		name = "media"
	}

	return resolved, name + ".zip", nil
}
