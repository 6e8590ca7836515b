package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"home-cloud/pkg/apierror"
)

// Storage owns the media root and is the only way services obtain absolute
// paths. Everything it hands out has passed sandbox resolution.
type Storage struct {
	validator *PathValidator
}

func New(root string) (*Storage, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve media root: %w", err)
	}

	if err := os.MkdirAll(rootAbs, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}

	validator, err := NewPathValidator(rootAbs)
	if err != nil {
		return nil, err
	}

	return &Storage{validator: validator}, nil
}

func (s *Storage) RootAbs() string {
	return s.validator.RootAbs()
}

func (s *Storage) IsRoot(abs string) bool {
	return s.validator.IsRoot(abs)
}

func (s *Storage) Resolve(clientPath string) (string, error) {
	return s.validator.ResolvePath(clientPath)
}

func (s *Storage) CleanName(name string) (string, error) {
	return s.validator.CleanName(name)
}

// Contains reports whether childAbs equals parentAbs or lives underneath it.
// Both arguments must already be sandbox-resolved absolute paths.
func (s *Storage) Contains(parentAbs string, childAbs string) bool {
	return isWithinRoot(parentAbs, childAbs)
}

// ResolveExisting resolves and stats; missing targets become NOT_FOUND.
func (s *Storage) ResolveExisting(clientPath string) (string, fs.FileInfo, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return "", nil, err
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", nil, mapStatError(clientPath, err)
	}

	return resolved, info, nil
}

// ResolveDir resolves and requires an existing directory.
func (s *Storage) ResolveDir(clientPath string) (string, error) {
	resolved, info, err := s.ResolveExisting(clientPath)
	if err != nil {
		return "", err
	}

	if !info.IsDir() {
		return "", apierror.NotADirectory(clientPath)
	}

	return resolved, nil
}

// Child joins a validated leaf name onto an already-resolved directory.
func (s *Storage) Child(dirAbs string, name string) (string, error) {
	clean, err := s.validator.CleanName(name)
	if err != nil {
		return "", err
	}

	return filepath.Join(dirAbs, clean), nil
}

// EnsureDir resolves a client path and creates the directory chain under it.
// Used for the fixed upload, photos and library category folders.
func (s *Storage) EnsureDir(clientPath string) (string, error) {
	resolved, err := s.Resolve(clientPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(resolved, 0o755); err != nil {
		return "", fmt.Errorf("create directory %q: %w", clientPath, err)
	}

	return resolved, nil
}

func (s *Storage) OpenForRead(clientPath string) (*os.File, fs.FileInfo, error) {
	resolved, info, err := s.ResolveExisting(clientPath)
	if err != nil {
		return nil, nil, err
	}

	if info.IsDir() {
		return nil, nil, apierror.TypeMismatch(clientPath)
	}

	file, err := os.Open(resolved)
	if err != nil {
		return nil, nil, mapStatError(clientPath, err)
	}

	return file, info, nil
}

// RelPath converts an absolute path inside the root back to the client
// form: slash-separated with a leading "/".
func (s *Storage) RelPath(abs string) string {
	rel, err := filepath.Rel(s.validator.RootAbs(), abs)
	if err != nil || rel == "." {
		return "/"
	}

	return "/" + filepath.ToSlash(rel)
}

func mapStatError(clientPath string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apierror.NotFound(clientPath)
	case errors.Is(err, fs.ErrPermission):
		return apierror.PermissionDenied(clientPath)
	default:
		return fmt.Errorf("stat %q: %w", clientPath, err)
	}
}
