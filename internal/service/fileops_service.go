package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"home-cloud/internal/event"
	"home-cloud/internal/model"
	"home-cloud/internal/storage"
	"home-cloud/pkg/apierror"
)

type FileOpsService struct {
	store *storage.Storage
	bus   event.Bus
}

func NewFileOpsService(store *storage.Storage, bus event.Bus) *FileOpsService {
	return &FileOpsService{store: store, bus: bus}
}

// Mkdir creates a single directory under an existing parent. Intermediate
// directories are never created.
func (s *FileOpsService) Mkdir(_ context.Context, parentPath string, folderName string) (string, error) {
	parentAbs, err := s.store.ResolveDir(parentPath)
	if err != nil {
		return "", err
	}

	target, err := s.store.Child(parentAbs, folderName)
	if err != nil {
		return "", err
	}

	if err := os.Mkdir(target, 0o755); err != nil {
		switch {
		case errors.Is(err, fs.ErrExist):
			return "", apierror.AlreadyExists(folderName)
		case errors.Is(err, fs.ErrNotExist):
			return "", apierror.NotFound(parentPath)
		case errors.Is(err, fs.ErrPermission):
			return "", apierror.PermissionDenied(folderName)
		default:
			return "", fmt.Errorf("create directory %q: %w", folderName, err)
		}
	}

	newPath := s.store.RelPath(target)
	s.publish(event.TypeDirCreated, map[string]string{"path": newPath})

	return newPath, nil
}

// Delete removes one entry. The declared kind must match the actual kind;
// directories are removed recursively. The media root itself is untouchable.
func (s *FileOpsService) Delete(_ context.Context, req model.DeleteRequest) error {
	parentAbs, err := s.store.ResolveDir(req.Path)
	if err != nil {
		return err
	}

	if strings.TrimSpace(req.Name) == "" {
		return apierror.Forbidden("the media root cannot be deleted", req.Path)
	}

	target, err := s.store.Child(parentAbs, req.Name)
	if err != nil {
		return err
	}

	if s.store.IsRoot(target) {
		return apierror.Forbidden("the media root cannot be deleted", req.Path)
	}

	info, err := os.Stat(target)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return apierror.NotFound(req.Name)
		case errors.Is(err, fs.ErrPermission):
			return apierror.PermissionDenied(req.Name)
		default:
			return fmt.Errorf("stat %q: %w", req.Name, err)
		}
	}

	if info.IsDir() != req.IsDir {
		return apierror.TypeMismatch(req.Name)
	}

	if req.IsDir {
		err = os.RemoveAll(target)
	} else {
		err = os.Remove(target)
	}
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return apierror.PermissionDenied(req.Name)
		}
		return fmt.Errorf("delete %q: %w", req.Name, err)
	}

	s.publish(event.TypeFileDeleted, map[string]string{
		"path":   s.store.RelPath(target),
		"is_dir": fmt.Sprintf("%t", req.IsDir),
	})

	return nil
}

// MoveOrCopy relocates or duplicates one entry. The destination name must be
// free; nothing is ever overwritten. Returns the new client-relative path.
func (s *FileOpsService) MoveOrCopy(_ context.Context, req model.MoveCopyRequest) (string, error) {
	if req.Mode != model.ModeCopy && req.Mode != model.ModeCut {
		return "", apierror.InvalidRequest(`mode must be "copy" or "cut"`, req.Mode)
	}

	srcParentAbs, err := s.store.ResolveDir(req.SrcPath)
	if err != nil {
		return "", err
	}

	srcAbs, err := s.store.Child(srcParentAbs, req.Name)
	if err != nil {
		return "", err
	}

	srcInfo, err := os.Stat(srcAbs)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return "", apierror.NotFound(req.Name)
		case errors.Is(err, fs.ErrPermission):
			return "", apierror.PermissionDenied(req.Name)
		default:
			return "", fmt.Errorf("stat %q: %w", req.Name, err)
		}
	}

	if srcInfo.IsDir() != req.IsDir {
		return "", apierror.TypeMismatch(req.Name)
	}

	dstParentAbs, err := s.store.ResolveDir(req.DstPath)
	if err != nil {
		return "", err
	}

	if req.IsDir && s.store.Contains(srcAbs, dstParentAbs) {
		return "", apierror.New(apierror.CodeOutOfBounds,
			"destination lies inside the source directory", req.DstPath, http.StatusForbidden)
	}

	dstAbs, err := s.store.Child(dstParentAbs, req.Name)
	if err != nil {
		return "", err
	}

	if _, err := os.Lstat(dstAbs); err == nil {
		return "", apierror.AlreadyExists(req.Name)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("stat destination %q: %w", req.Name, err)
	}

	if req.Mode == model.ModeCut {
		if err := s.move(srcAbs, dstAbs, req.Name); err != nil {
			return "", err
		}
	} else {
		if err := copyRecursive(srcAbs, dstAbs); err != nil {
			_ = os.RemoveAll(dstAbs)
			if errors.Is(err, fs.ErrPermission) {
				return "", apierror.PermissionDenied(req.Name)
			}
			return "", fmt.Errorf("copy %q: %w", req.Name, err)
		}
	}

	dstRel := s.store.RelPath(dstAbs)

	eventType := event.TypeFileCopied
	if req.Mode == model.ModeCut {
		eventType = event.TypeFileMoved
	}
	s.publish(eventType, map[string]string{
		"from": s.store.RelPath(srcAbs),
		"to":   dstRel,
	})

	return dstRel, nil
}

// move renames when possible and falls back to copy + delete across
// filesystems. The source survives unless the copy fully succeeded.
func (s *FileOpsService) move(srcAbs string, dstAbs string, name string) error {
	err := os.Rename(srcAbs, dstAbs)
	if err == nil {
		return nil
	}

	if !isCrossDevice(err) {
		switch {
		case errors.Is(err, fs.ErrExist):
			return apierror.AlreadyExists(name)
		case errors.Is(err, fs.ErrPermission):
			return apierror.PermissionDenied(name)
		default:
			return fmt.Errorf("move %q: %w", name, err)
		}
	}

	if copyErr := copyRecursive(srcAbs, dstAbs); copyErr != nil {
		_ = os.RemoveAll(dstAbs)
		return fmt.Errorf("move %q across filesystems: %w", name, copyErr)
	}

	if rmErr := os.RemoveAll(srcAbs); rmErr != nil {
		return fmt.Errorf("remove source %q after move: %w", name, rmErr)
	}

	return nil
}

func isCrossDevice(err error) bool {
	var linkErr *os.LinkError
	if errors.As(err, &linkErr) {
		return errors.Is(linkErr.Err, syscall.EXDEV)
	}

	return false
}

// copyRecursive duplicates a file or directory tree, preserving file modes
// and skipping symlinks. Destination entries are created exclusively so a
// concurrent writer surfaces as an OS error instead of silent overwrite.
func copyRecursive(source string, target string) error {
	info, err := os.Stat(source)
	if err != nil {
		return err
	}

	if info.IsDir() {
		if err := os.MkdirAll(target, info.Mode().Perm()); err != nil {
			return err
		}

		entries, err := os.ReadDir(source)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			if entry.Type()&os.ModeSymlink != 0 {
				continue
			}
			if err := copyRecursive(filepath.Join(source, entry.Name()), filepath.Join(target, entry.Name())); err != nil {
				return err
			}
		}

		return nil
	}

	sourceFile, err := os.Open(source)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	targetFile, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(targetFile, sourceFile); err != nil {
		_ = targetFile.Close()
		return err
	}

	return targetFile.Close()
}

func (s *FileOpsService) publish(eventType event.Type, payload interface{}) {
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
