package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"time"

	"home-cloud/internal/model"
	"home-cloud/internal/storage"
	"home-cloud/pkg/apierror"
)

type BrowseService struct {
	store *storage.Storage
}

func NewBrowseService(store *storage.Storage) *BrowseService {
	return &BrowseService{store: store}
}

// List returns the direct children of the requested directory, folders first,
// then case-insensitive by name.
func (s *BrowseService) List(_ context.Context, requestedPath string) (model.BrowseResponse, error) {
	resolved, err := s.store.ResolveDir(requestedPath)
	if err != nil {
		return model.BrowseResponse{}, err
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return model.BrowseResponse{}, apierror.NotFound(requestedPath)
		case errors.Is(err, fs.ErrPermission):
			return model.BrowseResponse{}, apierror.PermissionDenied(requestedPath)
		default:
			return model.BrowseResponse{}, err
		}
	}

	items := make([]model.Entry, 0, len(entries))
	for _, entry := range entries {
		info, infoErr := entry.Info()
		if infoErr != nil {
			// Entry vanished between readdir and stat.
			continue
		}

		item := model.Entry{
			Name:     entry.Name(),
			IsDir:    entry.IsDir(),
			Modified: info.ModTime().UTC().Format(time.RFC3339),
		}
		if !entry.IsDir() {
			item.Size = info.Size()
		}

		items = append(items, item)
	}

	sortEntries(items)

	return model.BrowseResponse{
		Path:  s.store.RelPath(resolved),
		Items: items,
	}, nil
}

func sortEntries(items []model.Entry) {
	sort.SliceStable(items, func(i int, j int) bool {
		if items[i].IsDir != items[j].IsDir {
			return items[i].IsDir
		}
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
}
