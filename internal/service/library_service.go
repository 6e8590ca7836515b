package service

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"home-cloud/internal/model"
	"home-cloud/internal/storage"
	"home-cloud/pkg/apierror"
)

var imageExtensions = map[string]struct{}{
	".jpg": {}, ".jpeg": {}, ".png": {}, ".webp": {},
}

func IsImageFilename(name string) bool {
	_, ok := imageExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}

// LibraryService is the read-only view over the category folders: one entry
// per titled subfolder that has a discoverable poster image.
type LibraryService struct {
	store      *storage.Storage
	categories []string
	photosDir  string
}

func NewLibraryService(store *storage.Storage, categories []string, photosDir string) *LibraryService {
	return &LibraryService{store: store, categories: categories, photosDir: photosDir}
}

// Scan lists the titles of one category. A subfolder with no image among its
// direct children is invisible. A missing category folder is created empty.
func (s *LibraryService) Scan(_ context.Context, category string) (model.LibraryResponse, error) {
	if strings.TrimSpace(category) == "" {
		return model.LibraryResponse{}, apierror.InvalidRequest("category is required", "")
	}

	if !s.isConfiguredCategory(category) {
		return model.LibraryResponse{}, apierror.NotFound(category)
	}

	categoryAbs, err := s.store.EnsureDir(category)
	if err != nil {
		return model.LibraryResponse{}, err
	}

	entries, err := os.ReadDir(categoryAbs)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return model.LibraryResponse{}, apierror.PermissionDenied(category)
		}
		return model.LibraryResponse{}, err
	}

	library := make([]model.LibraryEntry, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		posterName := firstImageIn(filepath.Join(categoryAbs, entry.Name()))
		if posterName == "" {
			continue
		}

		library = append(library, model.LibraryEntry{
			Title:     entry.Name(),
			PosterURL: staticMediaURL(category, entry.Name(), posterName),
		})
	}

	sort.SliceStable(library, func(i int, j int) bool {
		return strings.ToLower(library[i].Title) < strings.ToLower(library[j].Title)
	})

	return model.LibraryResponse{Category: category, Entries: library}, nil
}

// Photos is the flat listing of image files in the photos folder.
func (s *LibraryService) Photos(_ context.Context) (model.PhotosResponse, error) {
	photosAbs, err := s.store.EnsureDir(s.photosDir)
	if err != nil {
		return model.PhotosResponse{}, err
	}

	entries, err := os.ReadDir(photosAbs)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return model.PhotosResponse{}, apierror.PermissionDenied(s.photosDir)
		}
		return model.PhotosResponse{}, err
	}

	items := make([]model.PhotoItem, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsImageFilename(entry.Name()) {
			continue
		}

		clientPath := "/" + s.photosDir + "/" + entry.Name()
		items = append(items, model.PhotoItem{
			Name:         entry.Name(),
			SrcURL:       staticMediaURL(s.photosDir, entry.Name()),
			ThumbnailURL: "/api/v1/media/thumbnail?path=" + url.QueryEscape(clientPath) + "&size=256",
		})
	}

	sort.SliceStable(items, func(i int, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})

	return model.PhotosResponse{Items: items}, nil
}

func (s *LibraryService) isConfiguredCategory(category string) bool {
	for _, configured := range s.categories {
		if configured == category {
			return true
		}
	}

	return false
}

// firstImageIn returns the first direct child of dir (directory order) whose
// extension is in the image whitelist, or "".
func firstImageIn(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if IsImageFilename(entry.Name()) {
			return entry.Name()
		}
	}

	return ""
}

// staticMediaURL builds a /static_media URL from client-relative parts,
// escaping each path segment.
func staticMediaURL(parts ...string) string {
	segments := make([]string, 0, len(parts))
	for _, part := range parts {
		for _, segment := range strings.Split(part, "/") {
			if segment == "" {
				continue
			}
			segments = append(segments, url.PathEscape(segment))
		}
	}

	return "/static_media/" + strings.Join(segments, "/")
}
