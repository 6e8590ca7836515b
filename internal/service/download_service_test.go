package service

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"home-cloud/pkg/apierror"
)

func TestDownloadOpen(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	writeFile(t, store.RootAbs(), "Movies/clip.mp4", "video-bytes")
	svc := NewDownloadService(store)

	file, info, err := svc.Open("/Movies/clip.mp4")
	require.NoError(t, err)
	defer file.Close()

	require.Equal(t, int64(11), info.Size())

	content, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Equal(t, "video-bytes", string(content))
}

func TestDownloadOpenErrors(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	writeFile(t, store.RootAbs(), "Movies/clip.mp4", "v")
	svc := NewDownloadService(store)

	t.Run("directories are not plain downloads", func(t *testing.T) {
		_, _, err := svc.Open("/Movies")
		requireAPIError(t, err, apierror.CodeTypeMismatch)
	})

	t.Run("missing file", func(t *testing.T) {
		_, _, err := svc.Open("/Movies/nope.mp4")
		requireAPIError(t, err, apierror.CodeNotFound)
	})
}

func TestDownloadArchiveDir(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	writeFile(t, store.RootAbs(), "Movies/clip.mp4", "v")
	svc := NewDownloadService(store)

	t.Run("named after the directory", func(t *testing.T) {
		abs, name, err := svc.ArchiveDir("/Movies")
		require.NoError(t, err)
		require.Equal(t, filepath.Join(store.RootAbs(), "Movies"), abs)
		require.Equal(t, "Movies.zip", name)
	})

	t.Run("the root archives as media", func(t *testing.T) {
		_, name, err := svc.ArchiveDir("/")
		require.NoError(t, err)
		require.Equal(t, "media.zip", name)
	})

	t.Run("files cannot be archived", func(t *testing.T) {
		_, _, err := svc.ArchiveDir("/Movies/clip.mp4")
		requireAPIError(t, err, apierror.CodeNotADirectory)
	})
}
