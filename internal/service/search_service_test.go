package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"home-cloud/pkg/apierror"
)

func TestSearchRanksResults(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	root := store.RootAbs()
	require.NoError(t, os.Mkdir(filepath.Join(root, "Matrix"), 0o755))
	writeFile(t, root, "Movies/The.Matrix.1999.mkv", "v")
	writeFile(t, root, "Movies/Matrxi.mkv", "v")
	writeFile(t, root, "Inception.mkv", "v")

	svc := NewSearchService(store, 10, time.Minute)

	resp, err := svc.Search(context.Background(), "matrix", "/", 0)
	require.NoError(t, err)
	require.Equal(t, "matrix", resp.Query)
	require.Len(t, resp.Results, 3)

	require.Equal(t, "Matrix", resp.Results[0].Name)
	require.Equal(t, "/Matrix", resp.Results[0].Path)
	require.True(t, resp.Results[0].IsDir)
	require.InDelta(t, 1.0, resp.Results[0].Score, 1e-9)

	names := make([]string, 0, len(resp.Results))
	for i, result := range resp.Results {
		names = append(names, result.Name)
		if i > 0 {
			require.LessOrEqual(t, result.Score, resp.Results[i-1].Score)
		}
	}
	require.Contains(t, names, "The.Matrix.1999.mkv")
	require.Contains(t, names, "Matrxi.mkv")
	require.NotContains(t, names, "Inception.mkv")
}

func TestSearchScopedToStartPath(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	root := store.RootAbs()
	writeFile(t, root, "Movies/matrix-copy.mkv", "v")
	writeFile(t, root, "Photos/matrix-wallpaper.jpg", "i")

	svc := NewSearchService(store, 10, time.Minute)

	resp, err := svc.Search(context.Background(), "matrix", "/Movies", 0)
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	require.Equal(t, "/Movies/matrix-copy.mkv", resp.Results[0].Path)
}

func TestSearchHonorsDepthLimit(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	root := store.RootAbs()
	writeFile(t, root, "one/match-near.mkv", "v")
	writeFile(t, root, "one/two/match-deep.mkv", "v")

	svc := NewSearchService(store, 2, time.Minute)

	resp, err := svc.Search(context.Background(), "match", "/", 0)
	require.NoError(t, err)

	names := make([]string, 0, len(resp.Results))
	for _, result := range resp.Results {
		names = append(names, result.Name)
	}
	require.Contains(t, names, "match-near.mkv")
	require.NotContains(t, names, "match-deep.mkv")
}

func TestSearchSkipsSymlinks(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	root := store.RootAbs()
	writeFile(t, root, "real/clip-match.mkv", "v")
	require.NoError(t, os.Symlink(
		filepath.Join(root, "real", "clip-match.mkv"),
		filepath.Join(root, "match-link.mkv")))

	svc := NewSearchService(store, 10, time.Minute)

	resp, err := svc.Search(context.Background(), "match", "/", 0)
	require.NoError(t, err)

	names := make([]string, 0, len(resp.Results))
	for _, result := range resp.Results {
		names = append(names, result.Name)
	}
	require.Contains(t, names, "clip-match.mkv")
	require.NotContains(t, names, "match-link.mkv")
}

func TestSearchAppliesLimit(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	for i := 0; i < 5; i++ {
		writeFile(t, store.RootAbs(), fmt.Sprintf("match%d.txt", i), "x")
	}

	svc := NewSearchService(store, 10, time.Minute)

	resp, err := svc.Search(context.Background(), "match", "/", 2)
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
}

func TestSearchErrors(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	writeFile(t, store.RootAbs(), "file.txt", "x")
	svc := NewSearchService(store, 10, time.Minute)

	t.Run("empty query", func(t *testing.T) {
		_, err := svc.Search(context.Background(), "   ", "/", 0)
		requireAPIError(t, err, apierror.CodeInvalidRequest)
	})

	t.Run("missing start directory", func(t *testing.T) {
		_, err := svc.Search(context.Background(), "q", "/nope", 0)
		requireAPIError(t, err, apierror.CodeNotFound)
	})

	t.Run("start path is a file", func(t *testing.T) {
		_, err := svc.Search(context.Background(), "q", "/file.txt", 0)
		requireAPIError(t, err, apierror.CodeNotADirectory)
	})
}

func TestMatchScore(t *testing.T) {
	t.Parallel()

	require.InDelta(t, 1.0, matchScore("matrix", "Matrix"), 1e-9)
	require.InDelta(t, 1.0, matchScore("the matrix", "The.Matrix.mkv"), 1e-9)
	require.GreaterOrEqual(t, matchScore("matrix", "The.Matrix.1999.mkv"), 0.9)
	require.Less(t, matchScore("matrix", "Inception.mkv"), searchScoreFloor)
}
