package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"home-cloud/internal/event"
	"home-cloud/internal/model"
	"home-cloud/pkg/apierror"
)

func TestMkdir(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	bus := event.NewBus()
	events, unsubscribe := bus.Subscribe()
	t.Cleanup(unsubscribe)

	svc := NewFileOpsService(store, bus)

	t.Run("creates a directory under the root", func(t *testing.T) {
		newPath, err := svc.Mkdir(context.Background(), "/", "Movies")
		require.NoError(t, err)
		require.Equal(t, "/Movies", newPath)
		require.DirExists(t, filepath.Join(store.RootAbs(), "Movies"))

		select {
		case e := <-events:
			require.Equal(t, event.TypeDirCreated, e.Type)
		case <-time.After(time.Second):
			t.Fatal("no dir.created event published")
		}
	})

	t.Run("creates a nested directory", func(t *testing.T) {
		newPath, err := svc.Mkdir(context.Background(), "/Movies", "Inception")
		require.NoError(t, err)
		require.Equal(t, "/Movies/Inception", newPath)
	})

	t.Run("rejects an occupied name", func(t *testing.T) {
		_, err := svc.Mkdir(context.Background(), "/", "Movies")
		requireAPIError(t, err, apierror.CodeAlreadyExists)
	})

	t.Run("rejects a name occupied by a file", func(t *testing.T) {
		writeFile(t, store.RootAbs(), "report.txt", "x")

		_, err := svc.Mkdir(context.Background(), "/", "report.txt")
		requireAPIError(t, err, apierror.CodeAlreadyExists)
	})

	t.Run("rejects a missing parent", func(t *testing.T) {
		_, err := svc.Mkdir(context.Background(), "/nope", "child")
		requireAPIError(t, err, apierror.CodeNotFound)
	})

	t.Run("rejects a multi-segment name", func(t *testing.T) {
		_, err := svc.Mkdir(context.Background(), "/", "a/b")
		requireAPIError(t, err, apierror.CodeInvalidName)
	})
}

func TestDelete(t *testing.T) {
	t.Parallel()

	store := newTestStorage(t)
	svc := NewFileOpsService(store, event.NewBus())
	root := store.RootAbs()

	t.Run("removes a file", func(t *testing.T) {
		writeFile(t, root, "old.txt", "bye")

		err := svc.Delete(context.Background(), model.DeleteRequest{Path: "/", Name: "old.txt"})
		require.NoError(t, err)
		require.NoFileExists(t, filepath.Join(root, "old.txt"))
	})

	t.Run("removes a directory recursively", func(t *testing.T) {
		writeFile(t, root, "stale/deep/file.txt", "x")

		err := svc.Delete(context.Background(), model.DeleteRequest{Path: "/", Name: "stale", IsDir: true})
		require.NoError(t, err)
		require.NoDirExists(t, filepath.Join(root, "stale"))
	})

	t.Run("declared kind must match", func(t *testing.T) {
		writeFile(t, root, "plain.txt", "x")

		err := svc.Delete(context.Background(), model.DeleteRequest{Path: "/", Name: "plain.txt", IsDir: true})
		requireAPIError(t, err, apierror.CodeTypeMismatch)
		require.FileExists(t, filepath.Join(root, "plain.txt"))
	})

	t.Run("missing target", func(t *testing.T) {
		err := svc.Delete(context.Background(), model.DeleteRequest{Path: "/", Name: "ghost"})
		requireAPIError(t, err, apierror.CodeNotFound)
	})

	t.Run("the root is untouchable", func(t *testing.T) {
		err := svc.Delete(context.Background(), model.DeleteRequest{Path: "/", Name: "", IsDir: true})
		requireAPIError(t, err, apierror.CodeForbiddenOperation)
	})
}

func TestMoveOrCopy(t *testing.T) {
	t.Parallel()

	t.Run("cut relocates a file", func(t *testing.T) {
		store := newTestStorage(t)
		svc := NewFileOpsService(store, event.NewBus())
		root := store.RootAbs()
		writeFile(t, root, "inbox/clip.mp4", "video-bytes")
		require.NoError(t, os.Mkdir(filepath.Join(root, "Movies"), 0o755))

		newPath, err := svc.MoveOrCopy(context.Background(), model.MoveCopyRequest{
			SrcPath: "/inbox", DstPath: "/Movies", Name: "clip.mp4", Mode: model.ModeCut,
		})
		require.NoError(t, err)
		require.Equal(t, "/Movies/clip.mp4", newPath)
		require.NoFileExists(t, filepath.Join(root, "inbox", "clip.mp4"))

		moved, err := os.ReadFile(filepath.Join(root, "Movies", "clip.mp4"))
		require.NoError(t, err)
		require.Equal(t, "video-bytes", string(moved))
	})

	t.Run("copy keeps the source", func(t *testing.T) {
		store := newTestStorage(t)
		svc := NewFileOpsService(store, event.NewBus())
		root := store.RootAbs()
		writeFile(t, root, "inbox/clip.mp4", "video-bytes")
		require.NoError(t, os.Mkdir(filepath.Join(root, "Movies"), 0o755))

		newPath, err := svc.MoveOrCopy(context.Background(), model.MoveCopyRequest{
			SrcPath: "/inbox", DstPath: "/Movies", Name: "clip.mp4", Mode: model.ModeCopy,
		})
		require.NoError(t, err)
		require.Equal(t, "/Movies/clip.mp4", newPath)
		require.FileExists(t, filepath.Join(root, "inbox", "clip.mp4"))
		require.FileExists(t, filepath.Join(root, "Movies", "clip.mp4"))
	})

	t.Run("copy duplicates a directory tree", func(t *testing.T) {
		store := newTestStorage(t)
		svc := NewFileOpsService(store, event.NewBus())
		root := store.RootAbs()
		writeFile(t, root, "show/s1/e1.mkv", "ep1")
		writeFile(t, root, "show/poster.jpg", "img")
		require.NoError(t, os.Mkdir(filepath.Join(root, "backup"), 0o755))

		_, err := svc.MoveOrCopy(context.Background(), model.MoveCopyRequest{
			SrcPath: "/", DstPath: "/backup", Name: "show", IsDir: true, Mode: model.ModeCopy,
		})
		require.NoError(t, err)
		require.FileExists(t, filepath.Join(root, "backup", "show", "s1", "e1.mkv"))
		require.FileExists(t, filepath.Join(root, "backup", "show", "poster.jpg"))
		require.FileExists(t, filepath.Join(root, "show", "s1", "e1.mkv"))
	})

	t.Run("occupied destination is rejected", func(t *testing.T) {
		store := newTestStorage(t)
		svc := NewFileOpsService(store, event.NewBus())
		root := store.RootAbs()
		writeFile(t, root, "inbox/clip.mp4", "new")
		writeFile(t, root, "Movies/clip.mp4", "old")

		_, err := svc.MoveOrCopy(context.Background(), model.MoveCopyRequest{
			SrcPath: "/inbox", DstPath: "/Movies", Name: "clip.mp4", Mode: model.ModeCut,
		})
		requireAPIError(t, err, apierror.CodeAlreadyExists)

		kept, readErr := os.ReadFile(filepath.Join(root, "Movies", "clip.mp4"))
		require.NoError(t, readErr)
		require.Equal(t, "old", string(kept))
		require.FileExists(t, filepath.Join(root, "inbox", "clip.mp4"))
	})

	t.Run("directory cannot move into itself", func(t *testing.T) {
		store := newTestStorage(t)
		svc := NewFileOpsService(store, event.NewBus())
		writeFile(t, store.RootAbs(), "show/s1/e1.mkv", "ep1")

		_, err := svc.MoveOrCopy(context.Background(), model.MoveCopyRequest{
			SrcPath: "/", DstPath: "/show/s1", Name: "show", IsDir: true, Mode: model.ModeCut,
		})
		requireAPIError(t, err, apierror.CodeOutOfBounds)
		require.FileExists(t, filepath.Join(store.RootAbs(), "show", "s1", "e1.mkv"))
	})

	t.Run("declared kind must match", func(t *testing.T) {
		store := newTestStorage(t)
		svc := NewFileOpsService(store, event.NewBus())
		writeFile(t, store.RootAbs(), "clip.mp4", "x")

		_, err := svc.MoveOrCopy(context.Background(), model.MoveCopyRequest{
			SrcPath: "/", DstPath: "/", Name: "clip.mp4", IsDir: true, Mode: model.ModeCopy,
		})
		requireAPIError(t, err, apierror.CodeTypeMismatch)
	})

	t.Run("unknown mode is rejected", func(t *testing.T) {
		store := newTestStorage(t)
		svc := NewFileOpsService(store, event.NewBus())

		_, err := svc.MoveOrCopy(context.Background(), model.MoveCopyRequest{
			SrcPath: "/", DstPath: "/", Name: "x", Mode: "paste",
		})
		requireAPIError(t, err, apierror.CodeInvalidRequest)
	})

	t.Run("missing source", func(t *testing.T) {
		store := newTestStorage(t)
		svc := NewFileOpsService(store, event.NewBus())

		_, err := svc.MoveOrCopy(context.Background(), model.MoveCopyRequest{
			SrcPath: "/", DstPath: "/", Name: "ghost.txt", Mode: model.ModeCut,
		})
		requireAPIError(t, err, apierror.CodeNotFound)
	})
}
