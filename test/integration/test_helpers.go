//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"home-cloud/internal/config"
	"home-cloud/internal/database"
	"home-cloud/internal/event"
	"home-cloud/internal/handler"
	"home-cloud/internal/history"
	"home-cloud/internal/logger"
	"home-cloud/internal/media/imaging"
	"home-cloud/internal/middleware"
	"home-cloud/internal/router"
	"home-cloud/internal/service"
	"home-cloud/internal/storage"
)

// testEnv is one fully wired server over a throwaway media root.
type testEnv struct {
	server      *httptest.Server
	accessToken string
	refresh     string
	root        string
	store       *storage.Storage
	records     *history.Store
}

// newTestEnv boots the whole stack the way app.New does, with test paths and
// an optional fake metadata searcher. The returned access token belongs to
// the seeded default admin.
func newTestEnv(t *testing.T, searcher service.MetadataSearcher) *testEnv {
	t.Helper()

	root := t.TempDir()
	store, err := storage.New(root)
	require.NoError(t, err)

	cfg := &config.Config{
		ServerPort:              "0",
		ServerReadHeaderTimeout: 10 * time.Second,
		ServerIdleTimeout:       time.Minute,
		RequestTimeout:          30 * time.Second,
		StreamMaxDuration:       time.Minute,
		StreamIdleTimeout:       30 * time.Second,
		ShutdownTimeout:         5 * time.Second,
		MediaRoot:               root,
		UploadDir:               "Uploads",
		PhotosDir:               "Photos",
		LibraryCategories:       []string{"Anime", "Movies"},
		MaxUploadSize:           32 << 20,
		JWTSecret:               "integration-test-secret",
		JWTAccessTTL:            15 * time.Minute,
		JWTRefreshTTL:           24 * time.Hour,
		UsersFile:               filepath.Join(t.TempDir(), "users.json"),
		ThumbnailDir:            filepath.Join(t.TempDir(), "thumbnails"),
		CORSOrigins:             []string{"*"},
		RateLimitRPM:            0,
		AuthRateLimitRPM:        1000,
		SearchMaxDepth:          10,
		SearchTimeout:           30 * time.Second,
	}

	for _, dir := range append([]string{cfg.UploadDir, cfg.PhotosDir}, cfg.LibraryCategories...) {
		_, err := store.EnsureDir(dir)
		require.NoError(t, err)
	}

	db, err := database.NewInMemory(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.EnsureSchema(context.Background()))
	t.Cleanup(func() { _ = db.Close() })

	log := logger.New(io.Discard, "error", "json")

	bus := event.NewBus()
	records := history.NewStore(db.Conn())
	recorder := history.NewRecorder(records, bus, log)

	recorderCtx, stopRecorder := context.WithCancel(context.Background())
	t.Cleanup(stopRecorder)
	go func() { _ = recorder.Run(recorderCtx) }()

	authService, err := service.NewAuthService(cfg.UsersFile, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	require.NoError(t, err)
	authMiddleware := middleware.NewAuthMiddleware(authService)

	recognitionService := service.NewRecognitionService(store, searcher, bus, log)
	uploadService := service.NewUploadService(store, recognitionService, bus, log)

	appRouter := router.New(cfg, log, authMiddleware, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Browse:  handler.NewBrowseHandler(service.NewBrowseService(store)),
		FileOps: handler.NewFileOpsHandler(service.NewFileOpsService(store, bus)),
		File:    handler.NewFileHandler(uploadService, service.NewDownloadService(store), cfg.MaxUploadSize),
		Search:  handler.NewSearchHandler(service.NewSearchService(store, cfg.SearchMaxDepth, cfg.SearchTimeout)),
		Media:   handler.NewMediaHandler(service.NewLibraryService(store, cfg.LibraryCategories, cfg.PhotosDir), records, imaging.NewThumbnailer(cfg.ThumbnailDir), store),
		Static:  handler.NewStaticHandler(store),
	})

	server := httptest.NewServer(appRouter)
	t.Cleanup(server.Close)

	access, refresh := login(t, server, "admin", "admin123")

	return &testEnv{
		server:      server,
		accessToken: access,
		refresh:     refresh,
		root:        root,
		store:       store,
		records:     records,
	}
}

func login(t *testing.T, server *httptest.Server, username string, password string) (string, string) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"username": username, "password": password})
	require.NoError(t, err)

	resp, err := http.Post(server.URL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	require.NotEmpty(t, parsed.AccessToken)
	require.NotEmpty(t, parsed.RefreshToken)

	return parsed.AccessToken, parsed.RefreshToken
}

func (env *testEnv) do(t *testing.T, method string, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader = bytes.NewReader(nil)
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, env.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+env.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	return resp
}

func decodeBody(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dst))
}

// errorCode pulls the code out of the standard error envelope.
func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()

	var parsed struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decodeBody(t, resp, &parsed)

	return parsed.Error.Code
}
