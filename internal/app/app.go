package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"home-cloud/internal/config"
	"home-cloud/internal/database"
	"home-cloud/internal/event"
	"home-cloud/internal/handler"
	"home-cloud/internal/history"
	"home-cloud/internal/media/imaging"
	"home-cloud/internal/media/tmdb"
	"home-cloud/internal/middleware"
	"home-cloud/internal/router"
	"home-cloud/internal/service"
	"home-cloud/internal/storage"
)

type App struct {
	cfg      *config.Config
	logger   *slog.Logger
	server   *http.Server
	db       *database.DB
	recorder *history.Recorder
}

// New wires the whole application together: sandboxed storage, the history
// database, the metadata client and every service and handler behind the
// router. Nothing starts running until Run.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.New(cfg.MediaRoot)
	if err != nil {
		return nil, fmt.Errorf("initialize storage: %w", err)
	}
	logger.Info("media root ready", "path", store.RootAbs())

	// The fixed folders referenced by upload, photos and library routes
	// exist from the first request on.
	for _, dir := range append([]string{cfg.UploadDir, cfg.PhotosDir}, cfg.LibraryCategories...) {
		if _, err := store.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("prepare folder %q: %w", dir, err)
		}
	}

	db, err := database.New(context.Background(), cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure database schema: %w", err)
	}

	bus := event.NewBus()
	historyStore := history.NewStore(db.Conn())
	recorder := history.NewRecorder(historyStore, bus, logger)

	var searcher service.MetadataSearcher
	if cfg.TMDBAPIKey != "" {
		searcher = tmdb.NewClient(cfg.TMDBAPIKey,
			tmdb.WithBaseURL(cfg.TMDBBaseURL),
			tmdb.WithImageBaseURL(cfg.TMDBImageBaseURL),
			tmdb.WithLanguage(cfg.TMDBLanguage),
		)
	} else {
		logger.Warn("TMDB_API_KEY not set, uploads are stored without recognition")
	}

	authService, err := service.NewAuthService(cfg.UsersFile, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	browseService := service.NewBrowseService(store)
	fileOpsService := service.NewFileOpsService(store, bus)
	recognitionService := service.NewRecognitionService(store, searcher, bus, logger)
	uploadService := service.NewUploadService(store, recognitionService, bus, logger)
	downloadService := service.NewDownloadService(store)
	searchService := service.NewSearchService(store, cfg.SearchMaxDepth, cfg.SearchTimeout)
	libraryService := service.NewLibraryService(store, cfg.LibraryCategories, cfg.PhotosDir)
	thumbnailer := imaging.NewThumbnailer(cfg.ThumbnailDir)

	appRouter := router.New(cfg, logger, authMiddleware, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Browse:  handler.NewBrowseHandler(browseService),
		FileOps: handler.NewFileOpsHandler(fileOpsService),
		File:    handler.NewFileHandler(uploadService, downloadService, cfg.MaxUploadSize),
		Search:  handler.NewSearchHandler(searchService),
		Media:   handler.NewMediaHandler(libraryService, historyStore, thumbnailer, store),
		Static:  handler.NewStaticHandler(store),
	})

	// Write timeout stays off: streamed transfers carry their own
	// deadlines via the streaming middleware.
	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		cfg:      cfg,
		logger:   logger,
		server:   server,
		db:       db,
		recorder: recorder,
	}, nil
}

// Run serves until ctx is canceled, then shuts down gracefully. The history
// recorder runs alongside the server and stops with it.
func (a *App) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return a.recorder.Run(ctx)
	})

	group.Go(func() error {
		a.logger.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	err := group.Wait()

	if closeErr := a.db.Close(); closeErr != nil {
		a.logger.Error("closing history database", "error", closeErr)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	a.logger.Info("server stopped")
	return nil
}
