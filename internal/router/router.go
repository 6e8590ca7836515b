package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"home-cloud/internal/config"
	"home-cloud/internal/handler"
	"home-cloud/internal/middleware"
)

// Handlers collects everything the route table wires up.
type Handlers struct {
	Auth    *handler.AuthHandler
	Browse  *handler.BrowseHandler
	FileOps *handler.FileOpsHandler
	File    *handler.FileHandler
	Search  *handler.SearchHandler
	Media   *handler.MediaHandler
	Static  *handler.StaticHandler
}

// New assembles the full HTTP surface. JSON routes run under the buffering
// request timeout; streaming routes (upload, download, thumbnail, static
// media) get the idle-aware streaming timeout instead.
func New(cfg *config.Config, logger *slog.Logger, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(middleware.SecurityHeaders)
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", handler.Health)

	streaming := middleware.StreamingTimeout(cfg.StreamMaxDuration, cfg.StreamIdleTimeout)

	// Poster and photo URLs embedded in library responses point here, so
	// the mount stays public; the sandbox still gates every path.
	r.With(streaming).Get("/static_media/*", h.Static.Serve)

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Use(middleware.Timeout(cfg.RequestTimeout))
			auth.Post("/login", h.Auth.Login)
			auth.Post("/refresh", h.Auth.Refresh)
			auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
			auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
		})

		api.Group(func(files chi.Router) {
			files.Use(authMiddleware.RequireAuth)
			files.Use(middleware.Timeout(cfg.RequestTimeout))

			files.Get("/files/browse", h.Browse.Browse)
			files.Post("/files/mkdir", h.FileOps.Mkdir)
			files.Post("/files/delete", h.FileOps.Delete)
			files.Post("/files/move_copy", h.FileOps.MoveCopy)
			files.Get("/files/search", h.Search.Search)

			files.Get("/media/library", h.Media.Library)
			files.Get("/media/photos", h.Media.Photos)
			files.Get("/media/history", h.Media.History)
		})

		api.Group(func(streams chi.Router) {
			streams.Use(authMiddleware.RequireAuth)
			streams.Use(streaming)

			streams.Post("/files/upload", h.File.Upload)
			streams.Get("/files/download", h.File.Download)
			streams.Get("/media/thumbnail", h.Media.Thumbnail)
		})
	})

	return r
}
