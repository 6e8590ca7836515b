package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort              string
	ServerReadHeaderTimeout time.Duration
	ServerIdleTimeout       time.Duration
	RequestTimeout          time.Duration
	StreamMaxDuration       time.Duration
	StreamIdleTimeout       time.Duration
	ShutdownTimeout         time.Duration
	MediaRoot               string
	UploadDir               string
	PhotosDir               string
	LibraryCategories       []string
	MaxUploadSize           int64
	JWTSecret               string
	JWTAccessTTL            time.Duration
	JWTRefreshTTL           time.Duration
	UsersFile               string
	DatabasePath            string
	ThumbnailDir            string
	TMDBAPIKey              string
	TMDBBaseURL             string
	TMDBImageBaseURL        string
	TMDBLanguage            string
	CORSOrigins             []string
	RateLimitRPM            int
	AuthRateLimitRPM        int
	SearchMaxDepth          int
	SearchTimeout           time.Duration
	LogLevel                string
	LogFormat               string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:              getEnv("SERVER_PORT", "8080"),
		ServerReadHeaderTimeout: getDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
		ServerIdleTimeout:       getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		RequestTimeout:          getDuration("REQUEST_TIMEOUT", 30*time.Second),
		StreamMaxDuration:       getDuration("STREAM_MAX_DURATION", 4*time.Hour),
		StreamIdleTimeout:       getDuration("STREAM_IDLE_TIMEOUT", 5*time.Minute),
		ShutdownTimeout:         getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		MediaRoot:               getEnv("MEDIA_ROOT", "./my_media_files"),
		UploadDir:               getEnv("UPLOAD_DIR", "Uploads"),
		PhotosDir:               getEnv("PHOTOS_DIR", "Photos"),
		LibraryCategories:       splitCSV(getEnv("LIBRARY_CATEGORIES", "Anime,Movies")),
		MaxUploadSize:           getInt64("MAX_UPLOAD_SIZE", 1073741824),
		JWTSecret:               strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTAccessTTL:            getDuration("JWT_ACCESS_TTL", 30*time.Minute),
		JWTRefreshTTL:           getDuration("JWT_REFRESH_TTL", 168*time.Hour),
		UsersFile:               getEnv("USERS_FILE", "./state/users.json"),
		DatabasePath:            getEnv("DATABASE_PATH", "./state/history.db"),
		ThumbnailDir:            getEnv("THUMBNAIL_DIR", "./state/.thumbnails"),
		TMDBAPIKey:              strings.TrimSpace(os.Getenv("TMDB_API_KEY")),
		TMDBBaseURL:             getEnv("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
		TMDBImageBaseURL:        getEnv("TMDB_IMAGE_BASE_URL", "https://image.tmdb.org/t/p/w500"),
		TMDBLanguage:            getEnv("TMDB_LANGUAGE", "en-US"),
		CORSOrigins:             splitCSV(getEnv("CORS_ORIGINS", "*")),
		RateLimitRPM:            getInt("RATE_LIMIT_RPM", 300),
		AuthRateLimitRPM:        getInt("AUTH_RATE_LIMIT_RPM", 10),
		SearchMaxDepth:          getInt("SEARCH_MAX_DEPTH", 10),
		SearchTimeout:           getDuration("SEARCH_TIMEOUT", 30*time.Second),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		LogFormat:               getEnv("LOG_FORMAT", "pretty"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.ServerPort == "" {
		return fmt.Errorf("SERVER_PORT cannot be empty")
	}

	if strings.TrimSpace(c.MediaRoot) == "" {
		return fmt.Errorf("MEDIA_ROOT cannot be empty")
	}

	if err := validateRelativeDir("UPLOAD_DIR", c.UploadDir); err != nil {
		return err
	}

	if err := validateRelativeDir("PHOTOS_DIR", c.PhotosDir); err != nil {
		return err
	}

	if len(c.LibraryCategories) == 0 {
		return fmt.Errorf("LIBRARY_CATEGORIES cannot be empty")
	}

	for _, category := range c.LibraryCategories {
		if err := validateRelativeDir("LIBRARY_CATEGORIES", category); err != nil {
			return err
		}
	}

	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}

	if strings.TrimSpace(c.UsersFile) == "" {
		return fmt.Errorf("USERS_FILE cannot be empty")
	}

	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("DATABASE_PATH cannot be empty")
	}

	return nil
}

// validateRelativeDir guards folder names that are joined under the media
// root: they must be plain relative segments, never absolute or escaping.
func validateRelativeDir(key string, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fmt.Errorf("%s cannot be empty", key)
	}

	if strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, `\`) {
		return fmt.Errorf("%s must be relative to MEDIA_ROOT: %q", key, value)
	}

	for _, segment := range strings.FieldsFunc(trimmed, func(r rune) bool { return r == '/' || r == '\\' }) {
		if segment == ".." {
			return fmt.Errorf("%s must not contain '..': %q", key, value)
		}
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getInt64(key string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func splitCSV(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}

	return out
}
