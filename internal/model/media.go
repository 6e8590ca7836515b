package model

import "time"

type LibraryEntry struct {
	Title     string `json:"title"`
	PosterURL string `json:"poster_url"`
}

type LibraryResponse struct {
	Category string         `json:"category"`
	Entries  []LibraryEntry `json:"entries"`
}

type PhotoItem struct {
	Name         string `json:"name"`
	SrcURL       string `json:"src_url"`
	ThumbnailURL string `json:"thumbnail_url"`
}

type PhotosResponse struct {
	Items []PhotoItem `json:"items"`
}

// Upload outcome statuses, one per ingested part.
const (
	UploadStored  = "stored"
	UploadSkipped = "skipped"
	UploadFailed  = "failed"
)

// UploadOutcome is the per-file result of a multipart ingest. Detail is the
// human-readable line returned to the client.
type UploadOutcome struct {
	Name   string
	Status string
	Detail string
}

type UploadResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details"`
}

// Recognition statuses recorded in history.
const (
	RecognitionOrganized    = "organized"
	RecognitionUnrecognized = "unrecognized"
	RecognitionPartial      = "partial"
)

// RecognitionRecord is one row of recognition history.
type RecognitionRecord struct {
	ID           int64     `json:"id"`
	Filename     string    `json:"filename"`
	GuessedTitle string    `json:"guessed_title"`
	GuessedYear  int       `json:"guessed_year,omitempty"`
	MatchedTitle string    `json:"matched_title,omitempty"`
	MediaKind    string    `json:"media_kind,omitempty"`
	Status       string    `json:"status"`
	StoredPath   string    `json:"stored_path"`
	CreatedAt    time.Time `json:"created_at"`
}

type HistoryResponse struct {
	Entries []RecognitionRecord `json:"entries"`
}
