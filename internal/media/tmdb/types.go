// Package tmdb provides a client for a TMDB-style metadata service.
package tmdb

import (
	"strconv"
	"strings"
)

// Media kinds a match can resolve to.
const (
	KindMovie = "movie"
	KindShow  = "show"
)

// Result is one entry of a multi search response. Movies carry Title and
// ReleaseDate, shows carry Name and FirstAirDate.
type Result struct {
	ID           int64   `json:"id"`
	MediaType    string  `json:"media_type"`
	Title        string  `json:"title,omitempty"`
	Name         string  `json:"name,omitempty"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	FirstAirDate string  `json:"first_air_date,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	Overview     string  `json:"overview,omitempty"`
	VoteAverage  float64 `json:"vote_average,omitempty"`
}

// DisplayTitle returns the official title regardless of media type.
func (r *Result) DisplayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

// Date returns whichever release date the entry carries.
func (r *Result) Date() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// Kind maps the wire media_type onto a library kind. Anything that is not
// a movie or a series (for example persons) yields "".
func (r *Result) Kind() string {
	switch r.MediaType {
	case "movie":
		return KindMovie
	case "tv":
		return KindShow
	default:
		return ""
	}
}

// Year extracts the year from the entry's date.
func (r *Result) Year() int {
	date := r.Date()
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

// BestMatch applies the match policy to an ordered result list: first the
// entry whose date contains the guessed year as a substring, then the
// first movie or show, otherwise nothing.
func BestMatch(results []Result, year int) (Result, bool) {
	if year > 0 {
		yearStr := strconv.Itoa(year)
		for _, r := range results {
			if r.Date() != "" && strings.Contains(r.Date(), yearStr) {
				return r, true
			}
		}
	}

	for _, r := range results {
		if r.Kind() != "" {
			return r, true
		}
	}

	return Result{}, false
}
