package model

// Entry is one row of a directory listing. Size is zero for directories;
// Modified is RFC3339 in UTC.
type Entry struct {
	Name     string `json:"name"`
	IsDir    bool   `json:"is_dir"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

type BrowseResponse struct {
	Path  string  `json:"path"`
	Items []Entry `json:"items"`
}

type SearchResult struct {
	Name  string  `json:"name"`
	Path  string  `json:"path"`
	IsDir bool    `json:"is_dir"`
	Score float64 `json:"score"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}
