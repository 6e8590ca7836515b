package service

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"

	"home-cloud/internal/media/guess"
	"home-cloud/internal/model"
	"home-cloud/internal/storage"
	"home-cloud/pkg/apierror"
)

const (
	searchDefaultLimit = 50
	searchMaxLimit     = 200
	searchScoreFloor   = 0.7
)

var errSearchLimit = errors.New("search result limit reached")

// SearchService walks the tree under a start directory looking for entries
// whose names match the query, exactly, by substring, or fuzzily.
type SearchService struct {
	store      *storage.Storage
	maxDepth   int
	timeout    time.Duration
	maxResults int
}

func NewSearchService(store *storage.Storage, maxDepth int, timeout time.Duration) *SearchService {
	if maxDepth <= 0 {
		maxDepth = 10
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &SearchService{store: store, maxDepth: maxDepth, timeout: timeout, maxResults: 1000}
}

func (s *SearchService) Search(ctx context.Context, query string, startPath string, limit int) (model.SearchResponse, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return model.SearchResponse{}, apierror.InvalidRequest("query is required", "q")
	}

	if limit <= 0 {
		limit = searchDefaultLimit
	}
	if limit > searchMaxLimit {
		limit = searchMaxLimit
	}

	resolvedStart, err := s.store.ResolveDir(startPath)
	if err != nil {
		return model.SearchResponse{}, err
	}

	searchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	queryFold := guess.Fold(query)
	results := make([]model.SearchResult, 0)

	walkErr := filepath.WalkDir(resolvedStart, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}

		select {
		case <-searchCtx.Done():
			return searchCtx.Err()
		default:
		}

		if path == resolvedStart {
			return nil
		}

		if entry.Type()&os.ModeSymlink != 0 {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(resolvedStart, path)
		if relErr != nil {
			return nil
		}
		depth := strings.Count(filepath.ToSlash(rel), "/") + 1
		if depth > s.maxDepth {
			if entry.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		score := matchScore(queryFold, entry.Name())
		if score < searchScoreFloor {
			return nil
		}

		results = append(results, model.SearchResult{
			Name:  entry.Name(),
			Path:  s.store.RelPath(path),
			IsDir: entry.IsDir(),
			Score: score,
		})
		if len(results) >= s.maxResults {
			return errSearchLimit
		}

		return nil
	})

	if walkErr != nil &&
		!errors.Is(walkErr, errSearchLimit) &&
		!errors.Is(walkErr, context.DeadlineExceeded) &&
		!errors.Is(walkErr, context.Canceled) {
		return model.SearchResponse{}, walkErr
	}

	sort.SliceStable(results, func(i int, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return strings.ToLower(results[i].Name) < strings.ToLower(results[j].Name)
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return model.SearchResponse{Query: query, Results: results}, nil
}

// matchScore compares the folded query against the folded entry name
// (extension stripped). Exact matches score 1, substring matches at least
// 0.9, everything else its Jaro-Winkler similarity.
func matchScore(queryFold string, name string) float64 {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	nameFold := guess.Fold(base)
	if nameFold == "" {
		nameFold = guess.Fold(name)
	}
	if nameFold == "" {
		return 0
	}

	if nameFold == queryFold {
		return 1
	}

	score := float64(edlib.JaroWinklerSimilarity(queryFold, nameFold))
	if strings.Contains(nameFold, queryFold) && score < 0.9 {
		score = 0.9
	}

	return score
}
