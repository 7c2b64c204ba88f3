package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Minimal TMDB v3 client (api-key auth, the genre/search/videos endpoints we need)

const (
	tmdbBaseURL      = "https://api.themoviedb.org/3"
	tmdbImageBaseURL = "https://image.tmdb.org/t/p/w500"
	youtubeEmbedURL  = "https://www.youtube.com/embed/"

	tmdbRequestTimeout = 10 * time.Second
)

type tmdbClient struct {
	apiKey   string
	language string
	httpc    *http.Client
	cache    *responseCache

	// limiter paces outbound calls so a batch enrichment cannot hammer the
	// provider even when the worker pool is saturated.
	limiter *rate.Limiter
}

func newTMDBClient(apiKey, language string, httpc *http.Client, cache *responseCache) *tmdbClient {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	if strings.TrimSpace(language) == "" {
		language = "pt-BR"
	}
	return &tmdbClient{
		apiKey:   apiKey,
		language: language,
		httpc:    httpc,
		cache:    cache,
		limiter:  rate.NewLimiter(rate.Limit(20), 5),
	}
}

func (c *tmdbClient) isConfigured() bool {
	return strings.TrimSpace(c.apiKey) != ""
}

// tmdbStatusError carries the HTTP status of a non-2xx provider response so
// callers can tell auth failures apart from transient ones.
type tmdbStatusError struct {
	status int
	path   string
	body   string
}

func (e *tmdbStatusError) Error() string {
	return fmt.Sprintf("tmdb get %s failed: status %d: %s", e.path, e.status, e.body)
}

// isAuthError reports whether err is a TMDB 401, which indicates a bad API
// key and is suppressed from per-entry logs to avoid flooding them.
func isAuthError(err error) bool {
	var se *tmdbStatusError
	return errors.As(err, &se) && se.status == http.StatusUnauthorized
}

func (c *tmdbClient) doGET(ctx context.Context, path string, q url.Values, v any) error {
	if !c.isConfigured() {
		return errors.New("tmdb api key not configured")
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, tmdbRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tmdbBaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &tmdbStatusError{status: resp.StatusCode, path: path, body: strings.TrimSpace(string(body))}
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

type tmdbGenre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// genreList fetches the full movie genre id→name mapping.
func (c *tmdbClient) genreList(ctx context.Context) ([]tmdbGenre, error) {
	var out struct {
		Genres []tmdbGenre `json:"genres"`
	}
	if err := c.doGET(ctx, "/genre/movie/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Genres, nil
}

type tmdbMovie struct {
	ID          int64   `json:"id"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	ReleaseDate string  `json:"release_date"`
	VoteAverage float64 `json:"vote_average"`
	GenreIDs    []int64 `json:"genre_ids"`
}

// searchMovie runs a free-text title search and returns the first result,
// with no year or identity disambiguation. Returns nil when the provider
// has no match.
func (c *tmdbClient) searchMovie(ctx context.Context, query string) (*tmdbMovie, error) {
	key := cacheKey("tmdb", "search", c.language, query)
	var results []tmdbMovie
	if c.cache == nil || !c.cache.get(key, &results) {
		var out struct {
			Results []tmdbMovie `json:"results"`
		}
		q := url.Values{}
		q.Set("query", query)
		if err := c.doGET(ctx, "/search/movie", q, &out); err != nil {
			return nil, err
		}
		results = out.Results
		if c.cache != nil {
			c.cache.set(key, results)
		}
	}
	if len(results) == 0 {
		return nil, nil
	}
	first := results[0]
	return &first, nil
}

type tmdbVideo struct {
	Site string `json:"site"`
	Type string `json:"type"`
	Key  string `json:"key"`
}

// movieTrailer returns the embed URL of the first YouTube trailer listed for
// the movie, or "" when there is none.
func (c *tmdbClient) movieTrailer(ctx context.Context, movieID int64) (string, error) {
	key := cacheKey("tmdb", "videos", c.language, fmt.Sprintf("%d", movieID))
	var videos []tmdbVideo
	if c.cache == nil || !c.cache.get(key, &videos) {
		var out struct {
			Results []tmdbVideo `json:"results"`
		}
		if err := c.doGET(ctx, fmt.Sprintf("/movie/%d/videos", movieID), nil, &out); err != nil {
			return "", err
		}
		videos = out.Results
		if c.cache != nil {
			c.cache.set(key, videos)
		}
	}
	for _, v := range videos {
		if v.Site == "YouTube" && v.Type == "Trailer" {
			return youtubeEmbedURL + v.Key, nil
		}
	}
	return "", nil
}
