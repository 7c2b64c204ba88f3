package metadata

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"cineview/models"
)

// CatalogStore is the slice of the catalog store the enricher needs: read a
// copy, and apply a mutation under the store's lock.
type CatalogStore interface {
	Get(id int) (models.Entry, bool)
	Update(id int, fn func(*models.Entry)) bool
}

// Options configures the enrichment engine.
type Options struct {
	APIKey   string
	Language string

	// CacheDir/CacheTTL control the provider response cache. Empty dir
	// disables caching.
	CacheDir string
	CacheTTL time.Duration

	// MaxConcurrent bounds how many enrichment calls a batch may have in
	// flight at once.
	MaxConcurrent int

	HTTPClient *http.Client
}

const defaultMaxConcurrent = 8

// Enricher lazily fills catalog entries with TMDB metadata. Enrichment is
// idempotent: once an entry is Done it is never fetched again, success or
// failure. Provider errors are absorbed here and never reach callers.
type Enricher struct {
	tmdb          *tmdbClient
	taxonomy      *Taxonomy
	store         CatalogStore
	maxConcurrent int

	// inflight deduplicates concurrent enrichment of the same still-Pending
	// entry so overlapping requests trigger one provider call, not two.
	inflightMu sync.Mutex
	inflight   map[int]*sync.WaitGroup
}

func NewEnricher(opts Options, store CatalogStore) *Enricher {
	var cache *responseCache
	if opts.CacheDir != "" {
		ttl := opts.CacheTTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		cache = newResponseCache(opts.CacheDir, ttl)
	}
	maxConcurrent := opts.MaxConcurrent
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}
	return &Enricher{
		tmdb:          newTMDBClient(opts.APIKey, opts.Language, opts.HTTPClient, cache),
		store:         store,
		maxConcurrent: maxConcurrent,
		inflight:      make(map[int]*sync.WaitGroup),
	}
}

// LoadTaxonomy fetches the genre taxonomy once and keeps it for genre id
// translation. The returned taxonomy is also what the playlist parser uses
// for canonicalization. Safe to call before any Enrich.
func (e *Enricher) LoadTaxonomy(ctx context.Context) *Taxonomy {
	e.taxonomy = loadTaxonomy(ctx, e.tmdb)
	return e.taxonomy
}

// Enrich ensures the entry for id has been through the provider and returns
// a copy of it. The second return is false when the id is not in the store.
func (e *Enricher) Enrich(ctx context.Context, id int) (models.Entry, bool) {
	entry, ok := e.store.Get(id)
	if !ok {
		return models.Entry{}, false
	}
	if entry.State == models.EnrichmentDone {
		return entry, true
	}

	e.inflightMu.Lock()
	if wg, waiting := e.inflight[id]; waiting {
		e.inflightMu.Unlock()
		wg.Wait()
		return e.store.Get(id)
	}
	// Re-read under the lock: a previous owner may have finished between the
	// first state check and now.
	if entry, ok := e.store.Get(id); ok && entry.State == models.EnrichmentDone {
		e.inflightMu.Unlock()
		return entry, true
	}
	wg := &sync.WaitGroup{}
	wg.Add(1)
	e.inflight[id] = wg
	e.inflightMu.Unlock()

	defer func() {
		e.inflightMu.Lock()
		delete(e.inflight, id)
		e.inflightMu.Unlock()
		wg.Done()
	}()

	movie, trailerURL := e.fetch(ctx, entry)
	e.store.Update(id, func(en *models.Entry) {
		if en.State == models.EnrichmentDone {
			return
		}
		e.apply(en, movie, trailerURL)
		en.State = models.EnrichmentDone
	})
	return e.store.Get(id)
}

// EnrichAll enriches the given entries concurrently under the bounded worker
// pool and returns them in the same order the ids were passed in. The order
// is fixed before any provider call runs.
func (e *Enricher) EnrichAll(ctx context.Context, ids []int) []models.Entry {
	results := make([]models.Entry, len(ids))
	found := make([]bool, len(ids))

	p := pool.New().WithMaxGoroutines(e.maxConcurrent)
	for i, id := range ids {
		i, id := i, id
		p.Go(func() {
			results[i], found[i] = e.Enrich(ctx, id)
		})
	}
	p.Wait()

	out := make([]models.Entry, 0, len(ids))
	for i := range results {
		if found[i] {
			out = append(out, results[i])
		}
	}
	return out
}

// fetch runs the provider calls for one entry. A nil movie means no match or
// an absorbed error; either way the caller proceeds to mark the entry Done.
func (e *Enricher) fetch(ctx context.Context, entry models.Entry) (*tmdbMovie, string) {
	query := searchTitle(entry.Title)
	movie, err := e.tmdb.searchMovie(ctx, query)
	if err != nil {
		if !isAuthError(err) {
			log.Printf("[enrich] search failed for %q: %v", entry.Title, err)
		}
		return nil, ""
	}
	if movie == nil {
		return nil, ""
	}

	trailerURL, err := e.tmdb.movieTrailer(ctx, movie.ID)
	if err != nil {
		if !isAuthError(err) {
			log.Printf("[enrich] trailer lookup failed for %q (tmdbId=%d): %v", entry.Title, movie.ID, err)
		}
		trailerURL = ""
	}
	return movie, trailerURL
}

// apply writes the provider result onto the entry. Placeholders stand
// wherever the provider had nothing, and the genre list falls back to the
// parse-time snapshot when translation yields nothing.
func (e *Enricher) apply(en *models.Entry, movie *tmdbMovie, trailerURL string) {
	if movie == nil {
		en.Genres = append([]string(nil), en.OriginalGenres...)
		return
	}
	if movie.Overview != "" {
		en.Synopsis = movie.Overview
	}
	if movie.PosterPath != "" {
		en.PosterURL = tmdbImageBaseURL + movie.PosterPath
	}
	if len(movie.ReleaseDate) >= 4 {
		en.Year = movie.ReleaseDate[:4]
	}
	if movie.VoteAverage > 0 {
		en.Rating = fmt.Sprintf("%.1f", movie.VoteAverage)
	}

	var genres []string
	if e.taxonomy != nil {
		genres = e.taxonomy.Names(movie.GenreIDs)
	}
	if len(genres) == 0 {
		genres = append([]string(nil), en.OriginalGenres...)
	}
	en.Genres = genres

	if trailerURL != "" {
		en.TrailerURL = trailerURL
	}
}

// Search query derivation: an ordered list of normalization steps, applied in
// sequence. If the chain strips the title down to nothing, the raw title is
// used as-is.
var searchQuerySteps = []func(string) string{
	stripQualityTags,
	stripTrailingYear,
}

var (
	qualityTagRE   = regexp.MustCompile(`(?i)\s*\[(?:L|D|HD|FHD|SD|4K|H265)\]`)
	trailingYearRE = regexp.MustCompile(`\s*\(\d{4}\)\s*$`)
)

func stripQualityTags(s string) string {
	return qualityTagRE.ReplaceAllString(s, "")
}

func stripTrailingYear(s string) string {
	return trailingYearRE.ReplaceAllString(s, "")
}

func searchTitle(title string) string {
	q := title
	for _, step := range searchQuerySteps {
		q = strings.TrimSpace(step(q))
	}
	if q == "" {
		return strings.TrimSpace(title)
	}
	return q
}
