package catalog

import (
	"context"
	"errors"
	"math/rand"
	"strings"

	"github.com/mozillazg/go-unidecode"

	"cineview/models"
)

// ErrNotFound is returned when a queried id was never issued by the parser.
var ErrNotFound = errors.New("entry not found")

// enricher is the slice of the enrichment engine the query service uses.
// Enrichment never returns an error: failures are absorbed per entry and the
// entry comes back well-formed either way.
type enricher interface {
	Enrich(ctx context.Context, id int) (models.Entry, bool)
	EnrichAll(ctx context.Context, ids []int) []models.Entry
}

// Service is the query surface over the catalog store. Every read path
// triggers lazy enrichment of the entries it returns.
type Service struct {
	store        *Store
	enricher     enricher
	defaultLimit int
}

func NewService(store *Store, e enricher, defaultLimit int) *Service {
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	return &Service{store: store, enricher: e, defaultLimit: defaultLimit}
}

// GetByID returns the enriched entry for id, or ErrNotFound. A miss does not
// touch the store.
func (s *Service) GetByID(ctx context.Context, id int) (models.Entry, error) {
	if _, ok := s.store.Get(id); !ok {
		return models.Entry{}, ErrNotFound
	}
	entry, ok := s.enricher.Enrich(ctx, id)
	if !ok {
		return models.Entry{}, ErrNotFound
	}
	return entry, nil
}

// List returns the first limit entries in id order, enriched. limit<=0 uses
// the configured default cap.
func (s *Service) List(ctx context.Context, limit int) []models.Entry {
	if limit <= 0 {
		limit = s.defaultLimit
	}
	ids := s.store.IDs()
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return s.enricher.EnrichAll(ctx, ids)
}

// RandomSample returns min(n, store size) entries drawn by a uniform shuffle,
// enriched concurrently. The returned order is the shuffled order, fixed
// before any enrichment runs. n<=0 uses the configured default cap.
func (s *Service) RandomSample(ctx context.Context, n int) []models.Entry {
	if n <= 0 {
		n = s.defaultLimit
	}
	ids := s.store.IDs()
	rand.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
	if len(ids) > n {
		ids = ids[:n]
	}
	return s.enricher.EnrichAll(ctx, ids)
}

// Search scans entries in id order for a case-insensitive substring match on
// the title, stopping once limit matches are collected; later entries are
// not considered even if they would match. An empty query returns an empty
// result, never the whole catalog. Matches are enriched concurrently and
// written back to the store.
func (s *Service) Search(ctx context.Context, query string, limit int) []models.Entry {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Entry{}
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	needle := foldTitle(query)
	var ids []int
	for _, entry := range s.store.Snapshot() {
		if len(ids) >= limit {
			break
		}
		if strings.Contains(foldTitle(entry.Title), needle) {
			ids = append(ids, entry.ID)
		}
	}
	if len(ids) == 0 {
		return []models.Entry{}
	}
	return s.enricher.EnrichAll(ctx, ids)
}

// foldTitle lowercases and strips diacritics so "acao" matches "Ação".
func foldTitle(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}
