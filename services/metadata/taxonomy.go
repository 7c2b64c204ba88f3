package metadata

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
)

// Taxonomy maps TMDB genre ids to display names. It is built once at startup
// and read-only for the rest of the process.
type Taxonomy struct {
	names  map[int64]string
	byFold map[string]string
}

// NewTaxonomy builds a taxonomy from an id→name mapping.
func NewTaxonomy(genres map[int64]string) *Taxonomy {
	t := &Taxonomy{
		names:  make(map[int64]string, len(genres)),
		byFold: make(map[string]string, len(genres)),
	}
	for id, name := range genres {
		t.names[id] = name
		t.byFold[strings.ToLower(name)] = name
	}
	return t
}

// Name returns the display name for a genre id.
func (t *Taxonomy) Name(id int64) (string, bool) {
	name, ok := t.names[id]
	return name, ok
}

// Names maps a list of genre ids to display names, dropping unknown ids.
func (t *Taxonomy) Names(ids []int64) []string {
	var out []string
	for _, id := range ids {
		if name, ok := t.names[id]; ok {
			out = append(out, name)
		}
	}
	return out
}

// Canonical returns the taxonomy spelling for name when it matches a known
// genre case-insensitively, otherwise name unchanged.
func (t *Taxonomy) Canonical(name string) string {
	if canonical, ok := t.byFold[strings.ToLower(name)]; ok {
		return canonical
	}
	return name
}

// Len reports the number of known genres.
func (t *Taxonomy) Len() int {
	return len(t.names)
}

// fallbackGenres is the hand-picked table substituted when the provider's
// category list cannot be fetched at startup.
var fallbackGenres = map[int64]string{
	28:  "Ação",
	12:  "Aventura",
	16:  "Animação",
	35:  "Comédia",
	80:  "Crime",
	18:  "Drama",
	27:  "Terror",
	878: "Ficção Científica",
	53:  "Thriller",
}

// loadTaxonomy fetches the genre mapping from TMDB, retrying a few times
// before substituting the static fallback table. It never fails: taxonomy
// problems must not block startup.
func loadTaxonomy(ctx context.Context, client *tmdbClient) *Taxonomy {
	var genres []tmdbGenre
	err := retry.Do(
		func() error {
			var err error
			genres, err = client.genreList(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		log.Printf("[taxonomy] WARNING: genre list fetch failed, using fallback table: %v", err)
		return NewTaxonomy(fallbackGenres)
	}

	m := make(map[int64]string, len(genres))
	for _, g := range genres {
		if strings.TrimSpace(g.Name) == "" {
			continue
		}
		m[g.ID] = g.Name
	}
	if len(m) == 0 {
		log.Printf("[taxonomy] WARNING: provider returned an empty genre list, using fallback table")
		return NewTaxonomy(fallbackGenres)
	}
	log.Printf("[taxonomy] loaded %d genres from TMDB", len(m))
	return NewTaxonomy(m)
}
