package models

// EnrichmentState tracks whether an Entry has been through the metadata
// provider. The transition is Pending → Done, exactly once, never reversed.
type EnrichmentState string

const (
	EnrichmentPending EnrichmentState = "pending"
	EnrichmentDone    EnrichmentState = "done"
)

// Shared placeholder values. Entries carry these until enrichment supplies
// real data; they are never mutated per entry.
const (
	PlaceholderSynopsis = "Sinopse não disponível."
	PlaceholderPoster   = "https://via.placeholder.com/150x225?text=Sem+Poster"
	PlaceholderYear     = "N/A"
	PlaceholderRating   = "N/A"

	// GenreUncategorized is the sentinel genre assigned when the playlist
	// grouping yields nothing usable.
	GenreUncategorized = "Não Categorizado"
)

// Entry is one catalog record for a single streamable title.
type Entry struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	StreamURL string `json:"streamUrl"`

	Synopsis   string `json:"synopsis"`
	PosterURL  string `json:"posterUrl"`
	Year       string `json:"year"`
	Rating     string `json:"rating"`
	TrailerURL string `json:"trailerUrl,omitempty"`

	// Genres is the current display list. OriginalGenres is the snapshot
	// taken at parse time and is the fallback whenever enrichment cannot
	// produce a usable list; it is never overwritten.
	Genres         []string `json:"genres"`
	OriginalGenres []string `json:"originalGenres"`

	State EnrichmentState `json:"enrichmentState"`
}

// Clone returns a deep copy of the entry so callers can hand it out without
// sharing the genre slices with the stored value.
func (e *Entry) Clone() Entry {
	out := *e
	out.Genres = cloneStrings(e.Genres)
	out.OriginalGenres = cloneStrings(e.OriginalGenres)
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
