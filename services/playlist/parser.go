package playlist

import (
	"bufio"
	"io"
	"log"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"cineview/models"
)

// canonicalizer maps a raw genre spelling onto the taxonomy's canonical name
// when one matches case-insensitively.
type canonicalizer interface {
	Canonical(name string) string
}

// Parser converts raw M3U playlist text into basic catalog entries. A record
// is two lines: one #EXTINF metadata line carrying tvg-name and group-title
// attributes, followed by one stream URL line.
type Parser struct {
	taxonomy canonicalizer
}

func NewParser(taxonomy canonicalizer) *Parser {
	return &Parser{taxonomy: taxonomy}
}

var (
	tvgNameRE    = regexp.MustCompile(`tvg-name="([^"]+)"`)
	groupTitleRE = regexp.MustCompile(`group-title="([^"]+)"`)
)

// sectionMarkers are grouping segments that name playlist sections rather
// than genres.
var sectionMarkers = map[string]bool{
	"Filmes": true,
	"Series": true,
	"Canais": true,
}

// Load reads and parses the playlist at path. A missing or unreadable source
// is non-fatal: it logs a warning and returns no entries so the service still
// starts and serves an empty catalog.
func (p *Parser) Load(fsys afero.Fs, path string) []*models.Entry {
	f, err := fsys.Open(path)
	if err != nil {
		log.Printf("[playlist] WARNING: could not open playlist %q: %v", path, err)
		return nil
	}
	defer f.Close()

	entries := p.Parse(f)
	log.Printf("[playlist] parsed %d entries from %q", len(entries), path)
	return entries
}

// Parse scans the playlist line by line, tracking at most one pending entry.
// A metadata line opens a pending entry (discarding any unfinished one); a
// URL line finalizes it with the next sequential id. URL lines with no
// pending entry are ignored.
func (p *Parser) Parse(r io.Reader) []*models.Entry {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var entries []*models.Entry
	var pending *models.Entry
	nextID := 1

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, "#EXTINF:"):
			pending = p.parseExtinf(line)
		case strings.HasPrefix(line, "http") && pending != nil:
			pending.ID = nextID
			nextID++
			pending.StreamURL = line
			entries = append(entries, pending)
			pending = nil
		}
	}
	if err := scanner.Err(); err != nil {
		log.Printf("[playlist] WARNING: stopped reading playlist: %v", err)
	}
	return entries
}

// parseExtinf builds a pending entry from a metadata line. Lines without a
// tvg-name never become entries.
func (p *Parser) parseExtinf(line string) *models.Entry {
	title := strings.TrimSpace(firstSubmatch(tvgNameRE, line))
	if title == "" {
		return nil
	}
	genres := p.initialGenres(firstSubmatch(groupTitleRE, line))
	return &models.Entry{
		Title:          title,
		Synopsis:       models.PlaceholderSynopsis,
		PosterURL:      models.PlaceholderPoster,
		Year:           models.PlaceholderYear,
		Rating:         models.PlaceholderRating,
		Genres:         genres,
		OriginalGenres: append([]string(nil), genres...),
		State:          models.EnrichmentPending,
	}
}

// initialGenres derives the starting genre list from a group-title value.
// The grouping is pipe-delimited; the last segment is taken as the genre,
// except that "Filmes | X | ..." takes X. Segments equal to a section marker
// yield the Uncategorized sentinel. The survivor is canonicalized against
// the taxonomy.
func (p *Parser) initialGenres(group string) []string {
	group = strings.TrimSpace(group)
	if group == "" {
		return []string{models.GenreUncategorized}
	}

	parts := strings.Split(group, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	genre := parts[len(parts)-1]
	if len(parts) > 1 && strings.EqualFold(parts[0], "Filmes") {
		genre = parts[1]
	}
	if genre == "" || sectionMarkers[genre] {
		return []string{models.GenreUncategorized}
	}
	if p.taxonomy != nil {
		genre = p.taxonomy.Canonical(genre)
	}
	return []string{genre}
}

func firstSubmatch(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
