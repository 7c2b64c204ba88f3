package playlist

import (
	"strings"
	"testing"

	"github.com/spf13/afero"

	"cineview/models"
	"cineview/services/metadata"
)

func TestParseBasicRecord(t *testing.T) {
	input := `#EXTM3U
#EXTINF:-1 tvg-name="Foo" group-title="Filmes | Drama",Foo
http://x/y.mp4
`
	entries := NewParser(nil).Parse(strings.NewReader(input))
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID != 1 {
		t.Errorf("expected id 1, got %d", e.ID)
	}
	if e.Title != "Foo" {
		t.Errorf("expected title Foo, got %q", e.Title)
	}
	if e.StreamURL != "http://x/y.mp4" {
		t.Errorf("unexpected stream url: %q", e.StreamURL)
	}
	if len(e.Genres) != 1 || e.Genres[0] != "Drama" {
		t.Errorf("expected genres [Drama], got %v", e.Genres)
	}
	if len(e.OriginalGenres) != 1 || e.OriginalGenres[0] != "Drama" {
		t.Errorf("expected originalGenres [Drama], got %v", e.OriginalGenres)
	}
	if e.State != models.EnrichmentPending {
		t.Errorf("expected pending state, got %q", e.State)
	}
	if e.Synopsis != models.PlaceholderSynopsis || e.PosterURL != models.PlaceholderPoster {
		t.Error("expected placeholder synopsis and poster")
	}
	if e.Year != models.PlaceholderYear || e.Rating != models.PlaceholderRating {
		t.Error("expected placeholder year and rating")
	}
}

func TestParseSequentialIDs(t *testing.T) {
	input := `#EXTINF:-1 tvg-name="A" group-title="Filmes | Drama",A
http://x/a.mp4
#EXTINF:-1 tvg-name="B" group-title="Filmes | Ação",B
http://x/b.mp4
#EXTINF:-1 tvg-name="C",C
https://x/c.mp4
`
	entries := NewParser(nil).Parse(strings.NewReader(input))
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, e := range entries {
		if e.ID != i+1 {
			t.Errorf("entry %d: expected id %d, got %d", i, i+1, e.ID)
		}
	}
}

func TestParseDiscardsUnterminatedEntry(t *testing.T) {
	input := `#EXTINF:-1 tvg-name="Lost" group-title="Filmes | Drama",Lost
#EXTINF:-1 tvg-name="Kept" group-title="Filmes | Drama",Kept
http://x/kept.mp4
`
	entries := NewParser(nil).Parse(strings.NewReader(input))
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Title != "Kept" {
		t.Errorf("expected the second metadata line to win, got %q", entries[0].Title)
	}
}

func TestParseIgnoresOrphanURL(t *testing.T) {
	input := `http://x/orphan.mp4
#EXTINF:-1 tvg-name="Foo",Foo
http://x/foo.mp4
http://x/extra.mp4
`
	entries := NewParser(nil).Parse(strings.NewReader(input))
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].StreamURL != "http://x/foo.mp4" {
		t.Errorf("unexpected stream url: %q", entries[0].StreamURL)
	}
}

func TestParseSkipsMetadataWithoutName(t *testing.T) {
	input := `#EXTINF:-1 group-title="Filmes | Drama",Anonymous
http://x/anon.mp4
`
	entries := NewParser(nil).Parse(strings.NewReader(input))
	if len(entries) != 0 {
		t.Fatalf("expected no entries without tvg-name, got %d", len(entries))
	}
}

func TestInitialGenres(t *testing.T) {
	tests := []struct {
		name  string
		group string
		want  string
	}{
		{"last segment wins", "Lançamentos | Terror", "Terror"},
		{"filmes prefix takes second segment", "Filmes | Comédia | 2024", "Comédia"},
		{"bare section marker", "Filmes", models.GenreUncategorized},
		{"trailing section marker", "Lista | Canais", models.GenreUncategorized},
		{"series marker", "Series", models.GenreUncategorized},
		{"empty group", "", models.GenreUncategorized},
		{"plain genre", "Drama", "Drama"},
	}
	p := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.initialGenres(tt.group)
			if len(got) != 1 || got[0] != tt.want {
				t.Fatalf("initialGenres(%q) = %v, want [%s]", tt.group, got, tt.want)
			}
		})
	}
}

func TestParseCanonicalizesGenre(t *testing.T) {
	taxonomy := metadata.NewTaxonomy(map[int64]string{18: "Drama"})
	input := `#EXTINF:-1 tvg-name="Foo" group-title="Filmes | drama",Foo
http://x/y.mp4
`
	entries := NewParser(taxonomy).Parse(strings.NewReader(input))
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Genres[0] != "Drama" {
		t.Errorf("expected canonical genre Drama, got %q", entries[0].Genres[0])
	}
}

func TestLoadMissingFile(t *testing.T) {
	entries := NewParser(nil).Load(afero.NewMemMapFs(), "does-not-exist.m3u")
	if len(entries) != 0 {
		t.Fatalf("expected no entries for missing file, got %d", len(entries))
	}
}

func TestLoadFromFs(t *testing.T) {
	fsys := afero.NewMemMapFs()
	content := `#EXTINF:-1 tvg-name="Foo" group-title="Filmes | Drama",Foo
http://x/y.mp4
`
	if err := afero.WriteFile(fsys, "filmes.m3u", []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	entries := NewParser(nil).Load(fsys, "filmes.m3u")
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}
