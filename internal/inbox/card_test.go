package inbox

import (
	"errors"
	"testing"
)

func TestParseCard_Frontmatter(t *testing.T) {
	input := []byte("---\ntitle: Dune\nauthor: Frank Herbert\nyear: 1965\ngenre: Sci-Fi\n---\nShelf 4.\n")
	c, err := ParseCard(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Title != "Dune" || c.Author != "Frank Herbert" || c.Genre != "Sci-Fi" {
		t.Errorf("card = %+v", c)
	}
	if c.Year == nil || *c.Year != 1965 {
		t.Errorf("year = %v, want 1965", c.Year)
	}
	if c.Notes != "Shelf 4." {
		t.Errorf("notes = %q", c.Notes)
	}
}

func TestParseCard_TitleFromHeading(t *testing.T) {
	input := []byte("---\nauthor: Ursula K. Le Guin\n---\n\n# The Dispossessed\nAn ambiguous utopia.\n")
	c, err := ParseCard(input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Title != "The Dispossessed" {
		t.Errorf("title = %q, want %q", c.Title, "The Dispossessed")
	}
	if c.Year != nil {
		t.Errorf("year = %v, want nil", *c.Year)
	}
}

func TestParseCard_NoFrontmatter(t *testing.T) {
	_, err := ParseCard([]byte("# Just a heading\n"))
	if !errors.Is(err, ErrNoFrontmatter) {
		t.Errorf("err = %v, want ErrNoFrontmatter", err)
	}
}

func TestParseCard_UnterminatedFrontmatter(t *testing.T) {
	_, err := ParseCard([]byte("---\ntitle: Open\n"))
	if !errors.Is(err, ErrNoFrontmatter) {
		t.Errorf("err = %v, want ErrNoFrontmatter", err)
	}
}

func TestParseCard_InvalidYAML(t *testing.T) {
	_, err := ParseCard([]byte("---\nyear: [not a number\n---\n"))
	if err == nil {
		t.Fatal("expected error for invalid yaml")
	}
}
