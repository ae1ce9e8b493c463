package inbox

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter is returned for files without a YAML frontmatter block.
var ErrNoFrontmatter = errors.New("inbox: card has no frontmatter")

// Card is the item description parsed from a card file.
type Card struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Year   *int   `yaml:"year"`
	Genre  string `yaml:"genre"`
	Notes  string `yaml:"-"`
}

// ParseCard extracts the item fields from raw card bytes. When the
// frontmatter has no title, the first H1 heading of the body is used.
func ParseCard(data []byte) (Card, error) {
	block, body, ok := splitFrontmatter(data)
	if !ok {
		return Card{}, ErrNoFrontmatter
	}

	var c Card
	if err := yaml.Unmarshal(block, &c); err != nil {
		return Card{}, fmt.Errorf("inbox: parse frontmatter: %w", err)
	}
	c.Notes = strings.TrimSpace(body)
	if strings.TrimSpace(c.Title) == "" {
		c.Title = headingTitle(body)
	}
	return c, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body.
func splitFrontmatter(data []byte) ([]byte, string, bool) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, "", false
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, "", false
	}

	afterDelim := rest[idx+1+len(delim):]
	return rest[:idx], strings.TrimLeft(string(afterDelim), "\n\r"), true
}

func headingTitle(body string) string {
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
