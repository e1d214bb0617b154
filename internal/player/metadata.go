package player

import (
	"os"
	"path/filepath"

	"github.com/dhowden/tag"
)

// ReadTitle returns the title tag of path, or its base name when the file
// has no readable title.
func ReadTitle(path string) string {
	fallback := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		return fallback
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fallback
	}

	title := m.Title()
	if title == "" {
		return fallback
	}
	if artist := m.Artist(); artist != "" {
		return artist + " - " + title
	}
	return title
}
