package store

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed catalog.md
var defaultCatalog string

// SeedCatalog loads the built-in sample catalog when the movies table is empty.
func (s *SQLiteStore) SeedCatalog() (int, error) {
	n, err := s.CountMovies()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}
	count, err := s.IngestCatalog(strings.NewReader(defaultCatalog))
	if err != nil {
		return 0, fmt.Errorf("failed to seed catalog: %w", err)
	}
	return count, nil
}
