package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixtures is the YAML shape of a seed file:
//
//	entities:
//	  - {type: node, bundle: article, label: Hello}
type Fixtures struct {
	Entities []Entity `yaml:"entities"`
}

// LoadFixtures decodes fixtures from r.
func LoadFixtures(r io.Reader) (Fixtures, error) {
	var f Fixtures
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return Fixtures{}, nil
		}
		return Fixtures{}, fmt.Errorf("decoding fixtures: %w", err)
	}
	for i, e := range f.Entities {
		if e.EntityType == "" {
			return Fixtures{}, fmt.Errorf("fixture %d (%q): missing type", i, e.Label)
		}
	}
	return f, nil
}

// LoadFixturesFile reads fixtures from path.
func LoadFixturesFile(path string) (Fixtures, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("opening fixtures: %w", err)
	}
	defer fh.Close()
	return LoadFixtures(fh)
}

// Seed writes the fixtures into store. If the store already holds entities
// it skips seeding and returns 0.
func Seed(ctx context.Context, store Store, f Fixtures, logger *slog.Logger) (int, error) {
	count, err := store.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("checking entities: %w", err)
	}
	if count > 0 {
		logger.Info("entities already seeded, skipping", "count", count)
		return 0, nil
	}

	for _, e := range f.Entities {
		if _, err := store.Save(ctx, e); err != nil {
			return 0, fmt.Errorf("seeding %s %q: %w", e.EntityType, e.Label, err)
		}
	}
	logger.Info("seeded entities", "count", len(f.Entities))
	return len(f.Entities), nil
}
