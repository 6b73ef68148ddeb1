// Package catalog loads the movie catalog from YAML and seeds it into
// an empty database.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/cinema-showtimes/internal/model"
)

//go:embed default.yaml
var defaultYAML []byte

// Catalog is the on-disk catalog format.
type Catalog struct {
	Genres []Genre `yaml:"genres"`
	Movies []Movie `yaml:"movies"`
}

type Genre struct {
	ID   int64  `yaml:"id"`
	Name string `yaml:"name"`
}

// Movie is one catalog entry.  ReleaseDate is YYYY-MM-DD and optional.
type Movie struct {
	Title        string  `yaml:"title"`
	StudioNumber int     `yaml:"studio_number"`
	Description  string  `yaml:"description"`
	PosterPath   string  `yaml:"poster_path"`
	BackdropPath string  `yaml:"backdrop_path"`
	ReleaseDate  string  `yaml:"release_date"`
	GenreIDs     []int64 `yaml:"genre_ids"`
}

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("catalog: embedded default: %v", err))
	}
	return c
}

// Load reads and validates the catalog at path.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a catalog.  Unknown keys are rejected so
// a misspelt field fails loudly instead of seeding empty values.
func Parse(data []byte) (*Catalog, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Catalog
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that genres and studio numbers are unique, every
// movie has a title and a positive studio, every genre reference
// resolves and every release date parses.
func (c *Catalog) Validate() error {
	var errs []error
	genres := make(map[int64]bool, len(c.Genres))
	for _, g := range c.Genres {
		if strings.TrimSpace(g.Name) == "" {
			errs = append(errs, fmt.Errorf("genre %d: empty name", g.ID))
		}
		if genres[g.ID] {
			errs = append(errs, fmt.Errorf("genre %d: duplicate id", g.ID))
		}
		genres[g.ID] = true
	}

	studios := make(map[int]string, len(c.Movies))
	for i, m := range c.Movies {
		name := m.Title
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("movie #%d", i+1)
			errs = append(errs, fmt.Errorf("%s: empty title", name))
		}
		if m.StudioNumber < 1 {
			errs = append(errs, fmt.Errorf("%s: studio_number must be positive", name))
		} else if other, dup := studios[m.StudioNumber]; dup {
			errs = append(errs, fmt.Errorf("%s: studio %d already used by %s", name, m.StudioNumber, other))
		}
		studios[m.StudioNumber] = name
		for _, id := range m.GenreIDs {
			if !genres[id] {
				errs = append(errs, fmt.Errorf("%s: unknown genre %d", name, id))
			}
		}
		if _, err := m.releaseDate(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

func (m Movie) releaseDate() (*time.Time, error) {
	if m.ReleaseDate == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, m.ReleaseDate)
	if err != nil {
		return nil, fmt.Errorf("release_date %q: want YYYY-MM-DD", m.ReleaseDate)
	}
	return &d, nil
}

// Model converts the entry to a model.Movie, resolving genre names from
// c.  The catalog must have passed Validate.
func (c *Catalog) Model(m Movie, createdAt time.Time) model.Movie {
	names := make(map[int64]string, len(c.Genres))
	for _, g := range c.Genres {
		names[g.ID] = g.Name
	}
	release, _ := m.releaseDate()
	out := model.Movie{
		Title:        strings.TrimSpace(m.Title),
		StudioNumber: m.StudioNumber,
		Description:  strings.TrimSpace(m.Description),
		PosterPath:   m.PosterPath,
		BackdropPath: m.BackdropPath,
		ReleaseDate:  release,
		CreatedAt:    createdAt,
	}
	for _, id := range m.GenreIDs {
		out.Genres = append(out.Genres, model.Genre{ID: id, Name: names[id]})
	}
	return out
}
