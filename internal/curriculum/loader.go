package curriculum

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog loads and caches the category definitions and half-term calendar
// from a directory of YAML files. Category files end in ".category.yaml";
// an optional "calendar.yaml" overrides the display names and month ranges
// of the six fixed periods.
type Catalog struct {
	rootDir string

	mu         sync.RWMutex
	categories map[string]Category
	order      []string
	calendar   []calendarEntry
}

type calendarEntry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Months string `yaml:"months"`
}

// NewCatalog creates a catalog and loads all content under rootDir.
func NewCatalog(rootDir string) (*Catalog, error) {
	c := &Catalog{
		rootDir:    rootDir,
		categories: make(map[string]Category),
	}
	if err := c.loadAll(); err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	slog.Info("catalog loaded", "categories", len(c.categories), "calendar_entries", len(c.calendar))
	return c, nil
}

// Categories returns all loaded categories in file order.
func (c *Catalog) Categories() []Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Category, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.categories[id])
	}
	return out
}

// Category returns a category by id.
func (c *Catalog) Category(id string) (Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cat, ok := c.categories[id]
	return cat, ok
}

// Seed pushes the catalog into a hierarchy store: the category set for
// eligibility lookups plus any calendar overrides for the six periods.
func (c *Catalog) Seed(s *Store) {
	s.SetCatalog(c.Categories())
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.calendar {
		s.overrideCalendar(HalfTermID(e.ID), e.Name, e.Months)
	}
}

func (c *Catalog) loadAll() error {
	return filepath.Walk(c.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		switch {
		case strings.HasSuffix(path, ".category.yaml"), strings.HasSuffix(path, ".category.yml"):
			return c.loadCategory(path)
		case filepath.Base(path) == "calendar.yaml":
			return c.loadCalendar(path)
		}
		return nil
	})
}

func (c *Catalog) loadCategory(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var cat Category
	if err := yaml.Unmarshal(data, &cat); err != nil {
		slog.Warn("skipping invalid category YAML", "path", path, "error", err)
		return nil
	}
	if cat.ID == "" {
		return nil // not a category file
	}
	c.mu.Lock()
	if _, ok := c.categories[cat.ID]; !ok {
		c.order = append(c.order, cat.ID)
	}
	c.categories[cat.ID] = cat
	c.mu.Unlock()
	return nil
}

func (c *Catalog) loadCalendar(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var entries []calendarEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		slog.Warn("skipping invalid calendar YAML", "path", path, "error", err)
		return nil
	}
	c.mu.Lock()
	c.calendar = entries
	c.mu.Unlock()
	return nil
}
