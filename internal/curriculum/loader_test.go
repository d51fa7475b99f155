package curriculum_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/classkit/planner/internal/curriculum"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
}

func TestCatalog_LoadsCategoriesAndCalendar(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "singing.category.yaml", `
id: singing
name: Singing
color: "#e91e63"
groups: [performance]
eligibility:
  Reception: true
  UKG: false
`)
	writeFile(t, dir, "movement.category.yaml", `
id: movement
name: Movement
color: "#3f51b5"
eligibility:
  UKG: true
`)
	writeFile(t, dir, "calendar.yaml", `
- id: A1
  name: Autumn First Half
  months: Sep-Oct
`)

	cat, err := curriculum.NewCatalog(dir)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}

	cats := cat.Categories()
	if len(cats) != 2 {
		t.Fatalf("category count = %d, want 2", len(cats))
	}
	singing, ok := cat.Category("singing")
	if !ok {
		t.Fatal("Category(singing) not found")
	}
	if singing.Color != "#e91e63" || !singing.Eligibility["Reception"] {
		t.Errorf("singing = %+v, want color and eligibility parsed", singing)
	}

	store := curriculum.NewStore("Reception Music")
	cat.Seed(store)
	if got := len(store.Catalog()); got != 2 {
		t.Errorf("seeded catalog size = %d, want 2", got)
	}
	a1, _ := store.HalfTerm(curriculum.Autumn1)
	if a1.Name != "Autumn First Half" {
		t.Errorf("A1 name = %q, want calendar override applied", a1.Name)
	}
	a2, _ := store.HalfTerm(curriculum.Autumn2)
	if a2.Name != "Autumn 2" {
		t.Errorf("A2 name = %q, want default kept", a2.Name)
	}
}

func TestCatalog_SkipsInvalidFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.category.yaml", "::: not yaml {{{")
	writeFile(t, dir, "anonymous.category.yaml", "name: No ID Here\n")
	writeFile(t, dir, "notes.md", "# not a category\n")
	writeFile(t, dir, "good.category.yaml", "id: good\nname: Good\neligibility:\n  Reception: true\n")

	cat, err := curriculum.NewCatalog(dir)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	if got := len(cat.Categories()); got != 1 {
		t.Errorf("category count = %d, want 1 (invalid files skipped)", got)
	}
}
