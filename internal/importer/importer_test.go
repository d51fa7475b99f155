package importer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/classkit/planner/internal/curriculum"
	"github.com/classkit/planner/internal/importer"
)

func newImporter(t *testing.T) (*importer.Importer, *curriculum.Store) {
	t.Helper()
	store := curriculum.NewStore("Reception")
	manager := curriculum.NewManager(curriculum.ManagerConfig{Store: store})
	return importer.New(store, manager, nil), store
}

const validPlan = `{
  "lessons": [
    {
      "number": "1",
      "title": "Pulse and Beat",
      "half_term": "A1",
      "activities": [
        {"category": "Rhythm", "duration": 10, "title": "Clap along"},
        {"category": "Singing", "duration": 5, "notes": "Warm up first"}
      ]
    },
    {
      "title": "Echo Songs",
      "activities": [
        {"category": "Singing", "duration": 15}
      ]
    }
  ]
}`

func TestImportRegistersAndAssigns(t *testing.T) {
	imp, store := newImporter(t)

	res, err := imp.Import(t.Context(), []byte(validPlan))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if got, want := len(res.LessonNumbers), 2; got != want {
		t.Fatalf("imported %d lessons, want %d", got, want)
	}
	if res.Assigned != 1 {
		t.Errorf("assigned = %d, want 1", res.Assigned)
	}

	lesson, err := store.Lesson("1")
	if err != nil {
		t.Fatalf("Lesson(1): %v", err)
	}
	if lesson.Duration() != 15 {
		t.Errorf("duration = %d, want 15", lesson.Duration())
	}
	if lesson.Activities[1].ID == "" {
		t.Error("activity without id should get one generated")
	}

	h, err := store.HalfTerm(curriculum.Autumn1)
	if err != nil {
		t.Fatalf("HalfTerm: %v", err)
	}
	if got, want := len(h.Lessons), 1; got != want {
		t.Errorf("A1 holds %d lessons, want %d", got, want)
	}
}

func TestImportNumbersUnnumberedLessons(t *testing.T) {
	imp, store := newImporter(t)

	res, err := imp.Import(t.Context(), []byte(validPlan))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	// Second lesson carries no number and comes after "1".
	if got, want := res.LessonNumbers[1], "2"; got != want {
		t.Errorf("generated number = %q, want %q", got, want)
	}
	if _, err := store.Lesson("2"); err != nil {
		t.Errorf("Lesson(2): %v", err)
	}
}

func TestImportRejectsDuplicateNumber(t *testing.T) {
	imp, store := newImporter(t)
	manager := curriculum.NewManager(curriculum.ManagerConfig{Store: store})
	if _, err := manager.SaveLesson(t.Context(), curriculum.Lesson{Number: "1", Title: "Existing"}); err != nil {
		t.Fatalf("SaveLesson: %v", err)
	}

	_, err := imp.Import(t.Context(), []byte(validPlan))
	if !errors.Is(err, curriculum.ErrInvariant) {
		t.Fatalf("Import with clashing number = %v, want ErrInvariant", err)
	}

	existing, err := store.Lesson("1")
	if err != nil {
		t.Fatalf("Lesson(1): %v", err)
	}
	if existing.Title != "Existing" {
		t.Errorf("existing lesson overwritten: title = %q", existing.Title)
	}
}

func TestValidateListsEveryViolation(t *testing.T) {
	bad := `{
      "lessons": [
        {"title": "", "activities": [{"duration": -3}]}
      ]
    }`

	err := importer.Validate([]byte(bad))
	if !errors.Is(err, curriculum.ErrInvariant) {
		t.Fatalf("Validate = %v, want ErrInvariant", err)
	}
	for _, want := range []string{"title", "category", "duration"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing field %q", err, want)
		}
	}
}

func TestValidateRejectsUnknownHalfTerm(t *testing.T) {
	bad := `{"lessons": [{"title": "X", "half_term": "A3", "activities": [{"category": "Rhythm", "duration": 5}]}]}`
	if err := importer.Validate([]byte(bad)); err == nil {
		t.Fatal("Validate accepted unknown half-term id")
	}
}

func TestImportRejectsMalformedJSON(t *testing.T) {
	imp, _ := newImporter(t)
	_, err := imp.Import(t.Context(), []byte("{not json"))
	if !errors.Is(err, curriculum.ErrInvariant) {
		t.Fatalf("Import of malformed JSON = %v, want ErrInvariant", err)
	}
}
