package curriculum_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/classkit/planner/internal/curriculum"
)

func TestNewStore_SixFixedPeriods(t *testing.T) {
	store := curriculum.NewStore("Reception Music")
	terms := store.HalfTerms()
	if len(terms) != 6 {
		t.Fatalf("half-term count = %d, want 6", len(terms))
	}
	want := []curriculum.HalfTermID{"A1", "A2", "SP1", "SP2", "SM1", "SM2"}
	for i, h := range terms {
		if h.ID != want[i] {
			t.Errorf("period %d = %s, want %s", i, h.ID, want[i])
		}
		if h.Complete {
			t.Errorf("period %s starts complete", h.ID)
		}
	}
}

func TestStore_LookupErrors(t *testing.T) {
	store := curriculum.NewStore("Reception Music")
	if _, err := store.Lesson("1"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Lesson() error = %v, want ErrNotFound", err)
	}
	if _, err := store.HalfTerm("A7"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("HalfTerm() error = %v, want ErrNotFound", err)
	}
	if _, err := store.Stack("missing"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Stack() error = %v, want ErrNotFound", err)
	}
	if _, err := store.Unit("missing"); !errors.Is(err, curriculum.ErrNotFound) {
		t.Errorf("Unit() error = %v, want ErrNotFound", err)
	}
}

func TestStore_ReadsReturnCopies(t *testing.T) {
	m, store := newManager(t, 1)
	_ = m

	l, _ := store.Lesson("1")
	l.Title = "mutated"
	l.Activities[0].Duration = 999
	l.Activities[0].Resources = map[string]string{"video": "trouble"}

	fresh, _ := store.Lesson("1")
	if fresh.Title == "mutated" || fresh.Activities[0].Duration == 999 {
		t.Error("mutating a returned lesson leaked into the store")
	}
}

func TestStore_NextNumberSkipsCopySuffixes(t *testing.T) {
	ctx := t.Context()
	m, store := newManager(t, 3)
	if _, err := m.SaveLesson(ctx, curriculum.Lesson{Number: "3-copy-1", Title: "Copy"}); err != nil {
		t.Fatalf("SaveLesson() error = %v", err)
	}
	if got := store.NextNumber(); got != "4" {
		t.Errorf("NextNumber() = %q, want %q", got, "4")
	}
}

func TestStore_LoadHydratesSnapshot(t *testing.T) {
	store := curriculum.NewStore("Reception Music")
	store.Load(curriculum.Snapshot{
		Lessons: []curriculum.Lesson{
			{Number: "1", Title: "One"},
			{Number: "2", Title: "Two"},
		},
		HalfTerms: []curriculum.HalfTerm{
			{ID: curriculum.Autumn1, Name: "Autumn 1", Lessons: []string{"2"}, Complete: true},
		},
		Stacks: []curriculum.Stack{{ID: "s1", Name: "Pulse", Lessons: []string{"1"}}},
		Units:  []curriculum.Unit{{ID: "u1", Name: "Shanties", Term: "Autumn"}},
	})

	if got := store.LessonNumbers(); !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("LessonNumbers() = %v, want [1 2]", got)
	}
	h, err := store.HalfTerm(curriculum.Autumn1)
	if err != nil {
		t.Fatalf("HalfTerm() error = %v", err)
	}
	if !h.Complete || !reflect.DeepEqual(h.Lessons, []string{"2"}) {
		t.Errorf("A1 = %+v, want complete with [2]", h)
	}
	// Periods absent from the snapshot keep their calendar defaults.
	sp1, _ := store.HalfTerm(curriculum.Spring1)
	if sp1.Name != "Spring 1" || len(sp1.Lessons) != 0 {
		t.Errorf("SP1 = %+v, want calendar default", sp1)
	}
	if _, err := store.Stack("s1"); err != nil {
		t.Errorf("Stack() error = %v", err)
	}
	if _, err := store.Unit("u1"); err != nil {
		t.Errorf("Unit() error = %v", err)
	}
}

func TestStore_ContainerResolution(t *testing.T) {
	ctx := t.Context()
	m, store := newManager(t, 2)
	st, _ := m.CreateStack(ctx, "Pulse", "#123", []string{"1"}, nil)
	u, _ := m.CreateUnit(ctx, "Shanties", "Autumn", []string{"2"})

	tests := []struct {
		name string
		id   string
		want []string
	}{
		{"library", curriculum.LibraryContainer, []string{"1", "2"}},
		{"half-term", "A1", nil},
		{"stack", st.ID, []string{"1"}},
		{"unit", u.ID, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := store.Container(tt.id)
			if err != nil {
				t.Fatalf("Container(%q) error = %v", tt.id, err)
			}
			got := c.LessonNumbers()
			if len(got) != len(tt.want) {
				t.Fatalf("LessonNumbers() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("LessonNumbers()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestLesson_ByCategoryIsDerived(t *testing.T) {
	l := curriculum.Lesson{
		Number: "1",
		Activities: []curriculum.Activity{
			{ID: "a", Category: "Singing", Duration: 5},
			{ID: "b", Category: "Movement", Duration: 10},
			{ID: "c", Category: "Singing", Duration: 5},
		},
	}
	groups := l.ByCategory()
	if len(groups) != 2 {
		t.Fatalf("group count = %d, want 2", len(groups))
	}
	if groups[0].Category != "Singing" || len(groups[0].Activities) != 2 {
		t.Errorf("first group = %s with %d, want Singing with 2", groups[0].Category, len(groups[0].Activities))
	}
	if groups[1].Category != "Movement" {
		t.Errorf("second group = %s, want Movement", groups[1].Category)
	}
	// Canonical order untouched by the grouped view.
	if l.Activities[1].ID != "b" {
		t.Error("grouping mutated the canonical activity order")
	}
	if l.Duration() != 20 {
		t.Errorf("Duration() = %d, want 20", l.Duration())
	}
}
