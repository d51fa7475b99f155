package scratch_test

import (
	"testing"

	"github.com/classkit/planner/internal/curriculum"
	"github.com/classkit/planner/internal/scratch"
)

func TestMemoryGetMissingReturnsNil(t *testing.T) {
	s := scratch.NewMemory()
	d, err := s.Get(t.Context(), "draft:Reception")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d != nil {
		t.Errorf("missing key returned %+v, want nil", d)
	}
}

func TestMemorySetGetClear(t *testing.T) {
	s := scratch.NewMemory()
	ctx := t.Context()
	key := "draft:Reception"

	draft := curriculum.Draft{
		LessonNumber: "4",
		Title:        "Echo Songs",
		Activities:   []curriculum.Activity{{ID: "a1", Category: "Singing", Duration: 10}},
	}
	if err := s.Set(ctx, key, draft); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Title != "Echo Songs" || len(got.Activities) != 1 {
		t.Fatalf("Get = %+v", got)
	}

	if err := s.Clear(ctx, key); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	got, err = s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get after Clear: %v", err)
	}
	if got != nil {
		t.Errorf("draft survived Clear: %+v", got)
	}
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	s := scratch.NewMemory()
	ctx := t.Context()

	if err := s.Set(ctx, "draft:Reception", curriculum.Draft{Title: "A"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "draft:Upper Kindergarten", curriculum.Draft{Title: "B"}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Clear(ctx, "draft:Reception"); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	got, err := s.Get(ctx, "draft:Upper Kindergarten")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || got.Title != "B" {
		t.Errorf("other context's draft affected: %+v", got)
	}
}

func TestMemoryReturnsCopies(t *testing.T) {
	s := scratch.NewMemory()
	ctx := t.Context()
	key := "draft:Reception"

	draft := curriculum.Draft{
		Activities: []curriculum.Activity{{ID: "a1", Duration: 5}},
	}
	if err := s.Set(ctx, key, draft); err != nil {
		t.Fatalf("Set: %v", err)
	}
	draft.Activities[0].Duration = 99

	got, err := s.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Activities[0].Duration != 5 {
		t.Errorf("caller mutation leaked into the store: %+v", got)
	}

	got.Activities[0].Duration = 42
	again, _ := s.Get(ctx, key)
	if again.Activities[0].Duration != 5 {
		t.Errorf("read mutation leaked into the store: %+v", again)
	}
}

func TestNewRedisRequiresClient(t *testing.T) {
	if _, err := scratch.NewRedis(nil); err == nil {
		t.Fatal("NewRedis(nil) should fail")
	}
}
