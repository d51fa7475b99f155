package curriculum

import (
	"context"
	"fmt"
	"log/slog"
)

// copyTitlePrefix marks duplicated lessons in the library view.
const copyTitlePrefix = "Copy of "

// Duplicator clones lessons under fresh identifiers. Duplication never
// implies re-assignment: the copy lands in the library only.
type Duplicator struct {
	store   *Store
	persist Persister
	events  Publisher
}

// NewDuplicator creates the duplication service.
func NewDuplicator(store *Store, persist Persister, events Publisher) *Duplicator {
	if events == nil {
		events = nopPublisher{}
	}
	return &Duplicator{store: store, persist: persist, events: events}
}

// Duplicate deep-copies the lesson and registers the copy under the first
// free "-copy-N" identifier. The suffix is collision-checked against every
// existing identifier, not a counter, so deleted copies free their number.
func (d *Duplicator) Duplicate(ctx context.Context, number string) (string, error) {
	src, err := d.store.Lesson(number)
	if err != nil {
		return "", err
	}

	existing := make(map[string]bool)
	for _, n := range d.store.LessonNumbers() {
		existing[n] = true
	}
	newNumber := ""
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s-copy-%d", number, n)
		if !existing[candidate] {
			newNumber = candidate
			break
		}
	}

	clone := src.Clone()
	clone.Number = newNumber
	clone.Title = copyTitlePrefix + src.Title
	d.store.putLesson(clone)
	slog.Info("lesson duplicated", "context", d.store.context, "source", number, "copy", newNumber)
	d.events.Publish(Change{Kind: "lesson", Context: d.store.context, ID: newNumber, Op: "put"})

	if d.persist != nil {
		if err := d.persist.SaveLesson(ctx, d.store.context, clone); err != nil {
			return newNumber, fmt.Errorf("save lesson %q: %v: %w", newNumber, err, ErrPersistence)
		}
	}
	return newNumber, nil
}
