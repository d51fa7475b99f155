package curriculum

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Manager is the only write path into the hierarchy for membership edges.
// Every operation applies its store mutation atomically, then persists the
// touched records and publishes a change. Persistence failures come back as
// ErrPersistence with the store mutation already applied: local state is the
// source of truth for the session and the caller owns retry.
type Manager struct {
	store   *Store
	persist Persister
	events  Publisher
}

// ManagerConfig holds the Manager's collaborators. Persist and Events are
// optional; absent ones degrade to in-memory-only operation.
type ManagerConfig struct {
	Store   *Store
	Persist Persister
	Events  Publisher
}

// NewManager creates the assignment manager for one teaching context.
func NewManager(cfg ManagerConfig) *Manager {
	events := cfg.Events
	if events == nil {
		events = nopPublisher{}
	}
	return &Manager{store: cfg.Store, persist: cfg.Persist, events: events}
}

// Store exposes the hierarchy for reads.
func (m *Manager) Store() *Store { return m.store }

// AssignLessonToHalfTerm moves a lesson into a half-term, removing it from
// whichever period held it first. Returns the updated target half-term.
func (m *Manager) AssignLessonToHalfTerm(ctx context.Context, number string, target HalfTermID) (HalfTerm, error) {
	prev, held := m.store.HalfTermOf(number)
	h, err := m.store.assignLesson(number, target)
	if err != nil {
		return HalfTerm{}, err
	}
	slog.Info("lesson assigned", "context", m.store.context, "lesson", number, "half_term", target)
	m.events.Publish(Change{Kind: "half-term", Context: m.store.context, ID: string(target), Op: "assign"})

	if err := m.persistHalfTerm(ctx, h); err != nil {
		return h, err
	}
	if held && prev != target {
		source, serr := m.store.HalfTerm(prev)
		if serr == nil {
			if err := m.persistHalfTerm(ctx, source); err != nil {
				return h, err
			}
		}
	}
	return h, nil
}

// RemoveLessonFromHalfTerm strips the membership edge only; the lesson
// stays in the library. Emptying the period clears its complete flag.
func (m *Manager) RemoveLessonFromHalfTerm(ctx context.Context, number string, id HalfTermID) (HalfTerm, error) {
	h, err := m.store.removeLesson(number, id)
	if err != nil {
		return h, err
	}
	slog.Info("lesson removed from half-term", "context", m.store.context, "lesson", number, "half_term", id)
	m.events.Publish(Change{Kind: "half-term", Context: m.store.context, ID: string(id), Op: "remove"})
	if err := m.persistHalfTerm(ctx, h); err != nil {
		return h, err
	}
	return h, nil
}

// AssignStackToHalfTerm appends the stack id to the period's stack list.
// Idempotent: assigning a stack already present changes nothing.
func (m *Manager) AssignStackToHalfTerm(ctx context.Context, stackID string, id HalfTermID) (HalfTerm, error) {
	h, err := m.store.assignStack(stackID, id)
	if err != nil {
		return HalfTerm{}, err
	}
	m.events.Publish(Change{Kind: "half-term", Context: m.store.context, ID: string(id), Op: "assign"})
	if err := m.persistHalfTerm(ctx, h); err != nil {
		return h, err
	}
	return h, nil
}

// ReorderLessonsInHalfTerm moves one element of the period's ordered list.
// Out-of-range indices fail with ErrOutOfRange and leave the list unchanged.
func (m *Manager) ReorderLessonsInHalfTerm(ctx context.Context, id HalfTermID, from, to int) (HalfTerm, error) {
	h, err := m.store.reorderLessons(id, from, to)
	if err != nil {
		return HalfTerm{}, err
	}
	m.events.Publish(Change{Kind: "half-term", Context: m.store.context, ID: string(id), Op: "reorder"})
	if err := m.persistHalfTerm(ctx, h); err != nil {
		return h, err
	}
	return h, nil
}

// MarkHalfTermComplete sets the period's complete flag. Marking an empty
// period complete is refused with ErrInvariant.
func (m *Manager) MarkHalfTermComplete(ctx context.Context, id HalfTermID, complete bool) (HalfTerm, error) {
	h, err := m.store.setComplete(id, complete)
	if err != nil {
		return HalfTerm{}, err
	}
	m.events.Publish(Change{Kind: "half-term", Context: m.store.context, ID: string(id), Op: "put"})
	if err := m.persistHalfTerm(ctx, h); err != nil {
		return h, err
	}
	return h, nil
}

// DeleteMode says what DeleteLesson should do. Construct one with
// DeletePermanently or DeleteFromHalfTerm; the zero value is invalid, so a
// caller can never reach the wrong behavior by accident.
type DeleteMode struct {
	permanent bool
	halfTerm  HalfTermID
}

// DeletePermanently removes the lesson from the library and from every
// half-term, stack and unit referencing it.
func DeletePermanently() DeleteMode { return DeleteMode{permanent: true} }

// DeleteFromHalfTerm strips one half-term membership edge only, keeping the
// lesson (and its stack and unit membership) intact for later re-assignment.
func DeleteFromHalfTerm(id HalfTermID) DeleteMode { return DeleteMode{halfTerm: id} }

// DeleteLesson removes a lesson in the requested mode.
func (m *Manager) DeleteLesson(ctx context.Context, number string, mode DeleteMode) error {
	switch {
	case mode.permanent:
		touched, err := m.store.purgeLesson(number)
		if err != nil {
			return err
		}
		slog.Info("lesson deleted", "context", m.store.context, "lesson", number, "containers", touched)
		m.events.Publish(Change{Kind: "lesson", Context: m.store.context, ID: number, Op: "delete"})
		if m.persist == nil {
			return nil
		}
		if err := m.persist.DeleteLesson(ctx, m.store.context, number); err != nil {
			return fmt.Errorf("delete lesson %q: %v: %w", number, err, ErrPersistence)
		}
		for _, id := range touched {
			if err := m.persistContainer(ctx, id); err != nil {
				return err
			}
		}
		return nil
	case mode.halfTerm != "":
		_, err := m.RemoveLessonFromHalfTerm(ctx, number, mode.halfTerm)
		return err
	default:
		return fmt.Errorf("delete lesson %q: mode not specified: %w", number, ErrInvariant)
	}
}

// SaveLesson inserts or updates a lesson in the library. This is the
// lesson-write path draft saves and imports commit through.
func (m *Manager) SaveLesson(ctx context.Context, l Lesson) (Lesson, error) {
	if l.Number == "" {
		return Lesson{}, fmt.Errorf("save lesson: empty lesson number: %w", ErrInvariant)
	}
	m.store.putLesson(l)
	m.events.Publish(Change{Kind: "lesson", Context: m.store.context, ID: l.Number, Op: "put"})
	if m.persist != nil {
		if err := m.persist.SaveLesson(ctx, m.store.context, l); err != nil {
			return l, fmt.Errorf("save lesson %q: %v: %w", l.Number, err, ErrPersistence)
		}
	}
	return l, nil
}

// CreateStack registers a new named stack and returns it with a fresh id
// and computed totals.
func (m *Manager) CreateStack(ctx context.Context, name, color string, lessons []string, objectives []string) (Stack, error) {
	st := m.store.putStack(Stack{
		ID:         uuid.NewString(),
		Name:       name,
		Color:      color,
		Lessons:    append([]string(nil), lessons...),
		Objectives: append([]string(nil), objectives...),
	})
	m.events.Publish(Change{Kind: "stack", Context: m.store.context, ID: st.ID, Op: "put"})
	if m.persist != nil {
		if err := m.persist.SaveStack(ctx, m.store.context, st); err != nil {
			return st, fmt.Errorf("save stack %q: %v: %w", st.ID, err, ErrPersistence)
		}
	}
	return st, nil
}

// AddLessonToStack appends a lesson number to a stack, refreshing the
// cached totals. Already-present numbers are left alone.
func (m *Manager) AddLessonToStack(ctx context.Context, number, stackID string) (Stack, error) {
	st, err := m.store.Stack(stackID)
	if err != nil {
		return Stack{}, err
	}
	if _, err := m.store.Lesson(number); err != nil {
		return Stack{}, err
	}
	for _, n := range st.Lessons {
		if n == number {
			return st, nil
		}
	}
	st.Lessons = append(st.Lessons, number)
	st = m.store.putStack(st)
	m.events.Publish(Change{Kind: "stack", Context: m.store.context, ID: st.ID, Op: "assign"})
	if m.persist != nil {
		if err := m.persist.SaveStack(ctx, m.store.context, st); err != nil {
			return st, fmt.Errorf("save stack %q: %v: %w", st.ID, err, ErrPersistence)
		}
	}
	return st, nil
}

// RemoveLessonFromStack drops a lesson number from a stack.
func (m *Manager) RemoveLessonFromStack(ctx context.Context, number, stackID string) (Stack, error) {
	st, err := m.store.Stack(stackID)
	if err != nil {
		return Stack{}, err
	}
	if !removeString(&st.Lessons, number) {
		return st, fmt.Errorf("lesson %q not in stack %q: %w", number, stackID, ErrNotFound)
	}
	st = m.store.putStack(st)
	m.events.Publish(Change{Kind: "stack", Context: m.store.context, ID: st.ID, Op: "remove"})
	if m.persist != nil {
		if err := m.persist.SaveStack(ctx, m.store.context, st); err != nil {
			return st, fmt.Errorf("save stack %q: %v: %w", st.ID, err, ErrPersistence)
		}
	}
	return st, nil
}

// CreateUnit registers a new free-form unit.
func (m *Manager) CreateUnit(ctx context.Context, name, term string, lessons []string) (Unit, error) {
	u := Unit{
		ID:      uuid.NewString(),
		Name:    name,
		Term:    term,
		Lessons: append([]string(nil), lessons...),
	}
	m.store.putUnit(u)
	m.events.Publish(Change{Kind: "unit", Context: m.store.context, ID: u.ID, Op: "put"})
	if m.persist != nil {
		if err := m.persist.SaveUnit(ctx, m.store.context, u); err != nil {
			return u, fmt.Errorf("save unit %q: %v: %w", u.ID, err, ErrPersistence)
		}
	}
	return u, nil
}

// AddLessonToUnit appends a lesson number to a unit. A lesson may belong to
// a unit without being assigned to any half-term.
func (m *Manager) AddLessonToUnit(ctx context.Context, number, unitID string) (Unit, error) {
	u, err := m.store.Unit(unitID)
	if err != nil {
		return Unit{}, err
	}
	if _, err := m.store.Lesson(number); err != nil {
		return Unit{}, err
	}
	for _, n := range u.Lessons {
		if n == number {
			return u, nil
		}
	}
	u.Lessons = append(u.Lessons, number)
	m.store.putUnit(u)
	m.events.Publish(Change{Kind: "unit", Context: m.store.context, ID: u.ID, Op: "assign"})
	if m.persist != nil {
		if err := m.persist.SaveUnit(ctx, m.store.context, u); err != nil {
			return u, fmt.Errorf("save unit %q: %v: %w", u.ID, err, ErrPersistence)
		}
	}
	return u, nil
}

// RemoveLessonFromUnit drops a lesson number from a unit.
func (m *Manager) RemoveLessonFromUnit(ctx context.Context, number, unitID string) (Unit, error) {
	u, err := m.store.Unit(unitID)
	if err != nil {
		return Unit{}, err
	}
	if !removeString(&u.Lessons, number) {
		return u, fmt.Errorf("lesson %q not in unit %q: %w", number, unitID, ErrNotFound)
	}
	m.store.putUnit(u)
	m.events.Publish(Change{Kind: "unit", Context: m.store.context, ID: u.ID, Op: "remove"})
	if m.persist != nil {
		if err := m.persist.SaveUnit(ctx, m.store.context, u); err != nil {
			return u, fmt.Errorf("save unit %q: %v: %w", u.ID, err, ErrPersistence)
		}
	}
	return u, nil
}

func (m *Manager) persistHalfTerm(ctx context.Context, h HalfTerm) error {
	if m.persist == nil {
		return nil
	}
	if err := m.persist.SaveHalfTerm(ctx, m.store.context, h); err != nil {
		return fmt.Errorf("save half-term %q: %v: %w", h.ID, err, ErrPersistence)
	}
	return nil
}

// persistContainer re-saves whichever record a permanent delete touched.
func (m *Manager) persistContainer(ctx context.Context, id string) error {
	if h, err := m.store.HalfTerm(HalfTermID(id)); err == nil {
		return m.persistHalfTerm(ctx, h)
	}
	if st, err := m.store.Stack(id); err == nil {
		if err := m.persist.SaveStack(ctx, m.store.context, st); err != nil {
			return fmt.Errorf("save stack %q: %v: %w", st.ID, err, ErrPersistence)
		}
		return nil
	}
	if u, err := m.store.Unit(id); err == nil {
		if err := m.persist.SaveUnit(ctx, m.store.context, u); err != nil {
			return fmt.Errorf("save unit %q: %v: %w", u.ID, err, ErrPersistence)
		}
	}
	return nil
}
