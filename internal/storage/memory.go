// Package storage implements the durable persistence boundary for the
// planning hierarchy: a Postgres store for deployments and an in-memory
// store for tests and offline use.
package storage

import (
	"context"
	"sync"

	"github.com/classkit/planner/internal/curriculum"
)

// Memory is an in-memory curriculum.Persister. Writes are idempotent and
// keyed by (teaching context, id), matching the Postgres store's contract.
type Memory struct {
	mu   sync.RWMutex
	data map[string]*contextData
}

type contextData struct {
	lessons     map[string]curriculum.Lesson
	lessonOrder []string
	halfTerms   map[curriculum.HalfTermID]curriculum.HalfTerm
	stacks      map[string]curriculum.Stack
	stackOrder  []string
	units       map[string]curriculum.Unit
	unitOrder   []string
}

// NewMemory creates an empty in-memory persister.
func NewMemory() *Memory {
	return &Memory{data: make(map[string]*contextData)}
}

func (m *Memory) ctx(teachingContext string) *contextData {
	d, ok := m.data[teachingContext]
	if !ok {
		d = &contextData{
			lessons:   make(map[string]curriculum.Lesson),
			halfTerms: make(map[curriculum.HalfTermID]curriculum.HalfTerm),
			stacks:    make(map[string]curriculum.Stack),
			units:     make(map[string]curriculum.Unit),
		}
		m.data[teachingContext] = d
	}
	return d
}

// LoadAll returns everything stored for one teaching context.
func (m *Memory) LoadAll(_ context.Context, teachingContext string) (curriculum.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.data[teachingContext]
	if !ok {
		return curriculum.Snapshot{}, nil
	}
	var snap curriculum.Snapshot
	for _, n := range d.lessonOrder {
		snap.Lessons = append(snap.Lessons, d.lessons[n].Clone())
	}
	for _, id := range curriculum.HalfTermOrder {
		if h, ok := d.halfTerms[id]; ok {
			snap.HalfTerms = append(snap.HalfTerms, h.Clone())
		}
	}
	for _, id := range d.stackOrder {
		snap.Stacks = append(snap.Stacks, d.stacks[id].Clone())
	}
	for _, id := range d.unitOrder {
		snap.Units = append(snap.Units, d.units[id].Clone())
	}
	return snap, nil
}

func (m *Memory) SaveLesson(_ context.Context, teachingContext string, l curriculum.Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.ctx(teachingContext)
	if _, ok := d.lessons[l.Number]; !ok {
		d.lessonOrder = append(d.lessonOrder, l.Number)
	}
	d.lessons[l.Number] = l.Clone()
	return nil
}

func (m *Memory) SaveHalfTerm(_ context.Context, teachingContext string, h curriculum.HalfTerm) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ctx(teachingContext).halfTerms[h.ID] = h.Clone()
	return nil
}

func (m *Memory) SaveStack(_ context.Context, teachingContext string, s curriculum.Stack) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.ctx(teachingContext)
	if _, ok := d.stacks[s.ID]; !ok {
		d.stackOrder = append(d.stackOrder, s.ID)
	}
	d.stacks[s.ID] = s.Clone()
	return nil
}

func (m *Memory) SaveUnit(_ context.Context, teachingContext string, u curriculum.Unit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.ctx(teachingContext)
	if _, ok := d.units[u.ID]; !ok {
		d.unitOrder = append(d.unitOrder, u.ID)
	}
	d.units[u.ID] = u.Clone()
	return nil
}

func (m *Memory) DeleteLesson(_ context.Context, teachingContext, number string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.ctx(teachingContext)
	delete(d.lessons, number)
	kept := d.lessonOrder[:0]
	for _, n := range d.lessonOrder {
		if n != number {
			kept = append(kept, n)
		}
	}
	d.lessonOrder = kept
	return nil
}
