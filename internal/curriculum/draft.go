package curriculum

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Draft is the scratch copy of a lesson under construction. LessonNumber is
// the save target; empty means a new lesson gets the next free number on
// commit.
type Draft struct {
	LessonNumber string     `json:"lesson_number,omitempty"`
	Title        string     `json:"title"`
	Activities   []Activity `json:"activities"`
	Notes        string     `json:"notes,omitempty"`
	Header       string     `json:"header,omitempty"`
	Footer       string     `json:"footer,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at,omitempty"`
}

// Empty reports whether the draft holds nothing worth adopting: no title
// and no activities.
func (d Draft) Empty() bool {
	return d.Title == "" && len(d.Activities) == 0
}

// Duration is the total of the draft's activity durations.
func (d Draft) Duration() int {
	total := 0
	for _, a := range d.Activities {
		total += a.Duration
	}
	return total
}

func (d Draft) clone() Draft {
	c := d
	c.Activities = make([]Activity, len(d.Activities))
	for i, a := range d.Activities {
		c.Activities[i] = a.Clone()
	}
	return c
}

// sameFields is the reconciliation comparison: title, activity count,
// duration, notes and target number. Timestamps are deliberately excluded
// so a plain tab-switch never looks like an edit.
func (d Draft) sameFields(o Draft) bool {
	return d.Title == o.Title &&
		len(d.Activities) == len(o.Activities) &&
		d.Duration() == o.Duration() &&
		d.Notes == o.Notes &&
		d.LessonNumber == o.LessonNumber
}

// SessionState is the draft editing lifecycle.
type SessionState int

const (
	StateIdle SessionState = iota
	StateEditing
	StateHidden
)

func (s SessionState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEditing:
		return "editing"
	case StateHidden:
		return "hidden"
	default:
		return "unknown"
	}
}

// DraftSession manages one in-progress lesson edit for a teaching context:
// it mirrors every change into the scratch store, reconciles against the
// stored draft when the editing surface regains focus, and commits through
// the Manager's lesson-write path on save. Safe for concurrent use; a
// session may be shared by overlapping requests.
type DraftSession struct {
	teachingContext string
	scratch         DraftStore
	manager         *Manager

	mu    sync.Mutex
	state SessionState
	draft Draft
	dirty bool
}

// NewDraftSession creates an idle session for the manager's context.
func NewDraftSession(scratch DraftStore, manager *Manager) *DraftSession {
	return &DraftSession{
		teachingContext: manager.Store().Context(),
		scratch:         scratch,
		manager:         manager,
	}
}

func (s *DraftSession) key() string { return "draft:" + s.teachingContext }

// State returns the current lifecycle state.
func (s *DraftSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Draft returns a copy of the current in-memory draft.
func (s *DraftSession) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.clone()
}

// Dirty reports whether the session holds changes the user has not saved.
func (s *DraftSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// BlocksNavigation reports whether leaving the page should ask for
// confirmation. Only full navigation consults this; hiding the surface
// never blocks.
func (s *DraftSession) BlocksNavigation() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Begin enters editing. For a new lesson, a non-empty draft left in the
// scratch store for this context is adopted silently instead of starting
// blank; no prompt is shown.
func (s *DraftSession) Begin(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return fmt.Errorf("draft session for %q: begin from %s: %w", s.teachingContext, s.state, ErrInvariant)
	}
	stored, err := s.scratch.Get(ctx, s.key())
	if err != nil {
		slog.Warn("scratch read failed, starting blank", "context", s.teachingContext, "error", err)
	}
	if stored != nil && !stored.Empty() {
		s.draft = *stored
		slog.Info("draft adopted", "context", s.teachingContext, "title", stored.Title)
	} else {
		s.draft = Draft{}
	}
	s.state = StateEditing
	s.dirty = false
	return nil
}

// Edit replaces the in-memory draft and writes it through to the scratch
// store. Correctness needs only that the last write before hiding wins, so
// a caller may debounce.
func (s *DraftSession) Edit(ctx context.Context, d Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return fmt.Errorf("draft session for %q: edit from %s: %w", s.teachingContext, s.state, ErrInvariant)
	}
	d.UpdatedAt = time.Now()
	s.draft = d
	s.dirty = true
	if err := s.scratch.Set(ctx, s.key(), d); err != nil {
		return fmt.Errorf("scratch write for %q: %v: %w", s.teachingContext, err, ErrPersistence)
	}
	return nil
}

// Hide marks the editing surface hidden, forcing one final scratch write.
func (s *DraftSession) Hide(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return fmt.Errorf("draft session for %q: hide from %s: %w", s.teachingContext, s.state, ErrInvariant)
	}
	if err := s.scratch.Set(ctx, s.key(), s.draft); err != nil {
		return fmt.Errorf("scratch write for %q: %v: %w", s.teachingContext, err, ErrPersistence)
	}
	s.state = StateHidden
	return nil
}

// Resume re-enters editing after the surface regains focus. The stored
// draft is compared field-by-field against the in-memory one: a difference
// replaces the in-memory state and marks the session dirty; identical
// drafts change nothing, so tab-switching alone never triggers an unsaved-
// changes warning.
func (s *DraftSession) Resume(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateHidden {
		return fmt.Errorf("draft session for %q: resume from %s: %w", s.teachingContext, s.state, ErrInvariant)
	}
	s.state = StateEditing
	stored, err := s.scratch.Get(ctx, s.key())
	if err != nil {
		slog.Warn("scratch read failed on resume, keeping in-memory draft", "context", s.teachingContext, "error", err)
		return nil
	}
	if stored == nil {
		return nil
	}
	if s.draft.sameFields(*stored) {
		return nil
	}
	s.draft = *stored
	s.dirty = true
	slog.Info("draft reconciled from scratch store", "context", s.teachingContext, "title", stored.Title)
	return nil
}

// Save commits the draft through the Manager's lesson-write path and clears
// the dirty flag. The scratch store is NOT cleared: the user can keep
// tweaking the same draft after saving. Only Discard clears it.
func (s *DraftSession) Save(ctx context.Context) (Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateEditing {
		return Lesson{}, fmt.Errorf("draft session for %q: save from %s: %w", s.teachingContext, s.state, ErrInvariant)
	}
	number := s.draft.LessonNumber
	if number == "" {
		number = s.manager.Store().NextNumber()
	}
	lesson := Lesson{
		Number:     number,
		Title:      s.draft.Title,
		Activities: make([]Activity, len(s.draft.Activities)),
		Header:     s.draft.Header,
		Footer:     s.draft.Footer,
		UpdatedAt:  time.Now(),
	}
	for i, a := range s.draft.Activities {
		lesson.Activities[i] = a.Clone()
	}
	saved, err := s.manager.SaveLesson(ctx, lesson)
	if err != nil {
		return saved, err
	}
	s.draft.LessonNumber = number
	s.dirty = false
	// Keep the scratch copy aligned with the committed target number.
	if err := s.scratch.Set(ctx, s.key(), s.draft); err != nil {
		slog.Warn("scratch write after save failed", "context", s.teachingContext, "error", err)
	}
	return saved, nil
}

// Discard drops the draft and clears the scratch store, returning to idle.
// This is the only path that empties the scratch slot.
func (s *DraftSession) Discard(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.scratch.Clear(ctx, s.key()); err != nil {
		return fmt.Errorf("scratch clear for %q: %v: %w", s.teachingContext, err, ErrPersistence)
	}
	s.draft = Draft{}
	s.dirty = false
	s.state = StateIdle
	return nil
}
