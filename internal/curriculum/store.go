package curriculum

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
)

// Store is the in-memory authoritative hierarchy for one teaching context.
// Reads are unrestricted and return copies; every mutation runs under the
// write lock as a whole, so readers only ever see fully applied state.
// Mutation methods are unexported: the Manager, Duplicator and DraftSession
// in this package are the only write paths.
type Store struct {
	context string

	mu        sync.RWMutex
	lessons   map[string]Lesson
	order     []string // library order, insertion-ordered
	halfTerms map[HalfTermID]HalfTerm
	stacks    map[string]Stack
	stackIDs  []string
	units     map[string]Unit
	unitIDs   []string // user-ordered
	catalog   []Category
}

// defaultHalfTerms is the fixed six-period academic calendar. Display names
// and month ranges can be overridden from the catalog.
func defaultHalfTerms() map[HalfTermID]HalfTerm {
	defs := map[HalfTermID]HalfTerm{
		Autumn1: {ID: Autumn1, Name: "Autumn 1", Months: "Sep-Oct"},
		Autumn2: {ID: Autumn2, Name: "Autumn 2", Months: "Nov-Dec"},
		Spring1: {ID: Spring1, Name: "Spring 1", Months: "Jan-Feb"},
		Spring2: {ID: Spring2, Name: "Spring 2", Months: "Feb-Apr"},
		Summer1: {ID: Summer1, Name: "Summer 1", Months: "Apr-May"},
		Summer2: {ID: Summer2, Name: "Summer 2", Months: "Jun-Jul"},
	}
	return defs
}

// NewStore creates an empty hierarchy for the given teaching context with
// the six fixed half-terms in place.
func NewStore(teachingContext string) *Store {
	return &Store{
		context:   teachingContext,
		lessons:   make(map[string]Lesson),
		halfTerms: defaultHalfTerms(),
		stacks:    make(map[string]Stack),
		units:     make(map[string]Unit),
	}
}

// Context returns the teaching context this store belongs to.
func (s *Store) Context() string { return s.context }

// SetCatalog replaces the category catalog used for eligibility lookups.
func (s *Store) SetCatalog(categories []Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append([]Category(nil), categories...)
}

// Catalog returns the category catalog.
func (s *Store) Catalog() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category(nil), s.catalog...)
}

// Snapshot is the full persisted state of one teaching context.
type Snapshot struct {
	Lessons   []Lesson
	HalfTerms []HalfTerm
	Stacks    []Stack
	Units     []Unit
}

// Load hydrates the store from a snapshot, replacing current contents.
// Half-terms not present in the snapshot keep their calendar defaults.
func (s *Store) Load(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lessons = make(map[string]Lesson, len(snap.Lessons))
	s.order = s.order[:0]
	for _, l := range snap.Lessons {
		s.lessons[l.Number] = l.Clone()
		s.order = append(s.order, l.Number)
	}
	s.halfTerms = defaultHalfTerms()
	for _, h := range snap.HalfTerms {
		if _, ok := s.halfTerms[h.ID]; ok {
			s.halfTerms[h.ID] = h.Clone()
		}
	}
	s.stacks = make(map[string]Stack, len(snap.Stacks))
	s.stackIDs = s.stackIDs[:0]
	for _, st := range snap.Stacks {
		s.stacks[st.ID] = st.Clone()
		s.stackIDs = append(s.stackIDs, st.ID)
	}
	s.units = make(map[string]Unit, len(snap.Units))
	s.unitIDs = s.unitIDs[:0]
	for _, u := range snap.Units {
		s.units[u.ID] = u.Clone()
		s.unitIDs = append(s.unitIDs, u.ID)
	}
}

// Lesson returns the lesson with the given permanent number.
func (s *Store) Lesson(number string) (Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.lessons[number]
	if !ok {
		return Lesson{}, fmt.Errorf("lesson %q in context %q: %w", number, s.context, ErrNotFound)
	}
	return l.Clone(), nil
}

// Lessons returns all lessons in library order.
func (s *Store) Lessons() []Lesson {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Lesson, 0, len(s.order))
	for _, n := range s.order {
		out = append(out, s.lessons[n].Clone())
	}
	return out
}

// LessonNumbers returns every lesson number, library order.
func (s *Store) LessonNumbers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// HalfTerm returns one of the six periods.
func (s *Store) HalfTerm(id HalfTermID) (HalfTerm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.halfTerms[id]
	if !ok {
		return HalfTerm{}, fmt.Errorf("half-term %q: %w", id, ErrNotFound)
	}
	return h.Clone(), nil
}

// HalfTerms returns the six periods in academic-year order.
func (s *Store) HalfTerms() []HalfTerm {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]HalfTerm, 0, len(HalfTermOrder))
	for _, id := range HalfTermOrder {
		out = append(out, s.halfTerms[id].Clone())
	}
	return out
}

// HalfTermOf reports which half-term currently holds the lesson, if any.
func (s *Store) HalfTermOf(number string) (HalfTermID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.halfTermOfLocked(number)
}

func (s *Store) halfTermOfLocked(number string) (HalfTermID, bool) {
	for _, id := range HalfTermOrder {
		for _, n := range s.halfTerms[id].Lessons {
			if n == number {
				return id, true
			}
		}
	}
	return "", false
}

// Stack returns a stack by id.
func (s *Store) Stack(id string) (Stack, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.stacks[id]
	if !ok {
		return Stack{}, fmt.Errorf("stack %q: %w", id, ErrNotFound)
	}
	return st.Clone(), nil
}

// Stacks returns all stacks in creation order.
func (s *Store) Stacks() []Stack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Stack, 0, len(s.stackIDs))
	for _, id := range s.stackIDs {
		out = append(out, s.stacks[id].Clone())
	}
	return out
}

// Unit returns a unit by id.
func (s *Store) Unit(id string) (Unit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[id]
	if !ok {
		return Unit{}, fmt.Errorf("unit %q: %w", id, ErrNotFound)
	}
	return u.Clone(), nil
}

// Units returns all units in user order.
func (s *Store) Units() []Unit {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Unit, 0, len(s.unitIDs))
	for _, id := range s.unitIDs {
		out = append(out, s.units[id].Clone())
	}
	return out
}

// Container resolves a container id: the library, a half-term, a stack or a
// unit, in that lookup order.
func (s *Store) Container(id string) (Container, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id == LibraryContainer {
		return library{numbers: append([]string(nil), s.order...)}, nil
	}
	if h, ok := s.halfTerms[HalfTermID(id)]; ok {
		return h.Clone(), nil
	}
	if st, ok := s.stacks[id]; ok {
		return st.Clone(), nil
	}
	if u, ok := s.units[id]; ok {
		return u.Clone(), nil
	}
	return nil, fmt.Errorf("container %q in context %q: %w", id, s.context, ErrNotFound)
}

// NextNumber returns the next free permanent lesson number. Copy suffixes
// and other non-numeric identifiers are skipped.
func (s *Store) NextNumber() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	max := 0
	for n := range s.lessons {
		if v, err := strconv.Atoi(n); err == nil && v > max {
			max = v
		}
	}
	return strconv.Itoa(max + 1)
}

// overrideCalendar updates a fixed period's display name and month range
// from the catalog. Membership and the six-period structure never change.
func (s *Store) overrideCalendar(id HalfTermID, name, months string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.halfTerms[id]
	if !ok {
		return
	}
	if name != "" {
		h.Name = name
	}
	if months != "" {
		h.Months = months
	}
	s.halfTerms[id] = h
}

// --- mutation primitives (package-internal write path) ---

// putLesson inserts or replaces a lesson; new numbers append to the library.
func (s *Store) putLesson(l Lesson) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[l.Number]; !ok {
		s.order = append(s.order, l.Number)
	}
	s.lessons[l.Number] = l.Clone()
}

// assignLesson moves a lesson into a half-term: removed from whichever
// period held it, appended to the target's ordered list. Stacks on the
// target are untouched.
func (s *Store) assignLesson(number string, target HalfTermID) (HalfTerm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[number]; !ok {
		return HalfTerm{}, fmt.Errorf("lesson %q in context %q: %w", number, s.context, ErrNotFound)
	}
	dst, ok := s.halfTerms[target]
	if !ok {
		return HalfTerm{}, fmt.Errorf("half-term %q: %w", target, ErrNotFound)
	}
	if prev, held := s.halfTermOfLocked(number); held {
		if prev == target {
			return dst.Clone(), nil
		}
		s.stripLessonLocked(prev, number)
	}
	dst = s.halfTerms[target]
	dst.Lessons = append(dst.Lessons, number)
	s.halfTerms[target] = dst
	return dst.Clone(), nil
}

// stripLessonLocked removes a lesson number from one half-term's list and
// clears the complete flag if the period is left with nothing in it.
func (s *Store) stripLessonLocked(id HalfTermID, number string) bool {
	h := s.halfTerms[id]
	removed := false
	kept := h.Lessons[:0]
	for _, n := range h.Lessons {
		if n == number {
			removed = true
			continue
		}
		kept = append(kept, n)
	}
	h.Lessons = kept
	if len(h.Lessons) == 0 && len(h.Stacks) == 0 {
		h.Complete = false
	}
	s.halfTerms[id] = h
	return removed
}

// removeLesson strips the lesson from one half-term only; the lesson stays
// in the library.
func (s *Store) removeLesson(number string, id HalfTermID) (HalfTerm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.halfTerms[id]
	if !ok {
		return HalfTerm{}, fmt.Errorf("half-term %q: %w", id, ErrNotFound)
	}
	if !s.stripLessonLocked(id, number) {
		return h.Clone(), fmt.Errorf("lesson %q not in half-term %q: %w", number, id, ErrNotFound)
	}
	return s.halfTerms[id].Clone(), nil
}

// reorderLessons moves one element of a half-term's ordered list.
func (s *Store) reorderLessons(id HalfTermID, from, to int) (HalfTerm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.halfTerms[id]
	if !ok {
		return HalfTerm{}, fmt.Errorf("half-term %q: %w", id, ErrNotFound)
	}
	n := len(h.Lessons)
	if from < 0 || from >= n || to < 0 || to >= n {
		return HalfTerm{}, fmt.Errorf("reorder half-term %q: index %d -> %d of %d lessons: %w", id, from, to, n, ErrOutOfRange)
	}
	moved := h.Lessons[from]
	h.Lessons = append(h.Lessons[:from], h.Lessons[from+1:]...)
	h.Lessons = append(h.Lessons[:to], append([]string{moved}, h.Lessons[to:]...)...)
	s.halfTerms[id] = h
	return h.Clone(), nil
}

// assignStack adds a stack to a half-term's stack list. Idempotent union.
func (s *Store) assignStack(stackID string, id HalfTermID) (HalfTerm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stacks[stackID]; !ok {
		return HalfTerm{}, fmt.Errorf("stack %q: %w", stackID, ErrNotFound)
	}
	h, ok := s.halfTerms[id]
	if !ok {
		return HalfTerm{}, fmt.Errorf("half-term %q: %w", id, ErrNotFound)
	}
	for _, existing := range h.Stacks {
		if existing == stackID {
			return h.Clone(), nil
		}
	}
	h.Stacks = append(h.Stacks, stackID)
	s.halfTerms[id] = h
	return h.Clone(), nil
}

// setComplete flags a half-term. An empty period can never be complete.
func (s *Store) setComplete(id HalfTermID, complete bool) (HalfTerm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.halfTerms[id]
	if !ok {
		return HalfTerm{}, fmt.Errorf("half-term %q: %w", id, ErrNotFound)
	}
	if complete && len(h.Lessons) == 0 && len(h.Stacks) == 0 {
		return HalfTerm{}, fmt.Errorf("half-term %q is empty and cannot be complete: %w", id, ErrInvariant)
	}
	h.Complete = complete
	s.halfTerms[id] = h
	return h.Clone(), nil
}

// putStack inserts or replaces a stack, recomputing its cached totals from
// the member lessons currently in the library.
func (s *Store) putStack(st Stack) Stack {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stacks[st.ID]; !ok {
		s.stackIDs = append(s.stackIDs, st.ID)
	}
	st.TotalMinutes, st.TotalActivities = 0, 0
	for _, n := range st.Lessons {
		if l, ok := s.lessons[n]; ok {
			st.TotalMinutes += l.Duration()
			st.TotalActivities += len(l.Activities)
		}
	}
	s.stacks[st.ID] = st.Clone()
	return st.Clone()
}

// putUnit inserts or replaces a unit.
func (s *Store) putUnit(u Unit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.units[u.ID]; !ok {
		s.unitIDs = append(s.unitIDs, u.ID)
	}
	s.units[u.ID] = u.Clone()
}

// purgeLesson removes a lesson from the library and from every half-term,
// stack and unit that references it. Returns the container ids touched.
func (s *Store) purgeLesson(number string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lessons[number]; !ok {
		return nil, fmt.Errorf("lesson %q in context %q: %w", number, s.context, ErrNotFound)
	}
	delete(s.lessons, number)
	kept := s.order[:0]
	for _, n := range s.order {
		if n != number {
			kept = append(kept, n)
		}
	}
	s.order = kept

	var touched []string
	for _, id := range HalfTermOrder {
		if s.stripLessonLocked(id, number) {
			touched = append(touched, string(id))
		}
	}
	for id, st := range s.stacks {
		if removeString(&st.Lessons, number) {
			st.TotalMinutes, st.TotalActivities = 0, 0
			for _, n := range st.Lessons {
				if l, ok := s.lessons[n]; ok {
					st.TotalMinutes += l.Duration()
					st.TotalActivities += len(l.Activities)
				}
			}
			s.stacks[id] = st
			touched = append(touched, id)
		}
	}
	for id, u := range s.units {
		if removeString(&u.Lessons, number) {
			s.units[id] = u
			touched = append(touched, id)
		}
	}
	sort.Strings(touched)
	return touched, nil
}

func removeString(list *[]string, v string) bool {
	removed := false
	kept := (*list)[:0]
	for _, s := range *list {
		if s == v {
			removed = true
			continue
		}
		kept = append(kept, s)
	}
	*list = kept
	return removed
}
