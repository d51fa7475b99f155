package curriculum

import "fmt"

// DisplayNumber derives the number shown for a lesson inside one container:
// 1 + its zero-based position in that container's current ordered list. The
// same lesson can render as "Lesson 3" in a half-term and "Lesson 7" in the
// library at the same time; both are correct. Recomputed on every read and
// never cached on the lesson.
func (s *Store) DisplayNumber(number, containerID string) (int, error) {
	c, err := s.Container(containerID)
	if err != nil {
		return 0, err
	}
	for i, n := range c.LessonNumbers() {
		if n == number {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("lesson %q not in container %q: %w", number, containerID, ErrNotFound)
}

// Numbered pairs a lesson with its display number in one container.
type Numbered struct {
	Lesson   Lesson
	Position int
}

// NumberedLessons resolves a container's ordered list into lessons with
// their display numbers, ready for rendering. Numbers referencing lessons
// that no longer exist are skipped; positions still reflect the container's
// own order.
func (s *Store) NumberedLessons(containerID string) ([]Numbered, error) {
	c, err := s.Container(containerID)
	if err != nil {
		return nil, err
	}
	var out []Numbered
	for i, n := range c.LessonNumbers() {
		l, err := s.Lesson(n)
		if err != nil {
			continue // dangling reference, tolerated on read
		}
		out = append(out, Numbered{Lesson: l, Position: i + 1})
	}
	return out, nil
}
