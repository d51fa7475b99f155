// Package curriculum implements the planning hierarchy: activities grouped
// into lessons, lessons placed into half-terms, and the looser stack and
// unit groupings educators layer on top.
package curriculum

import "time"

// Activity is the atomic content unit inside a lesson. An activity held by a
// lesson is a value copy: editing it in one lesson never changes the copy
// another lesson carries, even when both came from the same source id.
type Activity struct {
	ID        string            `json:"id" yaml:"id"`
	Category  string            `json:"category" yaml:"category"`
	Duration  int               `json:"duration" yaml:"duration"` // minutes
	Title     string            `json:"title" yaml:"title"`
	Notes     string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	Resources map[string]string `json:"resources,omitempty" yaml:"resources,omitempty"` // keyed by type
}

// Clone returns a deep copy of the activity.
func (a Activity) Clone() Activity {
	c := a
	if a.Resources != nil {
		c.Resources = make(map[string]string, len(a.Resources))
		for k, v := range a.Resources {
			c.Resources[k] = v
		}
	}
	return c
}

// Category groups activities for selection. Eligibility maps a year-group
// key to whether the category is offered in that teaching context.
type Category struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Color       string          `json:"color" yaml:"color"`
	Groups      []string        `json:"groups,omitempty" yaml:"groups,omitempty"`
	Eligibility map[string]bool `json:"eligibility" yaml:"eligibility"`
}

// Lesson is an ordered sequence of activities under a permanent lesson
// number. The activity list is the canonical order; any grouping by category
// is derived at read time.
type Lesson struct {
	Number     string     `json:"number"`
	Title      string     `json:"title"`
	Activities []Activity `json:"activities"`
	Header     string     `json:"header,omitempty"`
	Footer     string     `json:"footer,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at,omitempty"`
}

// Duration is the total of all activity durations, in minutes.
func (l Lesson) Duration() int {
	total := 0
	for _, a := range l.Activities {
		total += a.Duration
	}
	return total
}

// Clone returns a deep copy of the lesson, activities included.
func (l Lesson) Clone() Lesson {
	c := l
	c.Activities = make([]Activity, len(l.Activities))
	for i, a := range l.Activities {
		c.Activities[i] = a.Clone()
	}
	return c
}

// CategoryGroup is one category's slice of a lesson, in canonical order.
type CategoryGroup struct {
	Category   string
	Activities []Activity
}

// ByCategory groups the lesson's activities by category, categories ordered
// by first appearance. Derived view only; the flat list stays authoritative.
func (l Lesson) ByCategory() []CategoryGroup {
	var groups []CategoryGroup
	index := make(map[string]int)
	for _, a := range l.Activities {
		i, ok := index[a.Category]
		if !ok {
			i = len(groups)
			index[a.Category] = i
			groups = append(groups, CategoryGroup{Category: a.Category})
		}
		groups[i].Activities = append(groups[i].Activities, a)
	}
	return groups
}

// HalfTermID identifies one of the six fixed teaching periods.
type HalfTermID string

const (
	Autumn1 HalfTermID = "A1"
	Autumn2 HalfTermID = "A2"
	Spring1 HalfTermID = "SP1"
	Spring2 HalfTermID = "SP2"
	Summer1 HalfTermID = "SM1"
	Summer2 HalfTermID = "SM2"
)

// HalfTermOrder is the academic-year ordering of the six periods.
var HalfTermOrder = [6]HalfTermID{Autumn1, Autumn2, Spring1, Spring2, Summer1, Summer2}

// HalfTerm is a fixed teaching period holding an ordered lesson list and the
// stacks assigned to it. A lesson number appears in at most one half-term.
type HalfTerm struct {
	ID       HalfTermID `json:"id"`
	Name     string     `json:"name"`
	Months   string     `json:"months"`
	Lessons  []string   `json:"lessons"` // ordered lesson numbers
	Stacks   []string   `json:"stacks"`
	Complete bool       `json:"complete"`
}

// Clone returns a deep copy of the half-term.
func (h HalfTerm) Clone() HalfTerm {
	c := h
	c.Lessons = append([]string(nil), h.Lessons...)
	c.Stacks = append([]string(nil), h.Stacks...)
	return c
}

// Stack is a named bundle of lesson numbers, assignable to a half-term
// independently of whether its member lessons are individually assigned.
type Stack struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Color           string   `json:"color"`
	Lessons         []string `json:"lessons"`
	Objectives      []string `json:"objectives,omitempty"`
	TotalMinutes    int      `json:"total_minutes"`
	TotalActivities int      `json:"total_activities"`
}

// Clone returns a deep copy of the stack.
func (s Stack) Clone() Stack {
	c := s
	c.Lessons = append([]string(nil), s.Lessons...)
	c.Objectives = append([]string(nil), s.Objectives...)
	return c
}

// Unit is a free-form folder of lesson numbers with a term tag. Membership
// is looser than a half-term: a lesson may sit in a unit while unassigned.
type Unit struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Term    string   `json:"term"`
	Lessons []string `json:"lessons"`
}

// Clone returns a deep copy of the unit.
func (u Unit) Clone() Unit {
	c := u
	c.Lessons = append([]string(nil), u.Lessons...)
	return c
}

// LibraryContainer addresses the unfiltered lesson library when deriving
// display numbers.
const LibraryContainer = "library"

// Container is the capability half-terms, stacks, units and the library
// share: an identifier and an ordered lesson list. Numbering and assignment
// logic is written against this, not the concrete types.
type Container interface {
	ContainerID() string
	LessonNumbers() []string
}

func (h HalfTerm) ContainerID() string     { return string(h.ID) }
func (h HalfTerm) LessonNumbers() []string { return h.Lessons }

func (s Stack) ContainerID() string     { return s.ID }
func (s Stack) LessonNumbers() []string { return s.Lessons }

func (u Unit) ContainerID() string     { return u.ID }
func (u Unit) LessonNumbers() []string { return u.Lessons }

// library is the unfiltered lesson list viewed as a container.
type library struct {
	numbers []string
}

func (l library) ContainerID() string     { return LibraryContainer }
func (l library) LessonNumbers() []string { return l.numbers }
