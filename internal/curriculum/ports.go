package curriculum

import "context"

// Persister is the durable-storage boundary. Implementations must be
// idempotent on retry; the engine writes optimistically, so a failure here
// never rolls back the in-memory store.
type Persister interface {
	LoadAll(ctx context.Context, teachingContext string) (Snapshot, error)
	SaveLesson(ctx context.Context, teachingContext string, l Lesson) error
	SaveHalfTerm(ctx context.Context, teachingContext string, h HalfTerm) error
	SaveStack(ctx context.Context, teachingContext string, s Stack) error
	SaveUnit(ctx context.Context, teachingContext string, u Unit) error
	DeleteLesson(ctx context.Context, teachingContext, number string) error
}

// DraftStore is the client-local scratch store for in-progress drafts,
// keyed "draft:" + teaching context. Get returns nil when no draft is held.
type DraftStore interface {
	Get(ctx context.Context, key string) (*Draft, error)
	Set(ctx context.Context, key string, d Draft) error
	Clear(ctx context.Context, key string) error
}

// Change describes one applied mutation, published so the UI layer can
// re-read the authoritative state it cares about.
type Change struct {
	Kind    string `json:"kind"` // "lesson", "half-term", "stack", "unit"
	Context string `json:"context"`
	ID      string `json:"id"`
	Op      string `json:"op"` // "put", "delete", "assign", "remove", "reorder"
}

// Publisher receives change notifications. Must not block.
type Publisher interface {
	Publish(Change)
}

// nopPublisher is used when no change feed is wired.
type nopPublisher struct{}

func (nopPublisher) Publish(Change) {}
