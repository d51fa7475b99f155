package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"

	"github.com/classkit/planner/internal/curriculum"
)

// Importer turns validated lesson-plan documents into stored lessons.
type Importer struct {
	store   *curriculum.Store
	manager *curriculum.Manager
	log     *slog.Logger
}

func New(store *curriculum.Store, manager *curriculum.Manager, log *slog.Logger) *Importer {
	if log == nil {
		log = slog.Default()
	}
	return &Importer{store: store, manager: manager, log: log}
}

// Result reports what an import produced.
type Result struct {
	LessonNumbers []string
	Assigned      int
}

// Validate checks raw JSON against the lesson-plan schema. Schema
// violations come back as a single error listing every failed field.
func Validate(raw []byte) error {
	schema := gojsonschema.NewStringLoader(Schema)
	doc := gojsonschema.NewBytesLoader(raw)

	res, err := gojsonschema.Validate(schema, doc)
	if err != nil {
		return fmt.Errorf("validate lesson plan: %v: %w", err, curriculum.ErrInvariant)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return fmt.Errorf("invalid lesson plan: %s: %w", strings.Join(msgs, "; "), curriculum.ErrInvariant)
}

// Import validates raw, registers each lesson and assigns any that name
// a half-term. Lessons without a number get the next free one.
func (i *Importer) Import(ctx context.Context, raw []byte) (*Result, error) {
	if err := Validate(raw); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode lesson plan: %v: %w", err, curriculum.ErrInvariant)
	}

	result := &Result{}
	for idx, payload := range doc.Lessons {
		lesson := toLesson(payload)
		if lesson.Number == "" {
			lesson.Number = i.store.NextNumber()
		}
		if _, err := i.store.Lesson(lesson.Number); err == nil {
			return result, fmt.Errorf("lesson %s already exists: %w", lesson.Number, curriculum.ErrInvariant)
		}

		if _, err := i.manager.SaveLesson(ctx, lesson); err != nil {
			return result, fmt.Errorf("import lesson %d: %w", idx+1, err)
		}
		result.LessonNumbers = append(result.LessonNumbers, lesson.Number)

		if payload.HalfTerm == "" {
			continue
		}
		if _, err := i.manager.AssignLessonToHalfTerm(ctx, lesson.Number, curriculum.HalfTermID(payload.HalfTerm)); err != nil {
			return result, fmt.Errorf("assign imported lesson %s: %w", lesson.Number, err)
		}
		result.Assigned++
	}

	i.log.Info("lesson plan imported",
		"lessons", len(result.LessonNumbers),
		"assigned", result.Assigned)
	return result, nil
}

func toLesson(p lessonPayload) curriculum.Lesson {
	lesson := curriculum.Lesson{
		Number: p.Number,
		Title:  p.Title,
		Header: p.Header,
		Footer: p.Footer,
	}
	for _, a := range p.Activities {
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		activity := curriculum.Activity{
			ID:       id,
			Category: a.Category,
			Duration: a.Duration,
			Title:    a.Title,
			Notes:    a.Notes,
		}
		if len(a.Resources) > 0 {
			activity.Resources = make(map[string]string, len(a.Resources))
			for k, v := range a.Resources {
				activity.Resources[k] = v
			}
		}
		lesson.Activities = append(lesson.Activities, activity)
	}
	return lesson
}
