package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classkit/planner/internal/curriculum"
)

const dbTimeout = 5 * time.Second

// Schema creates the planner tables. Documents are JSONB keyed by
// (teaching context, id); seq preserves library/creation order across
// upserts.
const Schema = `
CREATE TABLE IF NOT EXISTS plan_lessons (
	context    text        NOT NULL,
	number     text        NOT NULL,
	doc        jsonb       NOT NULL,
	seq        bigint      GENERATED ALWAYS AS IDENTITY,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (context, number)
);
CREATE TABLE IF NOT EXISTS plan_half_terms (
	context    text        NOT NULL,
	id         text        NOT NULL,
	doc        jsonb       NOT NULL,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (context, id)
);
CREATE TABLE IF NOT EXISTS plan_stacks (
	context    text        NOT NULL,
	id         text        NOT NULL,
	doc        jsonb       NOT NULL,
	seq        bigint      GENERATED ALWAYS AS IDENTITY,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (context, id)
);
CREATE TABLE IF NOT EXISTS plan_units (
	context    text        NOT NULL,
	id         text        NOT NULL,
	doc        jsonb       NOT NULL,
	seq        bigint      GENERATED ALWAYS AS IDENTITY,
	updated_at timestamptz NOT NULL DEFAULT now(),
	PRIMARY KEY (context, id)
);
`

// Postgres is the pgx-backed curriculum.Persister.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres persister over an existing pool.
func NewPostgres(pool *pgxpool.Pool) (*Postgres, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the planner tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if _, err := p.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// LoadAll reads one teaching context's full hierarchy, lessons in library
// order.
func (p *Postgres) LoadAll(ctx context.Context, teachingContext string) (curriculum.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var snap curriculum.Snapshot

	rows, err := p.pool.Query(ctx,
		`SELECT doc FROM plan_lessons WHERE context = $1 ORDER BY seq`, teachingContext)
	if err != nil {
		return snap, fmt.Errorf("load lessons: %w", err)
	}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan lesson: %w", err)
		}
		var l curriculum.Lesson
		if err := json.Unmarshal(doc, &l); err != nil {
			rows.Close()
			return snap, fmt.Errorf("decode lesson: %w", err)
		}
		snap.Lessons = append(snap.Lessons, l)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("load lessons: %w", err)
	}

	rows, err = p.pool.Query(ctx,
		`SELECT doc FROM plan_half_terms WHERE context = $1`, teachingContext)
	if err != nil {
		return snap, fmt.Errorf("load half-terms: %w", err)
	}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan half-term: %w", err)
		}
		var h curriculum.HalfTerm
		if err := json.Unmarshal(doc, &h); err != nil {
			rows.Close()
			return snap, fmt.Errorf("decode half-term: %w", err)
		}
		snap.HalfTerms = append(snap.HalfTerms, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("load half-terms: %w", err)
	}

	rows, err = p.pool.Query(ctx,
		`SELECT doc FROM plan_stacks WHERE context = $1 ORDER BY seq`, teachingContext)
	if err != nil {
		return snap, fmt.Errorf("load stacks: %w", err)
	}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan stack: %w", err)
		}
		var s curriculum.Stack
		if err := json.Unmarshal(doc, &s); err != nil {
			rows.Close()
			return snap, fmt.Errorf("decode stack: %w", err)
		}
		snap.Stacks = append(snap.Stacks, s)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("load stacks: %w", err)
	}

	rows, err = p.pool.Query(ctx,
		`SELECT doc FROM plan_units WHERE context = $1 ORDER BY seq`, teachingContext)
	if err != nil {
		return snap, fmt.Errorf("load units: %w", err)
	}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			rows.Close()
			return snap, fmt.Errorf("scan unit: %w", err)
		}
		var u curriculum.Unit
		if err := json.Unmarshal(doc, &u); err != nil {
			rows.Close()
			return snap, fmt.Errorf("decode unit: %w", err)
		}
		snap.Units = append(snap.Units, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("load units: %w", err)
	}

	return snap, nil
}

func (p *Postgres) SaveLesson(ctx context.Context, teachingContext string, l curriculum.Lesson) error {
	return p.upsert(ctx, "plan_lessons", "number", teachingContext, l.Number, l)
}

func (p *Postgres) SaveHalfTerm(ctx context.Context, teachingContext string, h curriculum.HalfTerm) error {
	return p.upsert(ctx, "plan_half_terms", "id", teachingContext, string(h.ID), h)
}

func (p *Postgres) SaveStack(ctx context.Context, teachingContext string, s curriculum.Stack) error {
	return p.upsert(ctx, "plan_stacks", "id", teachingContext, s.ID, s)
}

func (p *Postgres) SaveUnit(ctx context.Context, teachingContext string, u curriculum.Unit) error {
	return p.upsert(ctx, "plan_units", "id", teachingContext, u.ID, u)
}

func (p *Postgres) DeleteLesson(ctx context.Context, teachingContext, number string) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()
	if _, err := p.pool.Exec(ctx,
		`DELETE FROM plan_lessons WHERE context = $1 AND number = $2`,
		teachingContext, number,
	); err != nil {
		return fmt.Errorf("delete lesson %s: %w", number, err)
	}
	return nil
}

// upsert writes one document. Re-saving the same key replaces the document
// and bumps updated_at, which keeps retries idempotent.
func (p *Postgres) upsert(ctx context.Context, table, keyCol, teachingContext, key string, doc any) error {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode %s %s: %w", table, key, err)
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (context, %s, doc) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (context, %s) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`,
		table, keyCol, keyCol,
	)
	if _, err := p.pool.Exec(ctx, query, teachingContext, key, string(data)); err != nil {
		return fmt.Errorf("save %s %s: %w", table, key, err)
	}
	return nil
}
