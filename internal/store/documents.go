package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"
)

const defaultLanguage = "English"

type documentRepo struct {
	s *Store
}

func (r *documentRepo) Create(ctx context.Context, title, language, content string) (*Document, error) {
	if language == "" {
		language = defaultLanguage
	}
	now := r.s.now()

	query, args := builder().Insert("documents").
		Columns("title", "language", "content", "created_at").
		Values(title, language, content, now).
		Query()

	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("document id: %w", err)
	}

	return &Document{
		ID:        id,
		Title:     title,
		Language:  language,
		Content:   content,
		CreatedAt: now,
	}, nil
}

func (r *documentRepo) Get(ctx context.Context, id int64) (*Document, error) {
	query, args := builder().
		Select("id", "title", "language", "content", "created_at").
		From(builder().Table("documents")).
		Where(entsql.EQ("id", id)).
		Query()

	var d Document
	err := r.s.db.QueryRowContext(ctx, query, args...).
		Scan(&d.ID, &d.Title, &d.Language, &d.Content, &d.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &d, nil
}

func (r *documentRepo) Content(ctx context.Context, id int64) (string, error) {
	query, args := builder().
		Select("content").
		From(builder().Table("documents")).
		Where(entsql.EQ("id", id)).
		Query()

	var content string
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("get document content: %w", err)
	}
	return content, nil
}

func (r *documentRepo) List(ctx context.Context, opts QueryOpts) ([]Document, error) {
	sel := builder().
		Select("id", "title", "language", "created_at").
		From(builder().Table("documents")).
		OrderBy(entsql.Desc("id"))
	applyOpts(sel, opts, "id", "created_at")

	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		if err := rows.Scan(&d.ID, &d.Title, &d.Language, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// applyOpts adds the QueryOpts filters to sel. idCol is compared against
// After/Before and timeCol against From/To.
func applyOpts(sel *entsql.Selector, opts QueryOpts, idCol, timeCol string) {
	if opts.After > 0 {
		sel.Where(entsql.GT(idCol, opts.After))
	}
	if opts.Before > 0 {
		sel.Where(entsql.LT(idCol, opts.Before))
	}
	if !opts.From.IsZero() {
		sel.Where(entsql.GTE(timeCol, opts.From))
	}
	if !opts.To.IsZero() {
		sel.Where(entsql.LTE(timeCol, opts.To))
	}
	if opts.Limit > 0 {
		sel.Limit(opts.Limit)
	}
}
