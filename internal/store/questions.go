package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	entsql "entgo.io/ent/dialect/sql"
)

var questionColumns = []string{"id", "document_id", "type", "text", "created_at"}

type questionRepo struct {
	s *Store
}

func (r *questionRepo) CreateQuestion(ctx context.Context, documentID int64, questionType, text string) (*Question, error) {
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return nil, fmt.Errorf("question text has %d characters: %w", n, ErrTextTooLong)
	}
	if err := r.exists(ctx, "documents", documentID); err != nil {
		return nil, fmt.Errorf("document %d: %w", documentID, err)
	}

	now := r.s.now()
	query, args := builder().Insert("questions").
		Columns("document_id", "type", "text", "created_at").
		Values(documentID, questionType, text, now).
		Query()

	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert question: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("question id: %w", err)
	}

	return &Question{
		ID:         id,
		DocumentID: documentID,
		Type:       questionType,
		Text:       text,
		Answers:    []Answer{},
		CreatedAt:  now,
	}, nil
}

func (r *questionRepo) CreateAnswer(ctx context.Context, questionID int64, text string, isCorrect bool) (*Answer, error) {
	if n := utf8.RuneCountInString(text); n > MaxTextLength {
		return nil, fmt.Errorf("answer text has %d characters: %w", n, ErrTextTooLong)
	}
	if err := r.exists(ctx, "questions", questionID); err != nil {
		return nil, fmt.Errorf("question %d: %w", questionID, err)
	}

	query, args := builder().Insert("answers").
		Columns("question_id", "text", "is_correct").
		Values(questionID, text, isCorrect).
		Query()

	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert answer: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("answer id: %w", err)
	}

	return &Answer{ID: id, QuestionID: questionID, Text: text, IsCorrect: isCorrect}, nil
}

func (r *questionRepo) Get(ctx context.Context, id int64) (*Question, error) {
	sel := r.selectQuestions().Where(entsql.EQ("id", id))
	qs, err := r.query(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(qs) == 0 {
		return nil, fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return &qs[0], nil
}

func (r *questionRepo) List(ctx context.Context, opts QueryOpts) ([]Question, error) {
	sel := r.selectQuestions()
	applyOpts(sel, opts, "id", "created_at")
	return r.query(ctx, sel)
}

func (r *questionRepo) ListByDocument(ctx context.Context, documentID int64) ([]Question, error) {
	return r.query(ctx, r.selectQuestions().Where(entsql.EQ("document_id", documentID)))
}

func (r *questionRepo) ListByType(ctx context.Context, questionType string) ([]Question, error) {
	return r.query(ctx, r.selectQuestions().Where(entsql.EQ("type", questionType)))
}

func (r *questionRepo) Delete(ctx context.Context, id int64) error {
	query, args := builder().Delete("questions").
		Where(entsql.EQ("id", id)).
		Query()

	res, err := r.s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("question %d: %w", id, ErrNotFound)
	}
	return nil
}

func (r *questionRepo) selectQuestions() *entsql.Selector {
	return builder().
		Select(questionColumns...).
		From(builder().Table("questions")).
		OrderBy("id")
}

// query runs sel and attaches each question's answers in insertion order.
func (r *questionRepo) query(ctx context.Context, sel *entsql.Selector) ([]Question, error) {
	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	questions := []Question{}
	index := map[int64]int{}
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.DocumentID, &q.Type, &q.Text, &q.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Answers = []Answer{}
		index[q.ID] = len(questions)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	if len(questions) == 0 {
		return questions, nil
	}

	ids := make([]any, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	aq, aargs := builder().
		Select("id", "question_id", "text", "is_correct").
		From(builder().Table("answers")).
		Where(entsql.In("question_id", ids...)).
		OrderBy("id").
		Query()

	arows, err := r.s.db.QueryContext(ctx, aq, aargs...)
	if err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer arows.Close()

	for arows.Next() {
		var a Answer
		if err := arows.Scan(&a.ID, &a.QuestionID, &a.Text, &a.IsCorrect); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if i, ok := index[a.QuestionID]; ok {
			questions[i].Answers = append(questions[i].Answers, a)
		}
	}
	return questions, arows.Err()
}

// exists returns ErrNotFound unless table has a row with the given id.
func (r *questionRepo) exists(ctx context.Context, table string, id int64) error {
	query, args := builder().
		Select("id").
		From(builder().Table(table)).
		Where(entsql.EQ("id", id)).
		Query()

	var found int64
	err := r.s.db.QueryRowContext(ctx, query, args...).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	return nil
}
