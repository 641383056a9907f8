package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qpaper-backend/internal/model"
)

// QuestionRepository handles question pool data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByCourse retrieves a course's whole pool in ID order. Nullable text
// columns come back as empty strings.
func (r *QuestionRepository) ListByCourse(ctx context.Context, courseID int) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, unit, mark_value,
		        COALESCE(portion, ''), question_text,
		        COALESCE(option_a, ''), COALESCE(option_b, ''), COALESCE(option_c, ''), COALESCE(option_d, ''),
		        COALESCE(answer, ''), COALESCE(course_outcome, ''), COALESCE(competency_level, '')
		 FROM questions WHERE course_id = $1
		 ORDER BY id`, courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		if err := rows.Scan(
			&q.ID, &q.CourseID, &q.Unit, &q.MarkValue,
			&q.Portion, &q.QuestionText,
			&q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&q.Answer, &q.CourseOutcome, &q.CompetencyLevel,
		); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// CountByCourse returns how many questions a course's pool holds.
func (r *QuestionRepository) CountByCourse(ctx context.Context, courseID int) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE course_id = $1`, courseID).Scan(&n)
	return n, err
}

// Create inserts one question and fills in its ID.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (course_id, unit, mark_value, portion, question_text,
		                        option_a, option_b, option_c, option_d,
		                        answer, course_outcome, competency_level)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		q.CourseID, q.Unit, q.MarkValue, nullable(q.Portion), q.QuestionText,
		nullable(q.OptionA), nullable(q.OptionB), nullable(q.OptionC), nullable(q.OptionD),
		nullable(q.Answer), nullable(q.CourseOutcome), nullable(q.CompetencyLevel),
	).Scan(&q.ID)
}

// BulkCreate copies questions into the course's pool. IDs are assigned by
// the database; any IDs on qs are ignored.
func (r *QuestionRepository) BulkCreate(ctx context.Context, courseID int, qs []model.Question) (int64, error) {
	return copyQuestions(ctx, r.pool, courseID, qs)
}

// ReplaceByCourse swaps a course's whole pool for qs in one transaction.
func (r *QuestionRepository) ReplaceByCourse(ctx context.Context, courseID int, qs []model.Question) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE course_id = $1`, courseID); err != nil {
		return 0, err
	}
	n, err := copyQuestions(ctx, tx, courseID, qs)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit replace: %w", err)
	}
	return n, nil
}

type copier interface {
	CopyFrom(ctx context.Context, table pgx.Identifier, columns []string, src pgx.CopyFromSource) (int64, error)
}

func copyQuestions(ctx context.Context, db copier, courseID int, qs []model.Question) (int64, error) {
	return db.CopyFrom(
		ctx,
		pgx.Identifier{"questions"},
		[]string{
			"course_id", "unit", "mark_value", "portion", "question_text",
			"option_a", "option_b", "option_c", "option_d",
			"answer", "course_outcome", "competency_level",
		},
		pgx.CopyFromSlice(len(qs), func(i int) ([]any, error) {
			q := qs[i]
			return []any{
				courseID, q.Unit, q.MarkValue, nullable(q.Portion), q.QuestionText,
				nullable(q.OptionA), nullable(q.OptionB), nullable(q.OptionC), nullable(q.OptionD),
				nullable(q.Answer), nullable(q.CourseOutcome), nullable(q.CompetencyLevel),
			}, nil
		}),
	)
}

// DeleteByCourse empties a course's pool.
func (r *QuestionRepository) DeleteByCourse(ctx context.Context, courseID int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE course_id = $1`, courseID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
