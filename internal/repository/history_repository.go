package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qpaper-backend/internal/model"
)

// HistoryRepository stores generation history records.
type HistoryRepository struct {
	pool *pgxpool.Pool
}

func NewHistoryRepository(pool *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{pool: pool}
}

// ListByCourse returns one page of a course's history, newest first, and
// the total number of records.
func (r *HistoryRepository) ListByCourse(ctx context.Context, courseID, perPage, offset int) ([]model.GenerationHistory, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM generation_history WHERE course_id = $1`, courseID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, course_id, subject, exam_label, mode, sets, salt, question_ids, created_at
		 FROM generation_history
		 WHERE course_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		courseID, perPage, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]model.GenerationHistory, 0, perPage)
	for rows.Next() {
		var h model.GenerationHistory
		if err := rows.Scan(
			&h.ID, &h.CourseID, &h.Subject, &h.ExamLabel, &h.Mode,
			&h.Sets, &h.Salt, &h.QuestionIDs, &h.CreatedAt,
		); err != nil {
			return nil, 0, err
		}
		records = append(records, h)
	}
	return records, total, rows.Err()
}

// Insert writes a single record; re-inserting an existing ID is a no-op.
func (r *HistoryRepository) Insert(ctx context.Context, h *model.GenerationHistory) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO generation_history (id, course_id, subject, exam_label, mode, sets, salt, question_ids, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (id) DO NOTHING`,
		h.ID, h.CourseID, h.Subject, h.ExamLabel, h.Mode, h.Sets, h.Salt, h.QuestionIDs, h.CreatedAt,
	)
	return err
}

// InsertBatch writes many records in one statement. The array columns
// travel as JSON because UNNEST cannot take arrays of arrays.
func (r *HistoryRepository) InsertBatch(ctx context.Context, batch []*model.GenerationHistory) error {
	n := len(batch)
	if n == 0 {
		return nil
	}

	ids := make([]uuid.UUID, 0, n)
	courses := make([]int, 0, n)
	subjects := make([]string, 0, n)
	labels := make([]string, 0, n)
	modes := make([]string, 0, n)
	sets := make([][]byte, 0, n)
	salts := make([]string, 0, n)
	questionIDs := make([][]byte, 0, n)
	createdAts := make([]time.Time, 0, n)

	for _, h := range batch {
		sb, err := jsonArray(h.Sets)
		if err != nil {
			return err
		}
		qb, err := jsonArray(h.QuestionIDs)
		if err != nil {
			return err
		}
		ids = append(ids, h.ID)
		courses = append(courses, h.CourseID)
		subjects = append(subjects, h.Subject)
		labels = append(labels, h.ExamLabel)
		modes = append(modes, h.Mode)
		sets = append(sets, sb)
		salts = append(salts, h.Salt)
		questionIDs = append(questionIDs, qb)
		createdAts = append(createdAts, h.CreatedAt)
	}

	query := `
		INSERT INTO generation_history (id, course_id, subject, exam_label, mode, sets, salt, question_ids, created_at)
		SELECT
			u.id, u.course_id, u.subject, u.exam_label, u.mode,
			ARRAY(SELECT jsonb_array_elements_text(u.sets)),
			u.salt,
			ARRAY(SELECT jsonb_array_elements_text(u.question_ids)::int),
			u.created_at
		FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::text[],
			$4::text[],
			$5::text[],
			$6::jsonb[],
			$7::text[],
			$8::jsonb[],
			$9::timestamptz[]
		) AS u (id, course_id, subject, exam_label, mode, sets, salt, question_ids, created_at)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, ids, courses, subjects, labels, modes, sets, salts, questionIDs, createdAts)
	return err
}
