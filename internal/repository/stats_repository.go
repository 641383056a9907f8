package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/qpaper-backend/internal/model"
)

// StatsRepository runs the aggregate queries behind pool statistics.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// SummaryCounts retrieves the headline numbers of one course. Untagged
// questions lack a course outcome or competency level.
func (r *StatsRepository) SummaryCounts(ctx context.Context, courseID int) (questions, generations, untagged int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT
			(SELECT COUNT(*) FROM questions WHERE course_id = $1),
			(SELECT COUNT(*) FROM generation_history WHERE course_id = $1),
			(SELECT COUNT(*) FROM questions
			  WHERE course_id = $1
			    AND (COALESCE(course_outcome, '') = '' OR COALESCE(competency_level, '') = ''))`,
		courseID,
	).Scan(&questions, &generations, &untagged)
	return
}

// CountsByUnitMark groups a course's pool by unit label and mark value.
// ValidMCQ counts 1-mark questions with all four options present.
func (r *StatsRepository) CountsByUnitMark(ctx context.Context, courseID int) ([]model.PoolCell, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT unit, mark_value, COUNT(*),
		        COUNT(*) FILTER (WHERE mark_value = 1
		                           AND COALESCE(option_a, '') <> '' AND COALESCE(option_b, '') <> ''
		                           AND COALESCE(option_c, '') <> '' AND COALESCE(option_d, '') <> '')
		 FROM questions
		 WHERE course_id = $1
		 GROUP BY unit, mark_value`,
		courseID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []model.PoolCell
	for rows.Next() {
		var c model.PoolCell
		if err := rows.Scan(&c.Unit, &c.Mark, &c.Count, &c.ValidMCQ); err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, rows.Err()
}
