package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/paper"
)

// StatsStore is satisfied by *repository.StatsRepository.
type StatsStore interface {
	SummaryCounts(ctx context.Context, courseID int) (questions, generations, untagged int, err error)
	CountsByUnitMark(ctx context.Context, courseID int) ([]model.PoolCell, error)
}

// StatsService reports the composition of course pools.
type StatsService struct {
	courses CourseStore
	stats   StatsStore
}

// NewStatsService creates a new StatsService.
func NewStatsService(courses CourseStore, stats StatsStore) *StatsService {
	return &StatsService{courses: courses, stats: stats}
}

// PoolStats fetches the summary and the unit/mark grid concurrently. Cells
// come back in unit order, then mark order.
func (s *StatsService) PoolStats(ctx context.Context, courseID int) (*model.PoolStats, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if isNoRows(err) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}

	out := &model.PoolStats{CourseID: courseID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		out.TotalQuestions, out.Generations, out.Untagged, err = s.stats.SummaryCounts(gctx, courseID)
		return err
	})
	g.Go(func() error {
		var err error
		out.Cells, err = s.stats.CountsByUnitMark(gctx, courseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("pool stats: %w", err)
	}

	if out.Cells == nil {
		out.Cells = []model.PoolCell{}
	}
	slices.SortFunc(out.Cells, compareCells)
	return out, nil
}

// compareCells orders by parsed unit key; unparseable labels sort last,
// by text.
func compareCells(a, b model.PoolCell) int {
	ka, errA := paper.ParseUnit(a.Unit)
	kb, errB := paper.ParseUnit(b.Unit)
	switch {
	case errA == nil && errB == nil:
		if c := ka.Compare(kb); c != 0 {
			return c
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		if c := cmp.Compare(a.Unit, b.Unit); c != 0 {
			return c
		}
	}
	return cmp.Compare(a.Mark, b.Mark)
}
