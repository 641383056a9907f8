package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stemsi/qpaper-backend/internal/model"
)

type fakeStats struct {
	cells []model.PoolCell
	err   error
}

func (f fakeStats) SummaryCounts(context.Context, int) (int, int, int, error) {
	return 42, 3, 5, f.err
}

func (f fakeStats) CountsByUnitMark(context.Context, int) ([]model.PoolCell, error) {
	return f.cells, nil
}

func TestPoolStatsOrdersCells(t *testing.T) {
	cells := []model.PoolCell{
		{Unit: "Unit 10", Mark: 2, Count: 1},
		{Unit: "misc", Mark: 1, Count: 1},
		{Unit: "Unit 3B", Mark: 2, Count: 4},
		{Unit: "Unit 3", Mark: 13, Count: 2},
		{Unit: "Unit 3", Mark: 1, Count: 9, ValidMCQ: 8},
		{Unit: "Unit 3A", Mark: 2, Count: 4},
	}
	svc := NewStatsService(fakeCourses{1: {ID: 1}}, fakeStats{cells: cells})

	got, err := svc.PoolStats(context.Background(), 1)
	if err != nil {
		t.Fatalf("PoolStats: %v", err)
	}
	if got.TotalQuestions != 42 || got.Generations != 3 || got.Untagged != 5 {
		t.Fatalf("unexpected summary %+v", got)
	}

	want := []struct {
		unit string
		mark int
	}{
		{"Unit 3", 1}, {"Unit 3", 13}, {"Unit 3A", 2}, {"Unit 3B", 2}, {"Unit 10", 2}, {"misc", 1},
	}
	for i, w := range want {
		if got.Cells[i].Unit != w.unit || got.Cells[i].Mark != w.mark {
			t.Fatalf("cell %d = %s/%d, want %s/%d", i, got.Cells[i].Unit, got.Cells[i].Mark, w.unit, w.mark)
		}
	}
}

func TestPoolStatsErrors(t *testing.T) {
	svc := NewStatsService(fakeCourses{1: {ID: 1}}, fakeStats{err: errors.New("db down")})
	if _, err := svc.PoolStats(context.Background(), 2); !errors.Is(err, ErrCourseNotFound) {
		t.Fatalf("unknown course: %v", err)
	}
	if _, err := svc.PoolStats(context.Background(), 1); err == nil {
		t.Fatal("store error swallowed")
	}
}

func TestPoolStatsEmptyCells(t *testing.T) {
	svc := NewStatsService(fakeCourses{1: {ID: 1}}, fakeStats{})
	got, err := svc.PoolStats(context.Background(), 1)
	if err != nil || got.Cells == nil {
		t.Fatalf("PoolStats = %+v, %v", got, err)
	}
}
