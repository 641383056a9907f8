package main

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/qpaper-backend/internal/model"
)

// fileStore serves a single course and its pool from a loaded pool file.
type fileStore struct {
	course model.Course
	pool   []model.Question
}

func (s *fileStore) GetAll(context.Context) ([]model.Course, error) {
	return []model.Course{s.course}, nil
}

func (s *fileStore) GetByID(_ context.Context, id int) (*model.Course, error) {
	if id != s.course.ID {
		return nil, pgx.ErrNoRows
	}
	c := s.course
	return &c, nil
}

func (s *fileStore) ListByCourse(_ context.Context, courseID int) ([]model.Question, error) {
	if courseID != s.course.ID {
		return nil, nil
	}
	return s.pool, nil
}

// discardHistory drops history records; offline runs keep no history.
type discardHistory struct{}

func (discardHistory) Insert(context.Context, *model.GenerationHistory) error { return nil }

func (discardHistory) ListByCourse(context.Context, int, int, int) ([]model.GenerationHistory, int, error) {
	return nil, 0, nil
}
