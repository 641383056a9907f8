package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/response"
)

type CourseService struct {
	courses CourseStore
	history HistoryStore
	log     zerolog.Logger
}

func NewCourseService(courses CourseStore, history HistoryStore, log zerolog.Logger) *CourseService {
	return &CourseService{
		courses: courses,
		history: history,
		log:     log.With().Str("component", "course_service").Logger(),
	}
}

func (s *CourseService) GetAll(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courses.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if courses == nil {
		courses = []model.Course{}
	}
	return courses, nil
}

// History pages through the generation history of an existing course.
func (s *CourseService) History(ctx context.Context, courseID int, q model.HistoryQuery) ([]model.GenerationHistory, *response.Pagination, error) {
	q.Normalize()

	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if isNoRows(err) {
			return nil, nil, ErrCourseNotFound
		}
		return nil, nil, fmt.Errorf("get course: %w", err)
	}

	records, total, err := s.history.ListByCourse(ctx, courseID, q.PerPage, q.Offset())
	if err != nil {
		return nil, nil, fmt.Errorf("list history: %w", err)
	}
	return records, response.NewPagination(q.Page, q.PerPage, total), nil
}
