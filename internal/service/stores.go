package service

import (
	"context"

	"github.com/stemsi/qpaper-backend/internal/model"
)

// CourseStore is the course lookup used by the services. It is satisfied
// by *repository.CourseRepository.
type CourseStore interface {
	GetAll(ctx context.Context) ([]model.Course, error)
	GetByID(ctx context.Context, id int) (*model.Course, error)
}

// QuestionStore loads a course's question pool.
type QuestionStore interface {
	ListByCourse(ctx context.Context, courseID int) ([]model.Question, error)
}

// HistoryStore persists and lists generation history.
type HistoryStore interface {
	Insert(ctx context.Context, h *model.GenerationHistory) error
	ListByCourse(ctx context.Context, courseID, perPage, offset int) ([]model.GenerationHistory, int, error)
}
