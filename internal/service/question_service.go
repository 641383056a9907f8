package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stemsi/qpaper-backend/internal/model"
)

// QuestionManager is the question store used for pool maintenance. It is
// satisfied by *repository.QuestionRepository.
type QuestionManager interface {
	QuestionStore
	Create(ctx context.Context, q *model.Question) error
	ReplaceByCourse(ctx context.Context, courseID int, qs []model.Question) (int64, error)
}

// PoolRefresher reloads a course's cached pool after it changed.
type PoolRefresher interface {
	RefreshPool(ctx context.Context, courseID int) (int, error)
}

// QuestionService maintains course question pools.
type QuestionService struct {
	courses   CourseStore
	questions QuestionManager
	pools     PoolRefresher
	log       zerolog.Logger
}

// NewQuestionService creates a QuestionService. pools may be nil when no
// pool cache is in use.
func NewQuestionService(courses CourseStore, questions QuestionManager, pools PoolRefresher, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		courses:   courses,
		questions: questions,
		pools:     pools,
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// ListByCourse returns a course's whole pool.
func (s *QuestionService) ListByCourse(ctx context.Context, courseID int) ([]model.Question, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	questions, err := s.questions.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	if questions == nil {
		questions = []model.Question{}
	}
	return questions, nil
}

// Create adds a question to a course pool.
func (s *QuestionService) Create(ctx context.Context, courseID int, req model.AddQuestionRequest) (*model.Question, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return nil, err
	}
	q := normalizeQuestion(req.ToQuestion(courseID))
	if err := s.questions.Create(ctx, &q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	s.refresh(ctx, courseID)
	return &q, nil
}

// ReplaceAll replaces a course's pool with the given questions.
func (s *QuestionService) ReplaceAll(ctx context.Context, courseID int, reqs []model.AddQuestionRequest) (int64, error) {
	if err := s.requireCourse(ctx, courseID); err != nil {
		return 0, err
	}
	qs := make([]model.Question, len(reqs))
	for i, r := range reqs {
		qs[i] = normalizeQuestion(r.ToQuestion(courseID))
	}
	n, err := s.questions.ReplaceByCourse(ctx, courseID, qs)
	if err != nil {
		return 0, fmt.Errorf("replace questions: %w", err)
	}
	s.log.Info().Int("course_id", courseID).Int64("questions", n).Msg("Pool replaced")
	s.refresh(ctx, courseID)
	return n, nil
}

func (s *QuestionService) requireCourse(ctx context.Context, courseID int) error {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		if isNoRows(err) {
			return ErrCourseNotFound
		}
		return fmt.Errorf("get course: %w", err)
	}
	return nil
}

// refresh keeps the cached pool in step with the store. Failures only
// leave the cache stale until its TTL runs out.
func (s *QuestionService) refresh(ctx context.Context, courseID int) {
	if s.pools == nil {
		return
	}
	if _, err := s.pools.RefreshPool(ctx, courseID); err != nil {
		s.log.Warn().Err(err).Int("course_id", courseID).Msg("Pool refresh after update failed")
	}
}

func normalizeQuestion(q model.Question) model.Question {
	q.Unit = strings.TrimSpace(q.Unit)
	q.Portion = strings.ToUpper(strings.TrimSpace(q.Portion))
	q.CourseOutcome = strings.ToUpper(strings.TrimSpace(q.CourseOutcome))
	q.CompetencyLevel = strings.ToUpper(strings.TrimSpace(q.CompetencyLevel))
	return q
}
