package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/response"
	"github.com/stemsi/qpaper-backend/internal/validator"
)

// QuestionEditor is implemented by *service.QuestionService.
type QuestionEditor interface {
	ListByCourse(ctx context.Context, courseID int) ([]model.Question, error)
	Create(ctx context.Context, courseID int, req model.AddQuestionRequest) (*model.Question, error)
	ReplaceAll(ctx context.Context, courseID int, reqs []model.AddQuestionRequest) (int64, error)
}

// QuestionHandler handles question pool maintenance endpoints.
type QuestionHandler struct {
	questions QuestionEditor
	log       zerolog.Logger
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questions QuestionEditor, log zerolog.Logger) *QuestionHandler {
	return &QuestionHandler{
		questions: questions,
		log:       log.With().Str("component", "question_handler").Logger(),
	}
}

// ListQuestions godoc
// GET /api/v1/courses/:id/questions
// Lists a course's whole question pool.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}

	questions, err := h.questions.ListByCourse(c.Request.Context(), courseID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions, "total": len(questions)})
}

// AddQuestion godoc
// POST /api/v1/courses/:id/questions
// Adds a question to a course pool.
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questions.Create(c.Request.Context(), courseID, req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// ReplaceQuestions godoc
// PUT /api/v1/courses/:id/questions
// Bulk replaces a course's question pool.
func (h *QuestionHandler) ReplaceQuestions(c *gin.Context) {
	courseID, ok := courseIDParam(c)
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	n, err := h.questions.ReplaceAll(c.Request.Context(), courseID, req.Questions)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"course_id": courseID, "questions": n})
}
