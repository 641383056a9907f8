package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/response"
	"github.com/stemsi/qpaper-backend/internal/service"
	"github.com/stemsi/qpaper-backend/internal/validator"
)

// CourseReader is implemented by *service.CourseService.
type CourseReader interface {
	GetAll(ctx context.Context) ([]model.Course, error)
	History(ctx context.Context, courseID int, q model.HistoryQuery) ([]model.GenerationHistory, *response.Pagination, error)
}

// PoolRefresher is implemented by *service.PaperService.
type PoolRefresher interface {
	RefreshPool(ctx context.Context, courseID int) (int, error)
}

type CourseHandler struct {
	courses CourseReader
	pools   PoolRefresher
	log     zerolog.Logger
}

func NewCourseHandler(courses CourseReader, pools PoolRefresher, log zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses: courses,
		pools:   pools,
		log:     log.With().Str("component", "course_handler").Logger(),
	}
}

// GetAll godoc
// GET /api/v1/courses
func (h *CourseHandler) GetAll(c *gin.Context) {
	courses, err := h.courses.GetAll(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"courses": courses})
}

// History godoc
// GET /api/v1/courses/:id/history?page=&per_page=
func (h *CourseHandler) History(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}

	var q model.HistoryQuery
	if fields := validator.BindQuery(c, &q); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	records, pagination, err := h.courses.History(c.Request.Context(), id, q)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"history": records}, pagination)
}

// RefreshPool godoc
// POST /api/v1/courses/:id/pool/refresh
func (h *CourseHandler) RefreshPool(c *gin.Context) {
	id, ok := courseIDParam(c)
	if !ok {
		return
	}

	n, err := h.pools.RefreshPool(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"course_id": id, "pool_size": n})
}

func courseIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}
