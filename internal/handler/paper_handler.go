package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/paper"
	"github.com/stemsi/qpaper-backend/internal/response"
	"github.com/stemsi/qpaper-backend/internal/service"
	"github.com/stemsi/qpaper-backend/internal/validator"
)

// PaperGenerator is implemented by *service.PaperService.
type PaperGenerator interface {
	GenerateFullTerm(ctx context.Context, req model.GenerateFixedRequest) (*service.GenerateResult, error)
	GeneratePartialTerm(ctx context.Context, req model.GeneratePartialRequest) (*service.GenerateResult, error)
	GenerateFlexible(ctx context.Context, req model.GenerateFlexibleRequest) (*service.GenerateResult, error)
}

type PaperHandler struct {
	papers PaperGenerator
	log    zerolog.Logger
}

func NewPaperHandler(papers PaperGenerator, log zerolog.Logger) *PaperHandler {
	return &PaperHandler{
		papers: papers,
		log:    log.With().Str("component", "paper_handler").Logger(),
	}
}

// FullTerm godoc
// POST /api/v1/papers/full-term
func (h *PaperHandler) FullTerm(c *gin.Context) {
	var req model.GenerateFixedRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.papers.GenerateFullTerm(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// PartialTerm godoc
// POST /api/v1/papers/partial-term
func (h *PaperHandler) PartialTerm(c *gin.Context) {
	var req model.GeneratePartialRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.papers.GeneratePartialTerm(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// Flexible godoc
// POST /api/v1/papers/flexible
func (h *PaperHandler) Flexible(c *gin.Context) {
	var req model.GenerateFlexibleRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	res, err := h.papers.GenerateFlexible(c.Request.Context(), req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

// writeError maps service and assembly failures onto the response envelope.
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	var (
		ve *paper.ValidationError
		ie *paper.InsufficientPoolError
		se *paper.StructuralError
	)
	switch {
	case errors.As(err, &ve):
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{ve.Field: ve.Reason})

	case errors.As(err, &ie):
		fields := map[string]string{
			"mark":     strconv.Itoa(ie.Mark),
			"required": strconv.Itoa(ie.Required),
			"found":    strconv.Itoa(ie.Found),
		}
		putNonEmpty(fields, "unit", ie.Unit)
		putNonEmpty(fields, "section", ie.Section)
		putNonEmpty(fields, "side", string(ie.Side))
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrInsufficientPool, err.Error(), fields)

	case errors.As(err, &se):
		response.FailWithMessage(c, http.StatusUnprocessableEntity, response.ErrStructural, err.Error(), map[string]string{
			"section":    se.Section,
			"unit":       se.Unit,
			"target_sum": strconv.Itoa(se.TargetSum),
			"candidates": strconv.Itoa(se.Candidates),
		})

	case errors.Is(err, service.ErrCourseNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)

	case errors.Is(err, service.ErrEmptyPool):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrEmptyPool)

	case errors.Is(err, service.ErrTooManySets):
		response.FailWithMessage(c, http.StatusBadRequest, response.ErrTooManySets, err.Error(), nil)

	default:
		log.Error().Err(err).Str("request_id", response.RequestID(c)).Msg("Request failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

func putNonEmpty(m map[string]string, k, v string) {
	if v != "" {
		m[k] = v
	}
}
