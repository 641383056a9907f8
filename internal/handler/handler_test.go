package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/qpaper-backend/internal/model"
	"github.com/stemsi/qpaper-backend/internal/paper"
	"github.com/stemsi/qpaper-backend/internal/response"
	"github.com/stemsi/qpaper-backend/internal/service"
	"github.com/stemsi/qpaper-backend/internal/validator"
)

type fakePapers struct {
	err     error
	partial model.GeneratePartialRequest
}

func (f *fakePapers) result(mode paper.Mode) (*service.GenerateResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &service.GenerateResult{Mode: mode, Salt: "s", Sets: []service.GeneratedSet{{Set: "A"}}}, nil
}

func (f *fakePapers) GenerateFullTerm(context.Context, model.GenerateFixedRequest) (*service.GenerateResult, error) {
	return f.result(paper.ModeFullTerm)
}

func (f *fakePapers) GeneratePartialTerm(_ context.Context, req model.GeneratePartialRequest) (*service.GenerateResult, error) {
	f.partial = req
	return f.result(paper.ModePartialTerm)
}

func (f *fakePapers) GenerateFlexible(context.Context, model.GenerateFlexibleRequest) (*service.GenerateResult, error) {
	return f.result(paper.ModeFlexible)
}

func (f *fakePapers) RefreshPool(_ context.Context, courseID int) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return 10 * courseID, nil
}

type fakeCourses struct{}

func (fakeCourses) GetAll(context.Context) ([]model.Course, error) {
	return []model.Course{{ID: 1, Code: "CS101"}}, nil
}

func (fakeCourses) History(_ context.Context, courseID int, q model.HistoryQuery) ([]model.GenerationHistory, *response.Pagination, error) {
	if courseID != 1 {
		return nil, nil, service.ErrCourseNotFound
	}
	q.Normalize()
	return []model.GenerationHistory{}, response.NewPagination(q.Page, q.PerPage, 0), nil
}

func newEngine(papers *fakePapers) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator.Setup()
	log := zerolog.New(io.Discard)

	ph := NewPaperHandler(papers, log)
	ch := NewCourseHandler(fakeCourses{}, papers, log)
	sh := NewSystemHandler(nil, nil, log)

	r := gin.New()
	r.GET("/health", sh.Health)
	r.POST("/papers/full-term", ph.FullTerm)
	r.POST("/papers/partial-term", ph.PartialTerm)
	r.POST("/papers/flexible", ph.Flexible)
	r.GET("/courses", ch.GetAll)
	r.GET("/courses/:id/history", ch.History)
	r.POST("/courses/:id/pool/refresh", ch.RefreshPool)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) (int, response.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %s %s: %v (%s)", method, path, err, w.Body.String())
	}
	return w.Code, resp
}

func TestPaperEndpointsValidation(t *testing.T) {
	r := newEngine(&fakePapers{})

	tests := []struct {
		name      string
		path      string
		body      string
		wantCode  int
		wantField string
	}{
		{"full term ok", "/papers/full-term", `{"course_id": 1, "sets": ["A", "B"]}`, http.StatusOK, ""},
		{"missing course", "/papers/full-term", `{"sets": ["A"]}`, http.StatusBadRequest, "course_id"},
		{"long set label", "/papers/full-term", `{"course_id": 1, "sets": ["ABCDEFGHIJ"]}`, http.StatusBadRequest, "sets[0]"},
		{"partial ok", "/papers/partial-term", `{"course_id": 1, "from_unit": "Unit 1", "to_unit": "Unit 3A"}`, http.StatusOK, ""},
		{"partial bad unit", "/papers/partial-term", `{"course_id": 1, "from_unit": "first", "to_unit": "Unit 3A"}`, http.StatusBadRequest, "from_unit"},
		{"flexible ok", "/papers/flexible", `{"course_id": 1, "mark_rules": {"2": {"count": 5}}}`, http.StatusOK, ""},
		{"flexible without rules", "/papers/flexible", `{"course_id": 1}`, http.StatusBadRequest, "mark_rules"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := do(t, r, http.MethodPost, tt.path, tt.body)
			if code != tt.wantCode {
				t.Fatalf("status = %d, want %d (%+v)", code, tt.wantCode, resp.Error)
			}
			if tt.wantField == "" {
				if resp.Error != nil || resp.Data == nil {
					t.Fatalf("expected data, got error %+v", resp.Error)
				}
				return
			}
			if resp.Error == nil || resp.Error.Code != response.ErrValidation || resp.Error.Fields[tt.wantField] == "" {
				t.Fatalf("expected validation error on %s, got %+v", tt.wantField, resp.Error)
			}
		})
	}
}

func TestPartialTermBindsEmbeddedFields(t *testing.T) {
	papers := &fakePapers{}
	r := newEngine(papers)
	body := `{"course_id": 7, "sets": ["A"], "no_repetition": true, "from_unit": "Unit 3B", "to_unit": "Unit 5"}`
	if code, _ := do(t, r, http.MethodPost, "/papers/partial-term", body); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if papers.partial.CourseID != 7 || !papers.partial.NoRepetition || papers.partial.FromUnit != "Unit 3B" {
		t.Fatalf("request not bound: %+v", papers.partial)
	}
}

func TestPaperEndpointErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantCode   int
		wantErr    response.ErrCode
		wantFields map[string]string
	}{
		{
			name:     "validation",
			err:      &paper.ValidationError{Field: "unit_range", Reason: "bad"},
			wantCode: http.StatusBadRequest,
			wantErr:  response.ErrValidation,
			wantFields: map[string]string{
				"unit_range": "bad",
			},
		},
		{
			name: "insufficient pool",
			err: fmt.Errorf("set B: %w", &paper.InsufficientPoolError{
				Unit: "Unit 2", Mark: 15, Required: 1, Found: 0, Side: paper.SideCrossUnit,
			}),
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  response.ErrInsufficientPool,
			wantFields: map[string]string{
				"unit": "Unit 2", "mark": "15", "required": "1", "found": "0", "side": "cross_unit",
			},
		},
		{
			name:     "structural",
			err:      &paper.StructuralError{Section: "B2", Unit: "Unit 2", TargetSum: 8, Candidates: 3},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  response.ErrStructural,
			wantFields: map[string]string{
				"section": "B2", "unit": "Unit 2", "target_sum": "8", "candidates": "3",
			},
		},
		{name: "course missing", err: service.ErrCourseNotFound, wantCode: http.StatusNotFound, wantErr: response.ErrNotFound},
		{name: "empty pool", err: service.ErrEmptyPool, wantCode: http.StatusUnprocessableEntity, wantErr: response.ErrEmptyPool},
		{name: "too many sets", err: fmt.Errorf("%w: 9", service.ErrTooManySets), wantCode: http.StatusBadRequest, wantErr: response.ErrTooManySets},
		{name: "unexpected", err: errors.New("connection reset"), wantCode: http.StatusInternalServerError, wantErr: response.ErrInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newEngine(&fakePapers{err: tt.err})
			code, resp := do(t, r, http.MethodPost, "/papers/full-term", `{"course_id": 1}`)
			if code != tt.wantCode || resp.Error == nil || resp.Error.Code != tt.wantErr {
				t.Fatalf("got %d %+v, want %d %s", code, resp.Error, tt.wantCode, tt.wantErr)
			}
			for k, v := range tt.wantFields {
				if resp.Error.Fields[k] != v {
					t.Errorf("field %s = %q, want %q", k, resp.Error.Fields[k], v)
				}
			}
			if tt.name == "insufficient pool" && resp.Error.Fields["section"] != "" {
				t.Error("empty section must be omitted")
			}
		})
	}
}

func TestCourseEndpoints(t *testing.T) {
	r := newEngine(&fakePapers{})

	if code, _ := do(t, r, http.MethodGet, "/courses", ""); code != http.StatusOK {
		t.Fatalf("list courses: %d", code)
	}

	code, resp := do(t, r, http.MethodGet, "/courses/1/history?page=1&per_page=5", "")
	if code != http.StatusOK || resp.Pagination == nil || resp.Pagination.PerPage != 5 {
		t.Fatalf("history: %d %+v", code, resp.Pagination)
	}
	if code, _ := do(t, r, http.MethodGet, "/courses/1/history?per_page=500", ""); code != http.StatusBadRequest {
		t.Fatalf("oversized page: %d", code)
	}
	if code, _ := do(t, r, http.MethodGet, "/courses/2/history", ""); code != http.StatusNotFound {
		t.Fatalf("unknown course history: %d", code)
	}
	if code, _ := do(t, r, http.MethodGet, "/courses/abc/history", ""); code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", code)
	}

	code, resp = do(t, r, http.MethodPost, "/courses/3/pool/refresh", "")
	data, _ := resp.Data.(map[string]any)
	if code != http.StatusOK || data["pool_size"] != float64(30) {
		t.Fatalf("refresh: %d %v", code, resp.Data)
	}
}

func TestHealthWithoutDependencies(t *testing.T) {
	r := newEngine(&fakePapers{})
	code, resp := do(t, r, http.MethodGet, "/health", "")
	data, _ := resp.Data.(map[string]any)
	if code != http.StatusOK || data["status"] != "ok" || data["database"] != "disabled" {
		t.Fatalf("health: %d %v", code, resp.Data)
	}
}
