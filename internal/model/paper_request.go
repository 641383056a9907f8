package model

// GenerateFixedRequest is the payload for the full-term layout and the
// common part of every generation request.
type GenerateFixedRequest struct {
	CourseID     int      `json:"course_id" binding:"required,min=1"`
	Sets         []string `json:"sets" binding:"omitempty,max=10,dive,required,max=8"`
	NoRepetition bool     `json:"no_repetition"`
	ExcludeIDs   []int    `json:"exclude_ids" binding:"omitempty,dive,min=1"`
	Salt         string   `json:"salt" binding:"omitempty,max=64"`
	ExamLabel    string   `json:"exam_label" binding:"omitempty,max=100"`
}

// GeneratePartialRequest is the payload for the partial-term layout.
type GeneratePartialRequest struct {
	GenerateFixedRequest
	FromUnit string `json:"from_unit" binding:"required,max=20,unit"`
	ToUnit   string `json:"to_unit" binding:"required,max=20,unit"`
}

// GenerateFlexibleRequest is the payload for the mark/unit quota layout.
type GenerateFlexibleRequest struct {
	GenerateFixedRequest
	FromUnit  string           `json:"from_unit" binding:"omitempty,max=20,unit"`
	ToUnit    string           `json:"to_unit" binding:"omitempty,max=20,unit"`
	MarkRules map[int]MarkRule `json:"mark_rules" binding:"required,min=1"`
}

// HistoryQuery pages through a course's generation history.
type HistoryQuery struct {
	Page    int `json:"page" form:"page" binding:"omitempty,min=1"`
	PerPage int `json:"per_page" form:"per_page" binding:"omitempty,min=1,max=100"`
}

// Normalize fills defaults for omitted paging parameters.
func (q *HistoryQuery) Normalize() {
	if q.Page == 0 {
		q.Page = 1
	}
	if q.PerPage == 0 {
		q.PerPage = 20
	}
}

// Offset is the row offset of the requested page.
func (q HistoryQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}
