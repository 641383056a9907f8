package model

import (
	"time"

	"github.com/google/uuid"
)

// GenerationHistory records one successful paper generation.
type GenerationHistory struct {
	ID          uuid.UUID `json:"id"`
	CourseID    int       `json:"course_id"`
	Subject     string    `json:"subject"`
	ExamLabel   string    `json:"exam_label"`
	Mode        string    `json:"mode"`
	Sets        []string  `json:"sets"`
	Salt        string    `json:"salt"`
	QuestionIDs []int     `json:"question_ids"`
	CreatedAt   time.Time `json:"created_at"`
}
