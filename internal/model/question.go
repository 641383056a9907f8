package model

// Question is a single pool entry as stored in the external question store.
// The assembly engine treats the display fields as opaque.
type Question struct {
	ID              int    `json:"id" yaml:"id"`
	CourseID        int    `json:"course_id" yaml:"course_id"`
	Unit            string `json:"unit" yaml:"unit"`
	MarkValue       int    `json:"mark_value" yaml:"mark_value"`
	Portion         string `json:"portion,omitempty" yaml:"portion"`
	QuestionText    string `json:"question_text" yaml:"question_text"`
	OptionA         string `json:"option_a,omitempty" yaml:"option_a"`
	OptionB         string `json:"option_b,omitempty" yaml:"option_b"`
	OptionC         string `json:"option_c,omitempty" yaml:"option_c"`
	OptionD         string `json:"option_d,omitempty" yaml:"option_d"`
	Answer          string `json:"answer,omitempty" yaml:"answer"`
	CourseOutcome   string `json:"course_outcome,omitempty" yaml:"course_outcome"`
	CompetencyLevel string `json:"competency_level,omitempty" yaml:"competency_level"`
}

// HasAllOptions reports whether all four option fields are filled in.
func (q Question) HasAllOptions() bool {
	return q.OptionA != "" && q.OptionB != "" && q.OptionC != "" && q.OptionD != ""
}

// AddQuestionRequest is the payload for adding one question to a course pool.
type AddQuestionRequest struct {
	Unit            string `json:"unit" binding:"required,max=20,unit"`
	MarkValue       int    `json:"mark_value" binding:"required,mark"`
	Portion         string `json:"portion" binding:"omitempty,oneof=A B A&B a b"`
	QuestionText    string `json:"question_text" binding:"required,min=1,max=4000"`
	OptionA         string `json:"option_a" binding:"omitempty,max=1000"`
	OptionB         string `json:"option_b" binding:"omitempty,max=1000"`
	OptionC         string `json:"option_c" binding:"omitempty,max=1000"`
	OptionD         string `json:"option_d" binding:"omitempty,max=1000"`
	Answer          string `json:"answer" binding:"omitempty,max=1000"`
	CourseOutcome   string `json:"course_outcome" binding:"omitempty,max=16"`
	CompetencyLevel string `json:"competency_level" binding:"omitempty,max=16"`
}

// ToQuestion converts the payload into a pool entry of courseID.
func (r AddQuestionRequest) ToQuestion(courseID int) Question {
	return Question{
		CourseID:        courseID,
		Unit:            r.Unit,
		MarkValue:       r.MarkValue,
		Portion:         r.Portion,
		QuestionText:    r.QuestionText,
		OptionA:         r.OptionA,
		OptionB:         r.OptionB,
		OptionC:         r.OptionC,
		OptionD:         r.OptionD,
		Answer:          r.Answer,
		CourseOutcome:   r.CourseOutcome,
		CompetencyLevel: r.CompetencyLevel,
	}
}

// ReplaceQuestionsRequest is the payload for replacing a course's pool.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,max=5000,dive"`
}
