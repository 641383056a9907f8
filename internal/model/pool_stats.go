package model

// PoolCell counts a course's questions for one unit and mark value.
type PoolCell struct {
	Unit     string `json:"unit"`
	Mark     int    `json:"mark"`
	Count    int    `json:"count"`
	ValidMCQ int    `json:"valid_mcq,omitempty"`
}

// PoolStats summarizes a course's pool so shortages show up before a
// generation request fails.
type PoolStats struct {
	CourseID       int        `json:"course_id"`
	TotalQuestions int        `json:"total_questions"`
	Generations    int        `json:"generations"`
	Untagged       int        `json:"untagged"`
	Cells          []PoolCell `json:"cells"`
}
