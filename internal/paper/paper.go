// Package paper assembles examination question papers from a flat pool of
// tagged questions. It performs no I/O: callers hand in a materialized pool
// and receive either a complete paper or a typed error.
package paper

import "github.com/stemsi/qpaper-backend/internal/model"

// Pair is an either/or item: the candidate answers A or B.
type Pair struct {
	A model.Question `json:"a"`
	B model.Question `json:"b"`
}

// Section is one slot of a fixed-layout paper. Written holds the
// mark-sum pair, or the single 4-mark question of a C-block section.
type Section struct {
	Key      string           `json:"key"`
	Unit     string           `json:"unit"`
	Portions string           `json:"portions"`
	MCQs     []model.Question `json:"mcqs"`
	Written  []model.Question `json:"written"`
}

// Paper is one assembled set. Fixed layouts fill Sections; the flexible
// layout fills the parts.
type Paper struct {
	Mode     Mode             `json:"mode"`
	Set      string           `json:"set"`
	Seed     string           `json:"seed"`
	Sections []Section        `json:"sections,omitempty"`
	PartA    []model.Question `json:"part_a,omitempty"`
	PartB    []Pair           `json:"part_b,omitempty"`
	PartC    []Pair           `json:"part_c,omitempty"`
}

// Questions flattens the paper in rendering order.
func (p Paper) Questions() []model.Question {
	numbered := p.Numbered()
	out := make([]model.Question, len(numbered))
	for i, n := range numbered {
		out[i] = n.Question
	}
	return out
}

// QuestionIDs lists the IDs of every selected question.
func (p Paper) QuestionIDs() []int {
	qs := p.Questions()
	ids := make([]int, len(qs))
	for i, q := range qs {
		ids[i] = q.ID
	}
	return ids
}
