package paper

import (
	"slices"
	"strconv"
	"strings"

	"github.com/stemsi/qpaper-backend/internal/model"
)

// NumberedQuestion is a question with the label it carries on the
// rendered paper, e.g. "7" or "16b".
type NumberedQuestion struct {
	Label    string         `json:"label"`
	Question model.Question `json:"question"`
}

// Numbered flattens the paper in rendering order. Fixed layouts list all
// MCQs first, then each section's written part; the flexible layout lists
// part A, then part B, then part C. Pair members share a number and are
// suffixed "a" and "b".
func (p Paper) Numbered() []NumberedQuestion {
	var out []NumberedQuestion
	n := 0
	single := func(q model.Question) {
		n++
		out = append(out, NumberedQuestion{Label: strconv.Itoa(n), Question: q})
	}
	pair := func(a, b model.Question) {
		n++
		num := strconv.Itoa(n)
		out = append(out,
			NumberedQuestion{Label: num + "a", Question: a},
			NumberedQuestion{Label: num + "b", Question: b},
		)
	}

	for _, s := range p.Sections {
		for _, q := range s.MCQs {
			single(q)
		}
	}
	for _, s := range p.Sections {
		switch len(s.Written) {
		case 1:
			single(s.Written[0])
		case 2:
			pair(s.Written[0], s.Written[1])
		}
	}

	for _, q := range p.PartA {
		single(q)
	}
	for _, pr := range p.PartB {
		pair(pr.A, pr.B)
	}
	for _, pr := range p.PartC {
		pair(pr.A, pr.B)
	}
	return out
}

// OutcomeMarks is the total marks carried by one course outcome.
type OutcomeMarks struct {
	Outcome string `json:"outcome"`
	Marks   int    `json:"marks"`
}

// CompetencyQuestions lists the question labels at one competency level.
type CompetencyQuestions struct {
	Level     string   `json:"level"`
	Questions []string `json:"questions"`
}

// Analytics are the presentation tables derived from a paper.
type Analytics struct {
	OutcomeMarks []OutcomeMarks        `json:"outcome_marks"`
	Competency   []CompetencyQuestions `json:"competency"`
}

// CompetencyLevels are always reported, in this order, even when empty.
var CompetencyLevels = []string{"K1", "K2", "K3", "K4", "K5", "K6"}

// Analyze sums marks per course outcome and groups question labels by
// competency level. Untagged questions are left out of the respective
// table.
func Analyze(p Paper) Analytics {
	marks := make(map[string]int)
	levels := make(map[string][]string)

	for _, nq := range p.Numbered() {
		if co := strings.TrimSpace(nq.Question.CourseOutcome); co != "" {
			marks[strings.ToUpper(co)] += nq.Question.MarkValue
		}
		if k := strings.TrimSpace(nq.Question.CompetencyLevel); k != "" {
			k = strings.ToUpper(k)
			levels[k] = append(levels[k], nq.Label)
		}
	}

	a := Analytics{
		OutcomeMarks: make([]OutcomeMarks, 0, len(marks)),
		Competency:   make([]CompetencyQuestions, 0, len(CompetencyLevels)),
	}
	for _, co := range sortedTags(marks) {
		a.OutcomeMarks = append(a.OutcomeMarks, OutcomeMarks{Outcome: co, Marks: marks[co]})
	}
	for _, k := range CompetencyLevels {
		qs := levels[k]
		if qs == nil {
			qs = []string{}
		}
		a.Competency = append(a.Competency, CompetencyQuestions{Level: k, Questions: qs})
		delete(levels, k)
	}
	for _, k := range sortedTags(levels) {
		a.Competency = append(a.Competency, CompetencyQuestions{Level: k, Questions: levels[k]})
	}
	return a
}

// sortedTags orders tags like CO1, CO2, CO10 by prefix, then number.
func sortedTags[V any](m map[string]V) []string {
	tags := make([]string, 0, len(m))
	for t := range m {
		tags = append(tags, t)
	}
	slices.SortFunc(tags, func(x, y string) int {
		px, nx := splitTag(x)
		py, ny := splitTag(y)
		if c := strings.Compare(px, py); c != 0 {
			return c
		}
		if nx != ny {
			if nx < ny {
				return -1
			}
			return 1
		}
		return strings.Compare(x, y)
	})
	return tags
}

func splitTag(tag string) (string, int) {
	i := len(tag)
	for i > 0 && tag[i-1] >= '0' && tag[i-1] <= '9' {
		i--
	}
	n, err := strconv.Atoi(tag[i:])
	if err != nil {
		return tag, -1
	}
	return tag[:i], n
}
