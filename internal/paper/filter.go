package paper

import "github.com/stemsi/qpaper-backend/internal/model"

// Criteria narrows a shuffled pool. Zero values mean "no constraint".
type Criteria struct {
	// Units restricts to these base units; sub-portions are ignored here
	// and handled through Portions.
	Units []UnitKey
	// Mark selects questions of this mark value, or of any other mark
	// value when NotMark is set.
	Mark    int
	NotMark bool
	// Portions restricts by portion tag under Policy. Zero means any.
	Portions PortionSet
	Policy   PortionPolicy
	// MCQOnly keeps only valid multiple-choice items.
	MCQOnly bool
}

// IsValidMCQ reports whether q can be used as a multiple-choice item: a
// 1-mark question with all four options present.
func IsValidMCQ(q model.Question) bool {
	return q.MarkValue == 1 && q.HasAllOptions()
}

func (c Criteria) matches(q model.Question) bool {
	if c.Mark != 0 {
		if c.NotMark == (q.MarkValue == c.Mark) {
			return false
		}
	}
	if c.MCQOnly && !IsValidMCQ(q) {
		return false
	}
	if len(c.Units) > 0 {
		k, err := ParseUnit(q.Unit)
		if err != nil {
			return false
		}
		found := false
		for _, u := range c.Units {
			if u.Number == k.Number {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if c.Portions != 0 && !c.Policy.Matches(EffectivePortion(q), c.Portions) {
		return false
	}
	return true
}

// Eligible returns the questions of pool that satisfy c and are not in
// used, preserving pool order.
func Eligible(pool []model.Question, c Criteria, used Exclusion) []model.Question {
	var out []model.Question
	for _, q := range pool {
		if used.Has(q.ID) {
			continue
		}
		if c.matches(q) {
			out = append(out, q)
		}
	}
	return out
}
