package paper

import "github.com/stemsi/qpaper-backend/internal/model"

// FixedPairSum is the mark total of the written pair in fixed layouts.
const FixedPairSum = 8

// FindPairSum returns the first pair (i < j, scanning in candidate order)
// whose mark values add up to target.
func FindPairSum(candidates []model.Question, target int) (model.Question, model.Question, bool) {
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[i].MarkValue+candidates[j].MarkValue == target {
				return candidates[i], candidates[j], true
			}
		}
	}
	return model.Question{}, model.Question{}, false
}
