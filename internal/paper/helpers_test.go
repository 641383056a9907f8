package paper

import (
	"fmt"
	"testing"

	"github.com/stemsi/qpaper-backend/internal/model"
)

type poolBuilder struct {
	next int
	qs   []model.Question
}

func (b *poolBuilder) add(unit, portion string, mark int, isMCQ bool) model.Question {
	b.next++
	q := model.Question{
		ID:           b.next,
		Unit:         unit,
		MarkValue:    mark,
		Portion:      portion,
		QuestionText: fmt.Sprintf("question %d", b.next),
	}
	if isMCQ {
		q.OptionA, q.OptionB, q.OptionC, q.OptionD = "a", "b", "c", "d"
	}
	b.qs = append(b.qs, q)
	return q
}

func (b *poolBuilder) addN(n int, unit, portion string, mark int, isMCQ bool) {
	for i := 0; i < n; i++ {
		b.add(unit, portion, mark, isMCQ)
	}
}

// addFixedUnit adds exactly what the three sections of one unit consume:
// A-tagged items for index 1 and B-tagged items for indexes 2 and 3.
func (b *poolBuilder) addFixedUnit(unit string) {
	b.addN(2, unit, "A", 1, true)
	b.addN(2, unit, "A", 4, false)
	b.addN(4, unit, "B", 1, true)
	b.addN(4, unit, "B", 4, false)
}

func exactFullTermPool() []model.Question {
	var b poolBuilder
	for u := 1; u <= 5; u++ {
		b.addFixedUnit(fmt.Sprintf("Unit %d", u))
	}
	return b.qs
}

// generousFullTermPool mixes every portion tag, untagged decoys and
// spare supply so assembly succeeds for any seed.
func generousFullTermPool() []model.Question {
	var b poolBuilder
	for u := 1; u <= 5; u++ {
		unit := fmt.Sprintf("Unit %d", u)
		for _, portion := range []string{"A", "B", "A&B", ""} {
			b.addN(6, unit, portion, 1, true)
			b.addN(6, unit, portion, 4, false)
		}
		b.addN(2, unit, "A", 1, false)
	}
	return b.qs
}

func assertNoDuplicates(t *testing.T, ids []int) {
	t.Helper()
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("question %d selected twice", id)
		}
		seen[id] = true
	}
}
