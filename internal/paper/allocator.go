package paper

import (
	"slices"
	"strings"

	"github.com/stemsi/qpaper-backend/internal/model"
)

// MarkValues is the closed set of mark values a rule may target, in the
// order the allocator processes them.
var MarkValues = []int{1, 2, 3, 4, 5, 6, 13, 15}

// CrossUnitMark is the mark value whose pairs must straddle two units.
const CrossUnitMark = 15

// ValidMark reports whether m is a supported mark value.
func ValidMark(m int) bool {
	return slices.Contains(MarkValues, m)
}

// Rules maps a mark value to its quota.
type Rules map[int]model.MarkRule

// Validate rejects unknown marks, negative counts and empty rule sets.
func (r Rules) Validate() error {
	total := 0
	for m, rule := range r {
		if !ValidMark(m) {
			return invalid("mark_rules", "unsupported mark value %d", m)
		}
		if rule.Count < 0 {
			return invalid("mark_rules", "negative count for mark %d", m)
		}
		for unit, n := range rule.PerUnit {
			if strings.TrimSpace(unit) == "" {
				return invalid("mark_rules", "empty unit label for mark %d", m)
			}
			if n < 0 {
				return invalid("mark_rules", "negative count for mark %d in %s", m, unit)
			}
		}
		total += rule.EffectiveCount()
	}
	if total == 0 {
		return invalid("mark_rules", "no questions requested")
	}
	return nil
}

// Parts is the output of the allocator.
type Parts struct {
	PartA []model.Question
	PartB []Pair
	PartC []Pair
}

// unitIndexKey is the canonical unit of a label, so that "Unit 1" and
// "unit-1" land in the same bucket. Labels that do not parse fall back to
// their trimmed lower-case form.
func unitIndexKey(label string) string {
	if k, err := ParseUnit(label); err == nil {
		return k.String()
	}
	return strings.ToLower(strings.TrimSpace(label))
}

// poolIndex groups a shuffled pool by mark value and unit, keeping pool
// order inside every slice.
type poolIndex struct {
	byMark map[int][]model.Question
	byUnit map[int]map[string][]model.Question
	units  map[int][]string
}

func indexPool(pool []model.Question) *poolIndex {
	idx := &poolIndex{
		byMark: make(map[int][]model.Question),
		byUnit: make(map[int]map[string][]model.Question),
		units:  make(map[int][]string),
	}
	for _, q := range pool {
		m := q.MarkValue
		key := unitIndexKey(q.Unit)
		idx.byMark[m] = append(idx.byMark[m], q)
		if idx.byUnit[m] == nil {
			idx.byUnit[m] = make(map[string][]model.Question)
		}
		if _, seen := idx.byUnit[m][key]; !seen {
			idx.units[m] = append(idx.units[m], key)
		}
		idx.byUnit[m][key] = append(idx.byUnit[m][key], q)
	}
	return idx
}

type allocator struct {
	idx   *poolIndex
	used  Exclusion
	parts Parts
}

// Allocate satisfies rules from pool, which should already be shuffled.
// Every selected ID is added to used; the caller must own used exclusively
// for the duration of the call.
func Allocate(pool []model.Question, rules Rules, used Exclusion) (Parts, error) {
	if err := rules.Validate(); err != nil {
		return Parts{}, err
	}
	a := &allocator{idx: indexPool(pool), used: used}

	for _, m := range MarkValues {
		rule, ok := rules[m]
		if !ok {
			continue
		}
		if rule.PerUnitTotal() > 0 {
			for _, unit := range sortedUnits(rule.PerUnit) {
				if n := rule.PerUnit[unit]; n > 0 {
					if err := a.allocateUnit(m, unit, n, rule.IsPair); err != nil {
						return Parts{}, err
					}
				}
			}
			continue
		}
		if rule.Count > 0 {
			if err := a.allocateFlat(m, rule.Count, rule.IsPair); err != nil {
				return Parts{}, err
			}
		}
	}
	return a.parts, nil
}

func (a *allocator) allocateUnit(m int, unit string, n int, isPair bool) error {
	key := unitIndexKey(unit)
	slice := a.idx.byUnit[m][key]

	switch {
	case !isPair:
		qs, found := a.take(slice, n)
		if qs == nil {
			return &InsufficientPoolError{Unit: unit, Mark: m, Required: n, Found: found}
		}
		a.parts.PartA = append(a.parts.PartA, qs...)

	case m != CrossUnitMark:
		qs, found := a.take(slice, 2*n)
		if qs == nil {
			return &InsufficientPoolError{Unit: unit, Mark: m, Required: 2 * n, Found: found}
		}
		for i := 0; i < len(qs); i += 2 {
			a.parts.PartB = append(a.parts.PartB, Pair{A: qs[i], B: qs[i+1]})
		}

	default:
		if found := a.available(slice); found < n {
			return &InsufficientPoolError{Unit: unit, Mark: m, Required: n, Found: found, Side: SideFirst}
		}
		if found := a.availableOutside(m, key); found < n {
			return &InsufficientPoolError{Unit: unit, Mark: m, Required: n, Found: found, Side: SideCrossUnit}
		}
		for i := 0; i < n; i++ {
			first, _ := a.takeOne(slice)
			second, _ := a.takeCrossUnit(m, key)
			a.parts.PartB = append(a.parts.PartB, Pair{A: first, B: second})
		}
	}
	return nil
}

func (a *allocator) allocateFlat(m, n int, isPair bool) error {
	all := a.idx.byMark[m]

	switch {
	case !isPair:
		qs, found := a.take(all, n)
		if qs == nil {
			return &InsufficientPoolError{Mark: m, Required: n, Found: found}
		}
		a.parts.PartA = append(a.parts.PartA, qs...)

	case m != CrossUnitMark:
		found := a.available(all)
		for i := 0; i < n; i++ {
			p, ok := a.takeSameUnitPair(all)
			if !ok {
				return &InsufficientPoolError{Mark: m, Required: 2 * n, Found: found}
			}
			a.parts.PartB = append(a.parts.PartB, p)
		}

	default:
		found := a.available(all)
		for i := 0; i < n; i++ {
			first, ok := a.takeOne(all)
			if !ok {
				return &InsufficientPoolError{Mark: m, Required: 2 * n, Found: found, Side: SideFirst}
			}
			second, ok := a.takeCrossUnit(m, unitIndexKey(first.Unit))
			if !ok {
				return &InsufficientPoolError{Unit: first.Unit, Mark: m, Required: 2 * n, Found: found, Side: SideCrossUnit}
			}
			a.parts.PartB = append(a.parts.PartB, Pair{A: first, B: second})
		}
	}
	return nil
}

// available counts the unused questions of slice.
func (a *allocator) available(slice []model.Question) int {
	n := 0
	for _, q := range slice {
		if !a.used.Has(q.ID) {
			n++
		}
	}
	return n
}

// availableOutside counts the unused questions at mark m outside unit key.
func (a *allocator) availableOutside(m int, key string) int {
	n := 0
	for _, unit := range a.idx.units[m] {
		if unit != key {
			n += a.available(a.idx.byUnit[m][unit])
		}
	}
	return n
}

// take claims the first n unused questions of slice. On shortage it
// claims nothing and returns how many were available.
func (a *allocator) take(slice []model.Question, n int) ([]model.Question, int) {
	avail := make([]model.Question, 0, n)
	for _, q := range slice {
		if a.used.Has(q.ID) {
			continue
		}
		avail = append(avail, q)
	}
	if len(avail) < n {
		return nil, len(avail)
	}
	picked := avail[:n]
	a.used.Add(picked...)
	return picked, len(avail)
}

func (a *allocator) takeOne(slice []model.Question) (model.Question, bool) {
	qs, _ := a.take(slice, 1)
	if qs == nil {
		return model.Question{}, false
	}
	return qs[0], true
}

// takeCrossUnit claims the first unused question at mark m from any unit
// other than exclude, visiting units in index order.
func (a *allocator) takeCrossUnit(m int, exclude string) (model.Question, bool) {
	for _, unit := range a.idx.units[m] {
		if unit == exclude {
			continue
		}
		if q, ok := a.takeOne(a.idx.byUnit[m][unit]); ok {
			return q, true
		}
	}
	return model.Question{}, false
}

// takeSameUnitPair claims the first unused question of slice together with
// the next unused question of the same unit.
func (a *allocator) takeSameUnitPair(slice []model.Question) (Pair, bool) {
	for i, q := range slice {
		if a.used.Has(q.ID) {
			continue
		}
		key := unitIndexKey(q.Unit)
		for _, r := range slice[i+1:] {
			if a.used.Has(r.ID) || unitIndexKey(r.Unit) != key {
				continue
			}
			a.used.Add(q, r)
			return Pair{A: q, B: r}, true
		}
	}
	return Pair{}, false
}

// sortedUnits orders per-unit rule keys by unit key, falling back to the
// label for keys that do not parse.
func sortedUnits(perUnit map[string]int) []string {
	units := make([]string, 0, len(perUnit))
	for u := range perUnit {
		units = append(units, u)
	}
	slices.SortFunc(units, func(x, y string) int {
		kx, ex := ParseUnit(x)
		ky, ey := ParseUnit(y)
		switch {
		case ex == nil && ey == nil:
			if c := kx.Compare(ky); c != 0 {
				return c
			}
		case ex == nil:
			return -1
		case ey == nil:
			return 1
		}
		return strings.Compare(x, y)
	})
	return units
}
