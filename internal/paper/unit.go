package paper

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/stemsi/qpaper-backend/internal/model"
)

// UnitKey is the comparable form of a unit label such as "Unit 3A".
// Sub is "", "A" or "B".
type UnitKey struct {
	Number int
	Sub    string
}

// ParseUnit parses labels like "Unit 3", "unit-3a", "UNIT 3 B" or "3".
func ParseUnit(label string) (UnitKey, error) {
	s := strings.ToLower(strings.TrimSpace(label))
	s = strings.TrimPrefix(s, "unit")
	s = strings.TrimLeft(s, " -_")

	i := 0
	for i < len(s) && unicode.IsDigit(rune(s[i])) {
		i++
	}
	if i == 0 {
		return UnitKey{}, fmt.Errorf("unit label %q has no unit number", label)
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil || n <= 0 {
		return UnitKey{}, fmt.Errorf("unit label %q has no valid unit number", label)
	}

	rest := strings.TrimSpace(s[i:])
	switch rest {
	case "":
		return UnitKey{Number: n}, nil
	case "a", "b":
		return UnitKey{Number: n, Sub: strings.ToUpper(rest)}, nil
	}
	return UnitKey{}, fmt.Errorf("unit label %q has unknown sub-portion %q", label, rest)
}

// Compare orders keys by unit number, then "" < "A" < "B".
func (k UnitKey) Compare(o UnitKey) int {
	switch {
	case k.Number < o.Number:
		return -1
	case k.Number > o.Number:
		return 1
	case k.Sub == o.Sub:
		return 0
	case k.Sub < o.Sub:
		return -1
	}
	return 1
}

func (k UnitKey) String() string {
	return fmt.Sprintf("Unit %d%s", k.Number, k.Sub)
}

// UnitRange is an inclusive range of unit keys.
type UnitRange struct {
	From UnitKey
	To   UnitKey
}

var (
	// LowerHalf covers Unit 1 to Unit 3A.
	LowerHalf = UnitRange{From: UnitKey{Number: 1}, To: UnitKey{Number: 3, Sub: "A"}}
	// UpperHalf covers Unit 3B to Unit 5.
	UpperHalf = UnitRange{From: UnitKey{Number: 3, Sub: "B"}, To: UnitKey{Number: 5}}
)

// ParseRange parses a from/to pair, requiring from <= to.
func ParseRange(from, to string) (UnitRange, error) {
	f, err := ParseUnit(from)
	if err != nil {
		return UnitRange{}, invalid("from_unit", "%v", err)
	}
	t, err := ParseUnit(to)
	if err != nil {
		return UnitRange{}, invalid("to_unit", "%v", err)
	}
	if f.Compare(t) > 0 {
		return UnitRange{}, invalid("to_unit", "%s is before %s", t, f)
	}
	return UnitRange{From: f, To: t}, nil
}

// ResolveHalf accepts only the two term halves used by partial-term papers.
func ResolveHalf(from, to string) (UnitRange, error) {
	r, err := ParseRange(from, to)
	if err != nil {
		return UnitRange{}, err
	}
	if r != LowerHalf && r != UpperHalf {
		return UnitRange{}, invalid("unit_range", "%s to %s is not one of %s to %s or %s to %s",
			r.From, r.To, LowerHalf.From, LowerHalf.To, UpperHalf.From, UpperHalf.To)
	}
	return r, nil
}

// Contains reports whether the question's unit lies in the range. A
// question on a whole unit (no sub-portion after taking its portion tag
// into account) is in range when its unit number is.
func (r UnitRange) Contains(q model.Question) bool {
	k, err := ParseUnit(q.Unit)
	if err != nil {
		return false
	}
	if k.Sub == "" {
		if p := Portion(q.Portion); p == PortionA || p == PortionB {
			k.Sub = string(p)
		}
	}
	if k.Sub == "" {
		return k.Number >= r.From.Number && k.Number <= r.To.Number
	}
	return r.From.Compare(k) <= 0 && k.Compare(r.To) <= 0
}
