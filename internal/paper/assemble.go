package paper

import (
	"strconv"
	"strings"

	"github.com/stemsi/qpaper-backend/internal/model"
)

// Options are the inputs shared by every assembler.
type Options struct {
	CourseID int
	Set      string
	Salt     string
	// Exclude holds IDs used by earlier sets; it is copied, never mutated.
	Exclude Exclusion
}

// PartialTermOptions selects one of the two term halves.
type PartialTermOptions struct {
	Options
	FromUnit string
	ToUnit   string
}

// FlexibleOptions carries the per-mark quotas and an optional unit range.
type FlexibleOptions struct {
	Options
	FromUnit string
	ToUnit   string
	Rules    Rules
}

func (o Options) validate() error {
	if o.CourseID <= 0 {
		return invalid("course_id", "must be a positive course identifier")
	}
	if strings.TrimSpace(o.Set) == "" {
		return invalid("set", "set label is required")
	}
	return nil
}

type writtenKind int

const (
	writtenPairSum writtenKind = iota
	writtenSingleFour
)

type sectionSpec struct {
	key      string
	unit     UnitKey
	portions PortionSet
	mcqs     int
	written  writtenKind
}

const blocks = "ABCDE"

// newSectionSpec reads the allowed portions off the section key. Sections
// of the C block take {A} when splitC is set.
func newSectionSpec(key string, unit int, splitC bool) sectionSpec {
	block, index, _ := ParseSection(key)
	s := sectionSpec{
		key:      key,
		unit:     UnitKey{Number: unit},
		portions: SectionPortions(index),
		mcqs:     2,
		written:  writtenPairSum,
	}
	if splitC && block == 'C' {
		s.portions = AllowA
		s.mcqs = 1
		s.written = writtenSingleFour
	}
	return s
}

func sectionKey(block, index int) string {
	return string(blocks[block]) + strconv.Itoa(index)
}

func fullTermSections() []sectionSpec {
	specs := make([]sectionSpec, 0, 15)
	for b := 0; b < len(blocks); b++ {
		for i := 1; i <= 3; i++ {
			specs = append(specs, newSectionSpec(sectionKey(b, i), b+1, false))
		}
	}
	return specs
}

// partialTermSections lays out the A, B and C blocks of a half. The C block
// covers the split unit 3 in both halves.
func partialTermSections(r UnitRange) []sectionSpec {
	units := [3]int{1, 2, 3}
	if r == UpperHalf {
		units = [3]int{4, 5, 3}
	}
	specs := make([]sectionSpec, 0, 9)
	for b := 0; b < 3; b++ {
		for i := 1; i <= 3; i++ {
			specs = append(specs, newSectionSpec(sectionKey(b, i), units[b], true))
		}
	}
	return specs
}

// dedupe drops repeated IDs, keeping the first occurrence.
func dedupe(pool []model.Question) []model.Question {
	seen := make(map[int]struct{}, len(pool))
	out := make([]model.Question, 0, len(pool))
	for _, q := range pool {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

func begin(pool []model.Question, mode Mode, o Options) (Paper, []model.Question, Exclusion) {
	seed := SeedString(o.CourseID, mode, o.Set, o.Salt)
	shuffled := Shuffle(dedupe(pool), NewRand(seed))
	return Paper{Mode: mode, Set: o.Set, Seed: seed}, shuffled, o.Exclude.Clone()
}

// AssembleFullTerm builds the fifteen-section layout A1..E3, one block per
// unit, each section holding two MCQs and a pair of written questions
// worth eight marks together.
func AssembleFullTerm(pool []model.Question, o Options) (Paper, error) {
	if err := o.validate(); err != nil {
		return Paper{}, err
	}
	p, shuffled, used := begin(pool, ModeFullTerm, o)
	return fillSections(p, shuffled, fullTermSections(), used)
}

// AssemblePartialTerm builds the nine-section layout for one term half.
func AssemblePartialTerm(pool []model.Question, o PartialTermOptions) (Paper, error) {
	if err := o.validate(); err != nil {
		return Paper{}, err
	}
	r, err := ResolveHalf(o.FromUnit, o.ToUnit)
	if err != nil {
		return Paper{}, err
	}
	p, shuffled, used := begin(pool, ModePartialTerm, o.Options)
	return fillSections(p, shuffled, partialTermSections(r), used)
}

// AssembleFlexible delegates to the quota allocator.
func AssembleFlexible(pool []model.Question, o FlexibleOptions) (Paper, error) {
	if err := o.validate(); err != nil {
		return Paper{}, err
	}
	if err := o.Rules.Validate(); err != nil {
		return Paper{}, err
	}
	var (
		r       UnitRange
		inRange bool
	)
	if o.FromUnit != "" || o.ToUnit != "" {
		if o.FromUnit == "" || o.ToUnit == "" {
			return Paper{}, invalid("unit_range", "from_unit and to_unit must be given together")
		}
		var err error
		if r, err = ParseRange(o.FromUnit, o.ToUnit); err != nil {
			return Paper{}, err
		}
		inRange = true
	}

	p, shuffled, used := begin(pool, ModeFlexible, o.Options)
	if inRange {
		kept := shuffled[:0]
		for _, q := range shuffled {
			if r.Contains(q) {
				kept = append(kept, q)
			}
		}
		shuffled = kept
	}

	parts, err := Allocate(shuffled, o.Rules, used)
	if err != nil {
		return Paper{}, err
	}
	p.PartA, p.PartB, p.PartC = parts.PartA, parts.PartB, parts.PartC
	return p, nil
}

func fillSections(p Paper, shuffled []model.Question, specs []sectionSpec, used Exclusion) (Paper, error) {
	p.Sections = make([]Section, 0, len(specs))
	for _, spec := range specs {
		s, err := fillSection(shuffled, spec, used)
		if err != nil {
			return Paper{}, err
		}
		p.Sections = append(p.Sections, s)
	}
	return p, nil
}

func fillSection(shuffled []model.Question, spec sectionSpec, used Exclusion) (Section, error) {
	unit := spec.unit.String()
	base := Criteria{
		Units:    []UnitKey{spec.unit},
		Portions: spec.portions,
		Policy:   StrictPortionMatch,
	}

	mcq := base
	mcq.Mark = 1
	mcq.MCQOnly = true
	cands := Eligible(shuffled, mcq, used)
	if len(cands) < spec.mcqs {
		return Section{}, &InsufficientPoolError{
			Section: spec.key, Unit: unit, Mark: 1, Required: spec.mcqs, Found: len(cands),
		}
	}
	s := Section{
		Key:      spec.key,
		Unit:     unit,
		Portions: spec.portions.String(),
		MCQs:     cands[:spec.mcqs:spec.mcqs],
	}
	used.Add(s.MCQs...)

	switch spec.written {
	case writtenPairSum:
		rest := base
		rest.Mark = 1
		rest.NotMark = true
		cands = Eligible(shuffled, rest, used)
		if len(cands) < 2 {
			return Section{}, &InsufficientPoolError{
				Section: spec.key, Unit: unit, Required: 2, Found: len(cands),
			}
		}
		a, b, ok := FindPairSum(cands, FixedPairSum)
		if !ok {
			return Section{}, &StructuralError{
				Section: spec.key, Unit: unit, TargetSum: FixedPairSum, Candidates: len(cands),
			}
		}
		s.Written = []model.Question{a, b}
	case writtenSingleFour:
		four := base
		four.Mark = 4
		cands = Eligible(shuffled, four, used)
		if len(cands) == 0 {
			return Section{}, &InsufficientPoolError{
				Section: spec.key, Unit: unit, Mark: 4, Required: 1, Found: 0,
			}
		}
		s.Written = cands[:1:1]
	}
	used.Add(s.Written...)
	return s, nil
}
