package paper

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/stemsi/qpaper-backend/internal/model"
)

func fixedOpts() Options {
	return Options{CourseID: 42, Set: "A", Salt: "fixed-salt"}
}

func TestAssembleFullTermExactPool(t *testing.T) {
	pool := exactFullTermPool()

	p, err := AssembleFullTerm(pool, fixedOpts())
	if err != nil {
		t.Fatalf("AssembleFullTerm: %v", err)
	}
	if len(p.Sections) != 15 {
		t.Fatalf("expected 15 sections, got %d", len(p.Sections))
	}
	for i, s := range p.Sections {
		wantKey := fmt.Sprintf("%c%d", "ABCDE"[i/3], i%3+1)
		if s.Key != wantKey {
			t.Fatalf("section %d key = %s, want %s", i, s.Key, wantKey)
		}
		if len(s.MCQs) != 2 || len(s.Written) != 2 {
			t.Fatalf("section %s: %d MCQs, %d written", s.Key, len(s.MCQs), len(s.Written))
		}
		if s.Written[0].MarkValue+s.Written[1].MarkValue != FixedPairSum {
			t.Fatalf("section %s written pair does not sum to %d", s.Key, FixedPairSum)
		}
		for _, q := range s.MCQs {
			if !IsValidMCQ(q) {
				t.Fatalf("section %s selected non-MCQ %d", s.Key, q.ID)
			}
		}
	}

	got := p.QuestionIDs()
	assertNoDuplicates(t, got)
	if len(got) != len(pool) {
		t.Fatalf("expected every one of %d questions used, got %d", len(pool), len(got))
	}
}

func TestAssembleFullTermPortionsAndUnits(t *testing.T) {
	pool := generousFullTermPool()
	exclude := NewExclusion(1, 2, 3)

	o := fixedOpts()
	o.Exclude = exclude
	p, err := AssembleFullTerm(pool, o)
	if err != nil {
		t.Fatalf("AssembleFullTerm: %v", err)
	}

	assertNoDuplicates(t, p.QuestionIDs())
	for _, id := range p.QuestionIDs() {
		if exclude.Has(id) {
			t.Fatalf("excluded question %d selected", id)
		}
	}
	if len(exclude) != 3 {
		t.Fatal("caller exclusion set was mutated")
	}

	for _, s := range p.Sections {
		block, idx, ok := ParseSection(s.Key)
		if !ok {
			t.Fatalf("bad section key %q", s.Key)
		}
		allowed := SectionPortions(idx)
		wantUnit := int(block-'A') + 1
		for _, q := range append(append([]model.Question{}, s.MCQs...), s.Written...) {
			if !StrictPortionMatch.Matches(EffectivePortion(q), allowed) {
				t.Fatalf("section %s: question %d portion %q outside %s", s.Key, q.ID, q.Portion, allowed)
			}
			k, err := ParseUnit(q.Unit)
			if err != nil || k.Number != wantUnit {
				t.Fatalf("section %s: question %d from %s", s.Key, q.ID, q.Unit)
			}
		}
	}
}

func TestAssembleFullTermDeterministic(t *testing.T) {
	pool := generousFullTermPool()

	a, err := AssembleFullTerm(pool, fixedOpts())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	b, err := AssembleFullTerm(pool, fixedOpts())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical inputs produced different papers")
	}
	if a.Seed != SeedString(42, ModeFullTerm, "A", "fixed-salt") {
		t.Fatalf("unexpected seed %q", a.Seed)
	}
}

func TestAssembleFullTermInsufficientMCQs(t *testing.T) {
	var pool []model.Question
	for _, q := range exactFullTermPool() {
		// Unit 3 occupies IDs 25..36; 25 is one of its two A-tagged MCQs.
		if q.ID != 25 {
			pool = append(pool, q)
		}
	}

	p, err := AssembleFullTerm(pool, fixedOpts())
	var ie *InsufficientPoolError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InsufficientPoolError, got %v", err)
	}
	if ie.Section != "C1" || ie.Unit != "Unit 3" || ie.Mark != 1 || ie.Required != 2 || ie.Found != 1 {
		t.Fatalf("unexpected error fields: %+v", ie)
	}
	if p.Sections != nil {
		t.Fatal("partial paper returned alongside error")
	}
}

func TestAssembleFullTermStructuralFailure(t *testing.T) {
	pool := exactFullTermPool()
	// IDs 3 and 4 are Unit 1's A-tagged written questions; 3 + 3 != 8.
	pool[2].MarkValue = 3
	pool[3].MarkValue = 3

	_, err := AssembleFullTerm(pool, fixedOpts())
	var se *StructuralError
	if !errors.As(err, &se) {
		t.Fatalf("expected StructuralError, got %v", err)
	}
	if se.Section != "A1" || se.TargetSum != 8 || se.Candidates != 2 {
		t.Fatalf("unexpected error fields: %+v", se)
	}
}

func TestAssembleFullTermTooFewWrittenIsShortage(t *testing.T) {
	var pool []model.Question
	for _, q := range exactFullTermPool() {
		// ID 4 is one of Unit 1's two A-tagged written questions.
		if q.ID != 4 {
			pool = append(pool, q)
		}
	}

	_, err := AssembleFullTerm(pool, fixedOpts())
	var ie *InsufficientPoolError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InsufficientPoolError, got %v", err)
	}
	if ie.Section != "A1" || ie.Required != 2 || ie.Found != 1 {
		t.Fatalf("unexpected error fields: %+v", ie)
	}
}

func TestAssembleFullTermExclusionCausesShortage(t *testing.T) {
	o := fixedOpts()
	o.Exclude = NewExclusion(1)

	_, err := AssembleFullTerm(exactFullTermPool(), o)
	var ie *InsufficientPoolError
	if !errors.As(err, &ie) || ie.Section != "A1" || ie.Found != 1 {
		t.Fatalf("expected A1 shortage, got %v", err)
	}
}

func TestAssembleValidation(t *testing.T) {
	pool := exactFullTermPool()
	var ve *ValidationError

	_, err := AssembleFullTerm(pool, Options{Set: "A"})
	if !errors.As(err, &ve) || ve.Field != "course_id" {
		t.Fatalf("expected course_id validation error, got %v", err)
	}
	_, err = AssembleFullTerm(pool, Options{CourseID: 1, Set: " "})
	if !errors.As(err, &ve) || ve.Field != "set" {
		t.Fatalf("expected set validation error, got %v", err)
	}
	_, err = AssemblePartialTerm(pool, PartialTermOptions{Options: fixedOpts(), FromUnit: "Unit 1", ToUnit: "Unit 5"})
	if !errors.As(err, &ve) || ve.Field != "unit_range" {
		t.Fatalf("expected unit_range validation error, got %v", err)
	}
}

func partialPool(upper bool) []model.Question {
	var b poolBuilder
	units := []string{"Unit 1", "Unit 2"}
	if upper {
		units = []string{"Unit 4", "Unit 5"}
	}
	for _, u := range units {
		b.addFixedUnit(u)
	}
	// The C block reads only the A portion of unit 3 in either half.
	b.addN(3, "Unit 3A", "", 1, true)
	b.addN(3, "Unit 3A", "", 4, false)
	b.addN(3, "Unit 3B", "", 1, true)
	b.addN(3, "Unit 3B", "", 4, false)
	return b.qs
}

func TestAssemblePartialTerm(t *testing.T) {
	tests := []struct {
		name     string
		from, to string
		upper    bool
		units    [3]int
	}{
		{name: "lower", from: "Unit 1", to: "Unit 3A", units: [3]int{1, 2, 3}},
		{name: "upper", from: "Unit 3B", to: "Unit 5", upper: true, units: [3]int{4, 5, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := PartialTermOptions{Options: fixedOpts(), FromUnit: tt.from, ToUnit: tt.to}
			p, err := AssemblePartialTerm(partialPool(tt.upper), o)
			if err != nil {
				t.Fatalf("AssemblePartialTerm: %v", err)
			}
			if len(p.Sections) != 9 {
				t.Fatalf("expected 9 sections, got %d", len(p.Sections))
			}
			assertNoDuplicates(t, p.QuestionIDs())

			for i, s := range p.Sections {
				k, err := ParseUnit(s.Unit)
				if err != nil || k.Number != tt.units[i/3] {
					t.Fatalf("section %s on %s, want unit %d", s.Key, s.Unit, tt.units[i/3])
				}
				if s.Key[0] != 'C' {
					if len(s.MCQs) != 2 || len(s.Written) != 2 {
						t.Fatalf("section %s: %d MCQs, %d written", s.Key, len(s.MCQs), len(s.Written))
					}
					continue
				}
				if len(s.MCQs) != 1 || len(s.Written) != 1 || s.Written[0].MarkValue != 4 {
					t.Fatalf("section %s: want one MCQ and one 4-mark question, got %+v", s.Key, s)
				}
				if s.Portions != "{A}" {
					t.Fatalf("section %s allows %s, want {A}", s.Key, s.Portions)
				}
				for _, q := range []model.Question{s.MCQs[0], s.Written[0]} {
					if EffectivePortion(q) != PortionA {
						t.Fatalf("section %s took %s question %d", s.Key, q.Unit, q.ID)
					}
				}
			}
		})
	}
}

func flexiblePool() []model.Question {
	var b poolBuilder
	for u := 1; u <= 5; u++ {
		unit := fmt.Sprintf("Unit %d", u)
		b.addN(10, unit, "", 1, true)
		b.addN(10, unit, "", 2, false)
		b.addN(4, unit, "", 13, false)
		b.addN(2, unit, "", 15, false)
	}
	return b.qs
}

func TestAssembleFlexibleQuotas(t *testing.T) {
	rules := Rules{
		1:  {Count: 10},
		2:  {PerUnit: map[string]int{"Unit 1": 2, "unit 3": 3}},
		13: {Count: 3, IsPair: true},
		15: {PerUnit: map[string]int{"Unit 2": 1, "Unit 4": 1}, IsPair: true},
	}
	o := FlexibleOptions{Options: fixedOpts(), Rules: rules}

	p, err := AssembleFlexible(flexiblePool(), o)
	if err != nil {
		t.Fatalf("AssembleFlexible: %v", err)
	}
	assertNoDuplicates(t, p.QuestionIDs())
	if p.Sections != nil || p.PartC != nil {
		t.Fatal("flexible paper must only fill parts A and B")
	}

	questions := make(map[int]int)
	marks := make(map[int]int)
	for _, q := range p.Questions() {
		questions[q.MarkValue]++
		marks[q.MarkValue] += q.MarkValue
	}
	for m, rule := range rules {
		want := rule.EffectiveCount()
		if rule.IsPair {
			want *= 2
		}
		if questions[m] != want {
			t.Errorf("mark %d: %d questions, want %d", m, questions[m], want)
		}
		if marks[m] != want*m {
			t.Errorf("mark %d: %d marks, want %d", m, marks[m], want*m)
		}
	}

	for _, q := range p.PartA {
		if q.MarkValue == 2 && q.Unit != "Unit 1" && q.Unit != "Unit 3" {
			t.Errorf("mark-2 question from unrequested unit %s", q.Unit)
		}
	}
	for _, pr := range p.PartB {
		sameUnit := unitIndexKey(pr.A.Unit) == unitIndexKey(pr.B.Unit)
		if pr.A.MarkValue != pr.B.MarkValue {
			t.Errorf("pair with mixed marks: %+v", pr)
		}
		if pr.A.MarkValue == CrossUnitMark && sameUnit {
			t.Errorf("mark-15 pair within %s", pr.A.Unit)
		}
		if pr.A.MarkValue != CrossUnitMark && !sameUnit {
			t.Errorf("mark-%d pair across %s and %s", pr.A.MarkValue, pr.A.Unit, pr.B.Unit)
		}
	}
}

func TestAssembleFlexibleUnitRange(t *testing.T) {
	o := FlexibleOptions{Options: fixedOpts(), FromUnit: "Unit 1", ToUnit: "Unit 2", Rules: Rules{2: {Count: 15}}}
	p, err := AssembleFlexible(flexiblePool(), o)
	if err != nil {
		t.Fatalf("AssembleFlexible: %v", err)
	}
	for _, q := range p.PartA {
		if q.Unit != "Unit 1" && q.Unit != "Unit 2" {
			t.Fatalf("question from %s outside range", q.Unit)
		}
	}

	o.Rules = Rules{2: {Count: 21}}
	_, err = AssembleFlexible(flexiblePool(), o)
	var ie *InsufficientPoolError
	if !errors.As(err, &ie) || ie.Required != 21 || ie.Found != 20 {
		t.Fatalf("expected shortage 21/20 inside range, got %v", err)
	}

	o.ToUnit = ""
	_, err = AssembleFlexible(flexiblePool(), o)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "unit_range" {
		t.Fatalf("expected unit_range validation error, got %v", err)
	}
}

func TestAssembleFlexibleRejectsBadRules(t *testing.T) {
	o := FlexibleOptions{Options: fixedOpts(), Rules: Rules{7: {Count: 1}}}
	_, err := AssembleFlexible(flexiblePool(), o)
	var ve *ValidationError
	if !errors.As(err, &ve) || ve.Field != "mark_rules" {
		t.Fatalf("expected mark_rules validation error, got %v", err)
	}
}

func TestCrossSetNoRepetition(t *testing.T) {
	pool := flexiblePool()
	rules := Rules{1: {Count: 10}, 13: {Count: 2, IsPair: true}}

	a, err := AssembleFlexible(pool, FlexibleOptions{Options: fixedOpts(), Rules: rules})
	if err != nil {
		t.Fatalf("set A: %v", err)
	}

	ob := fixedOpts()
	ob.Set = "B"
	ob.Exclude = NewExclusion(a.QuestionIDs()...)
	b, err := AssembleFlexible(pool, FlexibleOptions{Options: ob, Rules: rules})
	if err != nil {
		t.Fatalf("set B: %v", err)
	}

	for _, id := range b.QuestionIDs() {
		if ob.Exclude.Has(id) {
			t.Fatalf("question %d repeated across sets", id)
		}
	}
}

func TestAssembleIgnoresDuplicatePoolEntries(t *testing.T) {
	var b poolBuilder
	b.addN(2, "Unit 1", "", 2, false)
	pool := append(b.qs, b.qs...)

	_, err := AssembleFlexible(pool, FlexibleOptions{Options: fixedOpts(), Rules: Rules{2: {Count: 3}}})
	var ie *InsufficientPoolError
	if !errors.As(err, &ie) || ie.Found != 2 {
		t.Fatalf("duplicated entries must count once, got %v", err)
	}
}
