package model

// MarkRule is the quota for one mark value in a flexible-layout paper.
// PerUnit takes precedence over Count when its total is positive.
type MarkRule struct {
	Count   int            `json:"count" yaml:"count"`
	PerUnit map[string]int `json:"per_unit,omitempty" yaml:"per_unit"`
	IsPair  bool           `json:"is_pair" yaml:"is_pair"`
}

// PerUnitTotal sums the per-unit breakdown.
func (r MarkRule) PerUnitTotal() int {
	total := 0
	for _, n := range r.PerUnit {
		total += n
	}
	return total
}

// EffectiveCount is the number of items (questions, or pairs when IsPair)
// the rule asks for.
func (r MarkRule) EffectiveCount() int {
	if t := r.PerUnitTotal(); t > 0 {
		return t
	}
	return r.Count
}
