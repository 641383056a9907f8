package paper

import "github.com/stemsi/qpaper-backend/internal/model"

// Exclusion is the set of question IDs that may not be selected.
type Exclusion map[int]struct{}

// NewExclusion builds a set from IDs.
func NewExclusion(ids ...int) Exclusion {
	e := make(Exclusion, len(ids))
	for _, id := range ids {
		e[id] = struct{}{}
	}
	return e
}

// Has reports whether id is excluded.
func (e Exclusion) Has(id int) bool {
	_, ok := e[id]
	return ok
}

// Add excludes the given questions.
func (e Exclusion) Add(qs ...model.Question) {
	for _, q := range qs {
		e[q.ID] = struct{}{}
	}
}

// AddIDs excludes the given IDs.
func (e Exclusion) AddIDs(ids ...int) {
	for _, id := range ids {
		e[id] = struct{}{}
	}
}

// Clone copies the set; a nil receiver yields an empty set.
func (e Exclusion) Clone() Exclusion {
	out := make(Exclusion, len(e))
	for id := range e {
		out[id] = struct{}{}
	}
	return out
}
