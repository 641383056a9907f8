package paper

import "fmt"

// ValidationError reports a malformed or out-of-range request parameter.
// No selection work has been performed when it is returned.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// PairSide identifies which member of a cross-unit pair could not be drawn.
type PairSide string

const (
	SideNone      PairSide = ""
	SideFirst     PairSide = "first"
	SideCrossUnit PairSide = "cross_unit"
)

// InsufficientPoolError reports that fewer eligible questions exist than a
// quota requires. Found counts the questions that were still available.
// Mark is zero for the written pair of a fixed-layout section, which may
// draw on any mark other than 1.
type InsufficientPoolError struct {
	Section  string
	Unit     string
	Mark     int
	Required int
	Found    int
	Side     PairSide
}

func (e *InsufficientPoolError) Error() string {
	msg := "insufficient written questions"
	if e.Mark != 0 {
		msg = fmt.Sprintf("insufficient questions for mark %d", e.Mark)
	}
	if e.Unit != "" {
		msg += fmt.Sprintf(" in %s", e.Unit)
	}
	if e.Section != "" {
		msg += fmt.Sprintf(" (section %s)", e.Section)
	}
	msg += fmt.Sprintf(": required %d, found %d", e.Required, e.Found)
	if e.Side != SideNone {
		msg += fmt.Sprintf(" [%s side]", e.Side)
	}
	return msg
}

// StructuralError reports that a fixed-layout section could not be
// completed even though its count quotas were met: no two remaining
// candidates add up to the target mark.
type StructuralError struct {
	Section    string
	Unit       string
	TargetSum  int
	Candidates int
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("section %s (%s): no pair summing to %d marks among %d candidates",
		e.Section, e.Unit, e.TargetSum, e.Candidates)
}
