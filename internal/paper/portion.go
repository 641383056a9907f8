package paper

import (
	"strconv"

	"github.com/stemsi/qpaper-backend/internal/model"
)

// Portion is a sub-tag partitioning a unit's questions.
type Portion string

const (
	PortionNone Portion = ""
	PortionA    Portion = "A"
	PortionB    Portion = "B"
	PortionAB   Portion = "A&B"
)

// PortionSet is a set of the atomic portions A and B.
type PortionSet uint8

const (
	AllowA PortionSet = 1 << iota
	AllowB

	AllowAB = AllowA | AllowB
)

// Has reports whether p is in the set. The combined tag is in the set when
// the set is not empty.
func (s PortionSet) Has(p Portion) bool {
	switch p {
	case PortionA:
		return s&AllowA != 0
	case PortionB:
		return s&AllowB != 0
	case PortionAB:
		return s != 0
	}
	return false
}

func (s PortionSet) String() string {
	switch s {
	case AllowA:
		return "{A}"
	case AllowB:
		return "{B}"
	case AllowAB:
		return "{A,B}"
	}
	return "{}"
}

// PortionPolicy decides how an untagged question is treated.
type PortionPolicy int

const (
	// StrictPortionMatch rejects questions with no portion tag. Used by
	// the fixed layouts.
	StrictPortionMatch PortionPolicy = iota
	// PermissivePortionMatch accepts questions with no portion tag. Used
	// by the flexible layout.
	PermissivePortionMatch
)

// Matches applies the policy to a single portion tag.
func (pp PortionPolicy) Matches(tag Portion, allowed PortionSet) bool {
	if tag == PortionNone {
		return pp == PermissivePortionMatch
	}
	return allowed.Has(tag)
}

// EffectivePortion is the question's portion tag, falling back to the
// sub-portion encoded in its unit label.
func EffectivePortion(q model.Question) Portion {
	if q.Portion != "" {
		return Portion(q.Portion)
	}
	if k, err := ParseUnit(q.Unit); err == nil && k.Sub != "" {
		return Portion(k.Sub)
	}
	return PortionNone
}

// SectionPortions derives the allowed portions from a section index:
// 1 -> {A}, 2 -> {A,B}, 3 -> {B}, anything else -> {A,B}.
func SectionPortions(index int) PortionSet {
	switch index {
	case 1:
		return AllowA
	case 3:
		return AllowB
	}
	return AllowAB
}

// ParseSection splits a section key such as "B2" into block and index.
func ParseSection(key string) (block byte, index int, ok bool) {
	if len(key) < 2 {
		return 0, 0, false
	}
	n, err := strconv.Atoi(key[1:])
	if err != nil {
		return 0, 0, false
	}
	return key[0], n, true
}
