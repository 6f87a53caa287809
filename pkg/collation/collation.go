package collation

import (
	"fmt"
	"strings"
)

// Comparison strength levels, mirroring ICU semantics. Only the distinctions
// that matter for matching are modelled: strength 1 and 2 ignore case.
const (
	StrengthPrimary   = 1
	StrengthSecondary = 2
	StrengthTertiary  = 3
)

// SimpleLocale requests plain binary comparison regardless of strength.
const SimpleLocale = "simple"

// Spec describes a collation requested by a caller or configured as a
// collection default. A nil *Spec means "no collation": inherit the
// collection default, or binary comparison when there is none.
type Spec struct {
	Locale    string `json:"locale" msgpack:"locale"`
	Strength  int    `json:"strength,omitempty" msgpack:"strength,omitempty"`
	CaseLevel bool   `json:"caseLevel,omitempty" msgpack:"caseLevel,omitempty"`
}

// Equal reports whether two specs request the same comparison behavior.
// Both being nil counts as equal.
func (s *Spec) Equal(other *Spec) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.Locale == other.Locale && s.strength() == other.strength() && s.CaseLevel == other.CaseLevel
}

func (s *Spec) strength() int {
	if s.Strength == 0 {
		return StrengthTertiary
	}
	return s.Strength
}

// Collator compares strings under a resolved collation
type Collator struct {
	spec            *Spec
	caseInsensitive bool
}

// NewCollator builds a collator for the given spec. A nil spec yields the
// binary collator.
func NewCollator(spec *Spec) *Collator {
	c := &Collator{spec: spec}
	if spec != nil && spec.Locale != SimpleLocale && spec.strength() <= StrengthSecondary {
		c.caseInsensitive = true
	}
	return c
}

// Spec returns the spec this collator was built from, nil for the binary collator
func (c *Collator) Spec() *Spec {
	return c.spec
}

// Binary reports whether the collator compares strings byte-wise. A nil
// collator is binary.
func (c *Collator) Binary() bool {
	return c == nil || !c.caseInsensitive
}

// Compare orders two strings under the collation, returning -1, 0 or 1
func (c *Collator) Compare(a, b string) int {
	if c.caseInsensitive {
		a = strings.ToLower(a)
		b = strings.ToLower(b)
	}
	return strings.Compare(a, b)
}

// Equal reports whether two strings are equal under the collation
func (c *Collator) Equal(a, b string) bool {
	if c.caseInsensitive {
		return strings.EqualFold(a, b)
	}
	return a == b
}

// Resolve builds the collator for an operation. The requested spec, when
// present, overrides the collection default. The second return reports
// whether the operation's collation matches the collection default, which
// lets downstream consumers reuse collection-level artifacts such as indexes.
func Resolve(requested, collectionDefault *Spec) (*Collator, bool, error) {
	if requested == nil {
		return NewCollator(collectionDefault), true, nil
	}
	if requested.Locale == "" {
		return nil, false, fmt.Errorf("collation spec is missing a locale")
	}
	if requested.Strength < 0 || requested.Strength > 5 {
		return nil, false, fmt.Errorf("collation strength %d out of range", requested.Strength)
	}
	return NewCollator(requested), requested.Equal(collectionDefault), nil
}
