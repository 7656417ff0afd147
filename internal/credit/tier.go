package credit

import "fmt"

// Op is the comparison a tier applies between a measured value and its threshold.
type Op int

const (
	AtLeast Op = iota
	Above
	AtMost
	Below
)

func (o Op) String() string {
	switch o {
	case AtLeast:
		return ">="
	case Above:
		return ">"
	case AtMost:
		return "<="
	case Below:
		return "<"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

func (o Op) matches(value, threshold float64) bool {
	switch o {
	case AtLeast:
		return value >= threshold
	case Above:
		return value > threshold
	case AtMost:
		return value <= threshold
	case Below:
		return value < threshold
	default:
		return false
	}
}

// descending reports whether tiers using this op must be listed from the highest
// threshold to the lowest.
func (o Op) descending() bool {
	return o == AtLeast || o == Above
}

// Tier is one row of a tier table: when the measured value satisfies Op
// against Threshold, the table yields Value.
type Tier[T any] struct {
	Op        Op
	Threshold float64
	Value     T
}

// TierTable is an ordered list of tiers evaluated top to bottom; the first
// match wins and Fallback applies when nothing matches.
type TierTable[T any] struct {
	Tiers    []Tier[T]
	Fallback T
}

func (t TierTable[T]) Lookup(value float64) T {
	for _, tier := range t.Tiers {
		if tier.Op.matches(value, tier.Threshold) {
			return tier.Value
		}
	}
	return t.Fallback
}

// Values returns every value the table can produce, fallback last.
func (t TierTable[T]) Values() []T {
	out := make([]T, 0, len(t.Tiers)+1)
	for _, tier := range t.Tiers {
		out = append(out, tier.Value)
	}
	return append(out, t.Fallback)
}

// Validate rejects tables whose boundaries overlap or are out of order. Tiers of
// the same direction must have strictly decreasing (>=, >) or strictly
// increasing (<=, <) thresholds, otherwise a later tier could never match. A
// lower-bounded tier and an upper-bounded tier must not both accept any value.
func (t TierTable[T]) Validate() error {
	for j := 1; j < len(t.Tiers); j++ {
		cur := t.Tiers[j]
		for i := 0; i < j; i++ {
			prev := t.Tiers[i]
			if prev.Op.descending() == cur.Op.descending() {
				if prev.Op.descending() && cur.Threshold >= prev.Threshold ||
					!prev.Op.descending() && cur.Threshold <= prev.Threshold {
					return fmt.Errorf("tier %d (%s %v) is shadowed by tier %d (%s %v)",
						j, cur.Op, cur.Threshold, i, prev.Op, prev.Threshold)
				}
				continue
			}
			if overlaps(prev, cur) {
				return fmt.Errorf("tier %d (%s %v) overlaps tier %d (%s %v)",
					j, cur.Op, cur.Threshold, i, prev.Op, prev.Threshold)
			}
		}
	}
	return nil
}

// overlaps reports whether some value satisfies both a lower-bounded and an
// upper-bounded tier.
func overlaps[T any](a, b Tier[T]) bool {
	lower, upper := a, b
	if !lower.Op.descending() {
		lower, upper = b, a
	}
	if lower.Threshold != upper.Threshold {
		return lower.Threshold < upper.Threshold
	}
	return lower.Op == AtLeast && upper.Op == AtMost
}
