package credit

import (
	"fmt"
	"math"
)

// Factor couples a scoring attribute with its weight table and the narration
// shown to applicants and officers. Contribution and narration live in one
// record so a factor cannot be scored without being explained.
type Factor struct {
	Name    string
	Measure func(ScoringInput) float64
	Table   TierTable[int]

	// Reason is reported when the factor moved the score in the applicant's favour.
	Reason string
	// Recommendation is reported when it counted against the applicant.
	Recommendation string
}

// Contribution is a factor's effect on one assessment. Value is -1 when the
// measure is undefined, such as a burden ratio without income.
type Contribution struct {
	Factor    string  `json:"factor"`
	Value     float64 `json:"value"`
	Delta     int     `json:"delta"`
	Favorable bool    `json:"favorable"`
}

func (f Factor) contribute(in ScoringInput, favorable func(int) bool) Contribution {
	value := f.Measure(in)
	delta := f.Table.Lookup(value)
	return Contribution{
		Factor:    f.Name,
		Value:     finite(value),
		Delta:     delta,
		Favorable: delta != 0 && favorable(delta),
	}
}

// validate checks the table ordering and that every outcome the table can
// produce has narration for it.
func (f Factor) validate(favorable func(int) bool) error {
	if f.Name == "" || f.Measure == nil {
		return fmt.Errorf("factor %q: name and measure are required", f.Name)
	}
	if err := f.Table.Validate(); err != nil {
		return fmt.Errorf("factor %s: %w", f.Name, err)
	}
	for _, delta := range f.Table.Values() {
		switch {
		case delta == 0:
		case favorable(delta) && f.Reason == "":
			return fmt.Errorf("factor %s: delta %+d has no reason text", f.Name, delta)
		case !favorable(delta) && f.Recommendation == "":
			return fmt.Errorf("factor %s: delta %+d has no recommendation text", f.Name, delta)
		}
	}
	return nil
}

// finite keeps non-finite measures (an undefined ratio) out of serialized output.
func finite(v float64) float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return -1
	}
	return v
}

func boolMeasure(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
