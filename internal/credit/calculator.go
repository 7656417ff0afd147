package credit

// Calculate sums the profile's base score and every factor contribution, then
// clamps the total to the profile range. Contributions are returned in factor order.
func Calculate(p Profile, in ScoringInput) (int, []Contribution) {
	w := p.weights()
	total := w.Base
	contributions := make([]Contribution, 0, len(w.Factors))
	for _, f := range w.Factors {
		c := f.contribute(in, p.favorable)
		total += c.Delta
		contributions = append(contributions, c)
	}
	return w.Bounds.Clamp(total), contributions
}
