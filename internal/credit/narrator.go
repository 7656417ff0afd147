package credit

// Narrate turns contributions into reasons (favorable factors) and
// recommendations (unfavorable ones), keeping factor order. Neutral factors
// produce neither.
func Narrate(p Profile, contributions []Contribution) (reasons, recommendations []string) {
	byName := make(map[string]Factor, len(p.weights().Factors))
	for _, f := range p.weights().Factors {
		byName[f.Name] = f
	}

	reasons = []string{}
	recommendations = []string{}
	for _, c := range contributions {
		f, ok := byName[c.Factor]
		if !ok || c.Delta == 0 {
			continue
		}
		if c.Favorable {
			reasons = append(reasons, f.Reason)
		} else {
			recommendations = append(recommendations, f.Recommendation)
		}
	}
	return reasons, recommendations
}
