package fixpoint

// Seed is one starting value paired with one iteration map. Each seed is
// consumed by exactly one worker.
type Seed struct {
	// Point is the critical point the seed was derived from.
	Point float64 `json:"point"`
	// Start is Point shifted by two tolerances.
	Start float64 `json:"start"`
	// Map indexes the iteration map list.
	Map int `json:"map"`
}

// SeedSet is the output of GenerateSeeds.
type SeedSet struct {
	Seeds []Seed `json:"seeds"`
	// Retained are the critical points the seeds were built from.
	Retained []float64 `json:"retained"`
	// Fallback is set when no point passed the retain rule and the raw
	// critical points were used instead.
	Fallback bool `json:"fallback"`
}

// GenerateSeeds turns an analysis into seeds for maps iteration maps.
//
// A critical point is retained when the sign profile changes somewhere after
// it and the direction profile does too. With nothing retained every raw
// critical point is used. Each retained point p yields p-2*tol and p+2*tol
// for every map: first all minus-offset seeds, then all plus-offset seeds,
// each group ordered by point and then by map.
func GenerateSeeds(a *Analysis, maps int, tol float64) (*SeedSet, error) {
	set := &SeedSet{Retained: retainPoints(a)}
	if len(set.Retained) == 0 {
		set.Retained = append([]float64(nil), a.CriticalPoints...)
		set.Fallback = true
	}
	if len(set.Retained) == 0 {
		return nil, ErrNoStartingPoint
	}

	set.Seeds = make([]Seed, 0, 2*len(set.Retained)*maps)
	for _, offset := range []float64{-2 * tol, 2 * tol} {
		for _, p := range set.Retained {
			for m := 0; m < maps; m++ {
				set.Seeds = append(set.Seeds, Seed{Point: p, Start: p + offset, Map: m})
			}
		}
	}
	return set, nil
}

func retainPoints(a *Analysis) []float64 {
	var out []float64
	for i, p := range a.CriticalPoints {
		if i >= len(a.Signs) || !changesLater(a.Signs[i:]) {
			continue
		}
		// No direction data from i onwards does not block the point.
		if i < len(a.Directions) && !changesLater(a.Directions[i:]) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// changesLater reports whether any tag after the first differs from it.
func changesLater[T comparable](tags []T) bool {
	for _, t := range tags[1:] {
		if t != tags[0] {
			return true
		}
	}
	return false
}
