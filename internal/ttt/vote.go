package ttt

import (
	"encoding/json"
)

// Vote performs weighted majority voting over a set of attempts. Attempts
// are grouped by the deep-structural (keys sorted) JSON encoding of their
// output; each attempt's weight is 1 + 1000*trainingAccuracy; the winning
// group is the one with the greatest total weight; confidence is the
// winning group's weight over the sum of all weights.
func Vote(attempts []Attempt) (output any, confidence float64, ok bool) {
	if len(attempts) == 0 {
		return nil, 0, false
	}

	type group struct {
		output any
		weight float64
	}
	groups := make(map[string]*group)
	order := make([]string, 0)
	totalWeight := 0.0

	for _, a := range attempts {
		key, err := canonicalKey(a.Output)
		if err != nil {
			continue
		}
		weight := 1 + 1000*a.TrainingAccuracy
		totalWeight += weight
		if g, exists := groups[key]; exists {
			g.weight += weight
		} else {
			groups[key] = &group{output: a.Output, weight: weight}
			order = append(order, key)
		}
	}

	if len(order) == 0 {
		return nil, 0, false
	}

	// Iterate in first-seen order so ties keep the first group encountered.
	var winner *group
	for _, key := range order {
		g := groups[key]
		if winner == nil || g.weight > winner.weight {
			winner = g
		}
	}

	if totalWeight == 0 {
		return winner.output, 0, true
	}
	return winner.output, winner.weight / totalWeight, true
}

// canonicalKey produces a deep-structural, key-sorted JSON encoding of v so
// that equal values (regardless of map key order) group together.
func canonicalKey(v any) (string, error) {
	normalized, err := normalize(v)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// normalize round-trips v through JSON so that map[string]any keys sort
// consistently under encoding/json's default (alphabetical) key order, and
// so differing concrete numeric/struct types that marshal identically
// compare equal.
func normalize(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
