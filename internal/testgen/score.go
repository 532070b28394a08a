package testgen

// Weights configures how ComprehensivenessScore combines its sub-metrics,
// treated as configuration rather than a hard-coded formula; these are the
// harness's defaults, overridable by callers that load weights from
// workspace configuration.
type Weights struct {
	VolumePerTest    float64 // points per generated test, capped by VolumeCap
	VolumeCap        float64
	AntiCheatBonus   float64 // awarded once if any anti_cheat test exists
	ParameterBonus   float64 // not applied by ComprehensivenessScoreWithWeights
	BalancePenaltyPerPoint float64 // subtracted per point of distribution deviation
}

// DefaultWeights are the harness's built-in scoring weights.
func DefaultWeights() Weights {
	return Weights{
		VolumePerTest:          0.15,
		VolumeCap:              6.0,
		AntiCheatBonus:         1.5,
		ParameterBonus:         1.0,
		BalancePenaltyPerPoint: 3.0,
	}
}

// ComprehensivenessScore combines test volume, anti-cheat coverage, and
// balance deviation from IdealDistribution into a single 0-10 score. It
// sees only the tests, not the environment's discovered file structure, so
// no parameter-discovery bonus is added.
func ComprehensivenessScore(tests []GeneratedTest) float64 {
	return ComprehensivenessScoreWithWeights(tests, DefaultWeights())
}

func ComprehensivenessScoreWithWeights(tests []GeneratedTest, w Weights) float64 {
	if len(tests) == 0 {
		return 0
	}

	volume := float64(len(tests)) * w.VolumePerTest
	if volume > w.VolumeCap {
		volume = w.VolumeCap
	}

	hasAntiCheat := false
	counts := make(map[Category]int)
	for _, t := range tests {
		counts[t.Category]++
		if t.Category == CategoryAntiCheat {
			hasAntiCheat = true
		}
	}
	antiCheat := 0.0
	if hasAntiCheat {
		antiCheat = w.AntiCheatBonus
	}

	deviation := 0.0
	total := float64(len(tests))
	for category, ideal := range IdealDistribution {
		actual := float64(counts[category]) / total
		d := actual - ideal
		if d < 0 {
			d = -d
		}
		deviation += d
	}
	balancePenalty := deviation * w.BalancePenaltyPerPoint

	score := volume + antiCheat - balancePenalty
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return score
}
