package rubric

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

const (
	minSum = 7 * MinAnswer
	maxSum = 7 * MaxAnswer
)

// Score computes the normalized burnout score round((sum-7)/28*100), where
// sum adds the raw value of higher-is-worse dimensions and 6-v of the
// others. Rounding is half away from zero, done in integer arithmetic.
func Score(a Answers) (int, error) {
	if err := a.Validate(); err != nil {
		return 0, err
	}
	return scoreSum(weightedSum(a)), nil
}

// MustScore is Score for answers already known to be valid.
func MustScore(a Answers) int {
	s, err := Score(a)
	if err != nil {
		panic(err)
	}
	return s
}

func weightedSum(a Answers) int {
	sum := 0
	for i, v := range a.Values() {
		if Dimensions[i].Polarity == HigherIsBetter {
			v = MinAnswer + MaxAnswer - v
		}
		sum += v
	}
	return sum
}

// scoreSum maps a sum in [7,35] onto [0,100]. For non-negative n,
// (2n + d) / 2d is n/d rounded half up.
func scoreSum(sum int) int {
	span := maxSum - minSum
	return (2*100*(sum-minSum) + span) / (2 * span)
}

// Band is a coarse reading of a score.
type Band string

const (
	BandLow      Band = "low"
	BandModerate Band = "moderate"
	BandHigh     Band = "high"
)

// BandOf classifies a score into thirds of the scale.
func BandOf(score int) Band {
	switch {
	case score < 34:
		return BandLow
	case score < 67:
		return BandModerate
	default:
		return BandHigh
	}
}
