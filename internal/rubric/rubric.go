// Package rubric defines the seven burnout dimensions a check-in is mapped
// onto and the scoring function that turns mapped answers into a 0..100
// burnout score.
package rubric

import (
	"errors"
	"fmt"
)

// Answer scale bounds. 1 is "Not at all", 5 is "Extremely".
const (
	MinAnswer = 1
	MaxAnswer = 5
)

// ErrOutOfRange is returned when a mapped answer is outside [MinAnswer, MaxAnswer].
var ErrOutOfRange = errors.New("answer out of range")

// Polarity describes how a raw answer relates to wellbeing.
type Polarity int

const (
	// HigherIsWorse dimensions contribute their raw value to the score.
	HigherIsWorse Polarity = iota
	// HigherIsBetter dimensions are inverted (6 - v) before summing.
	HigherIsBetter
)

// Dimension is one of the seven canonical burnout areas.
type Dimension struct {
	Key      string // q1..q7
	Name     string
	Question string // canonical wording of the area
	Polarity Polarity
}

// Dimensions lists the rubric in field order q1..q7.
var Dimensions = [7]Dimension{
	{Key: "q1", Name: "Exhaustion", Question: "How mentally drained do you feel?", Polarity: HigherIsWorse},
	{Key: "q2", Name: "Enjoyment", Question: "How much did you enjoy your work today?", Polarity: HigherIsBetter},
	{Key: "q3", Name: "Productivity", Question: "How productive did you feel?", Polarity: HigherIsBetter},
	{Key: "q4", Name: "Emotional distance", Question: "How emotionally distant do you feel from others?", Polarity: HigherIsWorse},
	{Key: "q5", Name: "Rest", Question: "How much quality rest did you get?", Polarity: HigherIsBetter},
	{Key: "q6", Name: "Control", Question: "How much control do you feel you have over your work?", Polarity: HigherIsBetter},
	{Key: "q7", Name: "Accomplishment", Question: "Do you feel a sense of accomplishment from your work?", Polarity: HigherIsBetter},
}

// Answers holds the seven mapped answers of a completed check-in.
type Answers struct {
	Q1 int `json:"q1"`
	Q2 int `json:"q2"`
	Q3 int `json:"q3"`
	Q4 int `json:"q4"`
	Q5 int `json:"q5"`
	Q6 int `json:"q6"`
	Q7 int `json:"q7"`
}

// FromValues builds Answers from values in q1..q7 order.
func FromValues(v [7]int) Answers {
	return Answers{Q1: v[0], Q2: v[1], Q3: v[2], Q4: v[3], Q5: v[4], Q6: v[5], Q7: v[6]}
}

// Values returns the answers in q1..q7 order.
func (a Answers) Values() [7]int {
	return [7]int{a.Q1, a.Q2, a.Q3, a.Q4, a.Q5, a.Q6, a.Q7}
}

// Get returns the answer for dimension i, 0-based.
func (a Answers) Get(i int) int {
	return a.Values()[i]
}

// Validate checks every field is within the answer scale.
func (a Answers) Validate() error {
	var errs []error
	for i, v := range a.Values() {
		if v < MinAnswer || v > MaxAnswer {
			errs = append(errs, fmt.Errorf("%w: %s = %d", ErrOutOfRange, Dimensions[i].Key, v))
		}
	}
	return errors.Join(errs...)
}
