package domain

// Choice represents the learner's self-reported recall outcome for one card.
type Choice string

// Possible review choice values.
const (
	ChoiceKnow    Choice = "know"
	ChoiceHint    Choice = "hint"
	ChoiceUnknown Choice = "unknown"
)

// IsValid reports whether the choice is one of the three recognized values.
func (c Choice) IsValid() bool {
	switch c {
	case ChoiceKnow, ChoiceHint, ChoiceUnknown:
		return true
	}
	return false
}

// IsRecalled reports whether the choice counts as a successful recall.
// Hint deliberately counts as recalled even though it lowers the ease
// factor; the two effects are independent.
func (c Choice) IsRecalled() bool {
	return c == ChoiceKnow || c == ChoiceHint
}
