package workflow

import "github.com/mmdatafocus/insights_backend/models"

// Outcome tags a computed figure with how it was obtained, so fallback
// reporting in the envelope is structural rather than a manually appended
// string that can drift from the actual branch taken.
type Outcome[T any] struct {
	Value    T
	Fallback bool
	Reason   string
}

func Primary[T any](value T) Outcome[T] {
	return Outcome[T]{Value: value}
}

func FallbackValue[T any](value T, reason string) Outcome[T] {
	return Outcome[T]{Value: value, Fallback: true, Reason: reason}
}

// Note records the fallback reason as an assumption. Primary outcomes add
// nothing.
func (o Outcome[T]) Note(env *models.Envelope) {
	if o.Fallback && o.Reason != "" {
		env.AddAssumption("%s", o.Reason)
	}
}
