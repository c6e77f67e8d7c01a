package models

import "fmt"

// Envelope is the uniform decision-output contract every engine returns.
// All four fields are always present, even when empty; Result is
// objective-specific, Evidence lists the concrete figures behind it,
// Assumptions lists heuristics/defaults applied, Coverage states which
// periods/branches had real data versus were defaulted or skipped.
type Envelope struct {
	Result      any            `json:"result"`
	Evidence    map[string]any `json:"evidence"`
	Assumptions []string       `json:"assumptions"`
	Coverage    []string       `json:"coverage"`
}

func NewEnvelope(result any) *Envelope {
	return &Envelope{
		Result:      result,
		Evidence:    map[string]any{},
		Assumptions: []string{},
		Coverage:    []string{},
	}
}

func (e *Envelope) SetEvidence(key string, value any) {
	e.Evidence[key] = value
}

func (e *Envelope) AddAssumption(format string, args ...any) {
	e.Assumptions = append(e.Assumptions, fmt.Sprintf(format, args...))
}

func (e *Envelope) AddCoverage(format string, args ...any) {
	e.Coverage = append(e.Coverage, fmt.Sprintf(format, args...))
}
