// Package wizard implements the six-step analysis workflow state machine:
// upload → healthcheck → variables → model → analysis → results. The machine
// is cyclic, not terminating: results offers a transition back to upload that
// clears accumulated results and restarts the cycle.
package wizard

import (
	"ncsresearch/internal/errors"
)

// Step names one stage of the analysis workflow
type Step string

const (
	StepUpload      Step = "upload"
	StepHealthCheck Step = "healthcheck"
	StepVariables   Step = "variables"
	StepModel       Step = "model"
	StepAnalysis    Step = "analysis"
	StepResults     Step = "results"
)

// steps is the total order of the workflow; no branching exists
var steps = []Step{
	StepUpload,
	StepHealthCheck,
	StepVariables,
	StepModel,
	StepAnalysis,
	StepResults,
}

// Steps returns the workflow order
func Steps() []Step {
	out := make([]Step, len(steps))
	copy(out, steps)
	return out
}

// IsValid reports whether s names a workflow step
func (s Step) IsValid() bool {
	return s.index() >= 0
}

func (s Step) index() int {
	for i, step := range steps {
		if step == s {
			return i
		}
	}
	return -1
}

// Next returns the step after s, or s itself when s is the last step
func (s Step) Next() Step {
	i := s.index()
	if i < 0 || i == len(steps)-1 {
		return s
	}
	return steps[i+1]
}

// Prev returns the step before s, or s itself when s is the first step
func (s Step) Prev() Step {
	i := s.index()
	if i <= 0 {
		return s
	}
	return steps[i-1]
}

// Before reports whether s comes strictly before other in the workflow order
func (s Step) Before(other Step) bool {
	return s.index() < other.index()
}

// Progress is the snapshot of session state the forward gates inspect
type Progress struct {
	HasHealthCheck   bool
	VariableCount    int
	VariableIssues   int
	ModelProblems    int
	SelectedAnalyses int
	ResultCount      int
}

// Advance validates the forward transition out of current and returns the
// next step. Forward movement is driven by explicit user action and gated by
// per-step validation; skipping steps is never possible.
func Advance(current Step, p Progress) (Step, error) {
	if !current.IsValid() {
		return current, errors.InvalidInput("unknown step " + string(current))
	}
	if current == StepResults {
		return current, errors.InvalidTransition(string(current), "forward")
	}

	switch current {
	case StepUpload:
		if !p.HasHealthCheck {
			return current, errors.ValidationError("a dataset must be uploaded before continuing")
		}
	case StepVariables:
		if p.VariableCount == 0 {
			return current, errors.ValidationError("at least one variable is required before model building")
		}
		if p.VariableIssues > 0 {
			return current, errors.ValidationError("variable validation must pass before model building")
		}
	case StepModel:
		if p.ModelProblems > 0 {
			return current, errors.ValidationError("model validation must pass before analysis selection")
		}
	case StepAnalysis:
		if p.ResultCount == 0 {
			return current, errors.ValidationError("run the analysis before viewing results")
		}
	}

	return current.Next(), nil
}

// Back returns the step before current. Backward transitions are always
// permitted and do not discard later-step state; that state is only replaced
// when the later step is re-entered and re-submitted.
func Back(current Step) (Step, error) {
	if !current.IsValid() {
		return current, errors.InvalidInput("unknown step " + string(current))
	}
	if current == StepUpload {
		return current, errors.InvalidTransition(string(current), "back")
	}
	return current.Prev(), nil
}

// Restart is the cyclic transition from results back to upload. The caller
// clears accumulated results when taking it.
func Restart(current Step) (Step, error) {
	if current != StepResults {
		return current, errors.InvalidTransition(string(current), string(StepUpload))
	}
	return StepUpload, nil
}

// CanRunAnalysis reports whether the submit control of the analysis step is
// enabled: at least one analysis type selected from the catalog.
func CanRunAnalysis(current Step, p Progress) bool {
	return current == StepAnalysis && p.SelectedAnalyses > 0
}
