package domain

import "fmt"

// Step is one stage of a courier's daily workflow.
type Step string

const (
	StepInput       Step = "input"
	StepScan        Step = "scan"
	StepDelivery    Step = "delivery"
	StepPending     Step = "pending"
	StepPerformance Step = "performance"
)

var stepOrder = []Step{StepInput, StepScan, StepDelivery, StepPending, StepPerformance}

// Steps returns the workflow stages in order.
func Steps() []Step {
	out := make([]Step, len(stepOrder))
	copy(out, stepOrder)
	return out
}

// ParseStep converts a stored step name back into a Step.
func ParseStep(s string) (Step, error) {
	for _, st := range stepOrder {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("parse step: unknown step %q", s)
}

// Index returns the position of the step in the workflow, or -1.
func (s Step) Index() int {
	for i, st := range stepOrder {
		if st == s {
			return i
		}
	}
	return -1
}

func (s Step) String() string { return string(s) }
