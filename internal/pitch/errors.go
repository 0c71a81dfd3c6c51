package pitch

import "fmt"

// InvalidInputError indicates a structurally invalid input reached the core:
// an empty sample buffer, non-finite samples, or an unsupported sample rate.
// The core does not attempt repair; the caller decides how to surface it.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s", e.Reason)
}

// DomainViolationError indicates a stage produced a value that violates an
// invariant of the data model (duration <= 0, midi out of [0,127],
// confidence out of [0,1]). It signals a bug in the stage that produced it;
// callers should treat it as fatal for the run rather than retry.
type DomainViolationError struct {
	Reason string
}

func (e *DomainViolationError) Error() string {
	return fmt.Sprintf("domain violation: %s", e.Reason)
}
