package saga

import "fmt"

// CompensationError is returned when a step failed and undoing the completed
// steps failed too. The system is left with counters that disagree with the
// ledger; both errors are kept so an operator can see what triggered the
// rollback and why the rollback did not finish.
type CompensationError struct {
	Saga            string
	Step            string
	Cause           error
	CompensationErr error
}

func (e *CompensationError) Error() string {
	return fmt.Sprintf("saga %s: step %s failed: %v; compensation failed: %v", e.Saga, e.Step, e.Cause, e.CompensationErr)
}

func (e *CompensationError) Unwrap() []error {
	return []error{e.Cause, e.CompensationErr}
}
