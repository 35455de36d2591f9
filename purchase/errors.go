package purchase

import (
	"fmt"

	"github.com/warp/vending-engine/generic"
)

// Saga steps, as reported in DownstreamError.Step.
const (
	StepPrice  = "price"
	StepStock  = "stock"
	StepSettle = "settle"
)

// DownstreamError reports the step at which a collaborator failed. It unwraps
// to both the collaborator's own error and generic.ErrDownstream, so callers
// can still match e.g. bank.ErrChangeUnavailable.
type DownstreamError struct {
	TransactionID generic.TransactionID
	Step          string
	Err           error
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("purchase %s: %s step failed: %v", e.TransactionID, e.Step, e.Err)
}

func (e *DownstreamError) Unwrap() []error {
	return []error{e.Err, generic.ErrDownstream}
}
