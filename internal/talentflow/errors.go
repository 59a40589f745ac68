package talentflow

import "errors"

// Error taxonomy shared by the store, the auth service and the gateway.
// Callers match with errors.Is; the wrapped message carries the detail.
var (
	// ErrNotFound means an id or lookup key has no match.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a unique constraint would be violated, or the
	// caller's view of a record is stale.
	ErrConflict = errors.New("conflict")

	// ErrValidation means a required field is missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrSimulatedFault is the artificial failure produced by a FaultPolicy.
	ErrSimulatedFault = errors.New("simulated fault")

	// ErrStorage means the underlying store failed.
	ErrStorage = errors.New("storage failure")

	// ErrInvalidCredentials means a login did not match any user.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
