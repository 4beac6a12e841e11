package registration

import "fmt"

// ValidationError reports the first unmet submission requirement. Message is
// meant to be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
	// Err optionally names the condition, e.g. store.ErrTeamNameTaken.
	Err error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// CapacityError is returned when a member would exceed the team size limit.
type CapacityError struct {
	Limit int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("maximum %d members per team (including leader)", e.Limit+1)
}
