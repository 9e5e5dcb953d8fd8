package attendance

// ValidationError blocks a submission that is locally invalid: no class or
// section selected, empty roster, or nothing to submit. Fully recoverable by
// correcting the selection.
type ValidationError struct {
	Title   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// AuthorizationError blocks a submission by a staff member who is not
// assigned to the selected section.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string {
	return e.Message
}
