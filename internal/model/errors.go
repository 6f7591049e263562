package model

// ValidationError is a user-facing rejection: the operation is refused
// but the surrounding state survives so the user can retry. The message
// is what ends up in a transient notice.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalid(msg string) error { return &ValidationError{Msg: msg} }
