package domain

import "errors"

// UserError is an error whose Message is shown to end users as is. Error
// returns the short lowercase form used in logs and wrapping.
type UserError struct {
	Reason  string
	Message string
}

func (e *UserError) Error() string { return e.Reason }

// UserMessage returns the Message of the first UserError in err's chain, or
// err.Error() when there is none.
func UserMessage(err error) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return err.Error()
}
