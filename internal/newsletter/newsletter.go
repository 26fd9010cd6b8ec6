// Package newsletter validates sign-up addresses. Nothing is sent.
package newsletter

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Error is a validation failure with a message fit for the sign-up form.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Message }

var (
	ErrEmpty    = &Error{Code: "empty", Message: "Please enter your email address"}
	ErrNotEmail = &Error{Code: "not_email", Message: "Hmm, that doesn't look like an email address"}
	ErrInvalid  = &Error{Code: "invalid", Message: "Please enter a valid email address"}
)

// SuccessMessage is shown once an address passes validation.
const SuccessMessage = "Thanks for subscribing!"

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Rule errors carry the codes of the exported errors above.
var (
	ruleEmpty    = validation.NewError(ErrEmpty.Code, ErrEmpty.Message)
	ruleNotEmail = validation.NewError(ErrNotEmail.Code, ErrNotEmail.Message)
	ruleInvalid  = validation.NewError(ErrInvalid.Code, ErrInvalid.Message)
)

// hasAt rejects values without an @ before the pattern is tried.
func hasAt(value any) error {
	s, _ := value.(string)
	if !strings.Contains(s, "@") {
		return ruleNotEmail
	}
	return nil
}

// Validate checks email and returns one of ErrEmpty, ErrNotEmail or
// ErrInvalid, or nil.
func Validate(email string) error {
	err := validation.Validate(email,
		validation.Required.ErrorObject(ruleEmpty),
		validation.By(hasAt),
		validation.Match(emailPattern).ErrorObject(ruleInvalid),
	)
	if err == nil {
		return nil
	}

	var verr validation.Error
	if errors.As(err, &verr) {
		switch verr.Code() {
		case ErrEmpty.Code:
			return ErrEmpty
		case ErrNotEmail.Code:
			return ErrNotEmail
		case ErrInvalid.Code:
			return ErrInvalid
		}
	}
	return err
}
