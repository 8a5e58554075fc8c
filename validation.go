package goEnroll

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// defaultEmailValidator is the stock [EmailValidator]: a syntactically valid
// address between 6 and 100 characters.
type defaultEmailValidator struct{}

func (defaultEmailValidator) IsValid(email string) bool {
	err := validation.Validate(email,
		validation.Required,
		validation.Length(6, 100),
		is.Email,
	)
	return err == nil
}
