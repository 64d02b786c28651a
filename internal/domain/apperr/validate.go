package apperr

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateStruct checks the validate tags on s. The first failing field is
// mapped through byField to a package sentinel; unmapped fields fall back
// to a generic ErrValidation.
func ValidateStruct(s any, byField map[string]error) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	fe := verrs[0]
	if sentinel, ok := byField[fe.Field()]; ok {
		return sentinel
	}
	return fmt.Errorf("%w: field %s failed %s", ErrValidation, fe.Field(), fe.Tag())
}
