package engine

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/rbolet/every-player/internal/model"
)

// validateInput runs v's ozzo rule set and folds any failures into a single
// model.ValidationError keyed by field.
func validateInput(what string, v validation.Validatable) error {
	err := v.Validate()
	if err == nil {
		return nil
	}

	var fieldErrs validation.Errors
	if errors.As(err, &fieldErrs) {
		ve := &model.ValidationError{
			Code:    model.ValidationInvalidInput,
			Message: "invalid " + what,
			Fields:  make(map[string]string, len(fieldErrs)),
		}
		for field, fe := range fieldErrs {
			ve.Fields[field] = fe.Error()
			ve.Field = field
		}
		if len(ve.Fields) > 1 {
			ve.Field = ""
		}
		return ve
	}
	return &model.ValidationError{
		Code:    model.ValidationInvalidInput,
		Message: fmt.Sprintf("invalid %s: %v", what, err),
	}
}

// notBlank rejects strings that are empty after trimming. ozzo's Required
// accepts whitespace-only input.
var notBlank = validation.By(func(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})

// notBlankIfSet rejects a non-nil *string that is blank.
var notBlankIfSet = validation.By(func(value interface{}) error {
	p, _ := value.(*string)
	if p != nil && strings.TrimSpace(*p) == "" {
		return errors.New("cannot be blank")
	}
	return nil
})
