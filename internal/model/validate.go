package model

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Iron-Ham/mindnode/internal/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	_ = validate.RegisterValidation("nodetype", func(fl validator.FieldLevel) bool {
		return NodeType(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("connstyle", func(fl validator.FieldLevel) bool {
		return ConnectionStyle(fl.Field().String()).Valid()
	})
	_ = validate.RegisterValidation("handle", func(fl validator.FieldLevel) bool {
		return Handle(fl.Field().String()).Valid()
	})

	// Report JSON field names so messages match the document the user sees.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
}

// Validate checks v against its struct tags. Failures are returned as a
// *errors.ValidationError naming the first offending field; the message lists
// every failure.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return errors.NewValidationError(err.Error())
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fieldMessage(fe))
	}

	first := fieldErrs[0]
	return errors.NewValidationError(strings.Join(msgs, "; ")).
		WithField(fieldPath(first)).
		WithValue(first.Value())
}

// fieldPath strips the root type name from the namespace: "Board.settings.gridSize"
// becomes "settings.gridSize".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	field := fieldPath(fe)
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color", field)
	case "nodetype":
		return fmt.Sprintf("%s must be a node type", field)
	case "status":
		return fmt.Sprintf("%s must be one of: todo in-progress complete", field)
	case "connstyle":
		return fmt.Sprintf("%s must be one of: bezier straight orthogonal", field)
	case "handle":
		return fmt.Sprintf("%s must be a side (top, right, bottom, left) with an optional -source suffix", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
