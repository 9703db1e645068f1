package c4

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// modelValidate checks struct tags on model types. Field names in errors
// use the json tag so messages match what callers sent.
var modelValidate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateElement checks required fields and the descriptor against the
// diagram type. Sequence markers only need a title.
func ValidateElement(e *Element, dt DiagramType) error {
	if e.IsMarker() {
		if dt != DiagramSequence {
			return Invalid("kind", fmt.Sprintf("%s markers only exist in sequence diagrams", e.Kind))
		}
		if strings.TrimSpace(e.Title) == "" && (e.Kind == KindDividerStart || e.Kind == KindGroupStart) {
			return Invalid("title", "is required")
		}
		return nil
	}

	if err := structErr(modelValidate.Struct(e)); err != nil {
		return err
	}
	if err := e.Descriptor.Validate(dt); err != nil {
		return err
	}
	if e.Descriptor.RequiresTechnology() && strings.TrimSpace(e.Technology) == "" {
		return Invalid("technology", fmt.Sprintf("is required for %s elements", e.Descriptor.BaseType))
	}
	return nil
}

// ValidateRelationship checks the relationship's own fields. Endpoint
// resolution is the aggregate's job.
func ValidateRelationship(r *Relationship) error {
	return structErr(modelValidate.Struct(r))
}

// ValidateProject checks required project fields.
func ValidateProject(p *Project) error {
	return structErr(modelValidate.Struct(p))
}

// structErr turns the first validator failure into a ValidationError.
func structErr(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Invalid("", err.Error())
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return Invalid(fe.Field(), "is required")
	case "max":
		return Invalid(fe.Field(), fmt.Sprintf("must be at most %s characters", fe.Param()))
	case "oneof":
		return Invalid(fe.Field(), fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", ")))
	default:
		return Invalid(fe.Field(), fmt.Sprintf("failed %q check", fe.Tag()))
	}
}
