// Package service contains the business rules that sit in front of the
// backend gateways.
//
// THE LAYERS:
//
//	Handler (HTTP layer)     → parses forms, renders views
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Gateway (Backend layer)  → talks HTTP/JSON to the external systems
//
// WHY A SEPARATE SERVICE LAYER?
// Input validation must happen before any backend call and must produce the
// same messages whichever view triggered it. Handlers only know about HTTP;
// gateways only know about the wire. The rules live here, testable with
// plain function calls and hand-written fakes.
//
// DEPENDENCY INJECTION:
// Each service takes small interfaces (AuthBackend, SessionStore, ...) and
// never the concrete gateway types, so tests pass fakes and main.go passes
// the real thing.
package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/mentorlink/internal/apperror"
)

// validate is the shared validator instance. Field names in errors are the
// json names so messages read like the form labels.
var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})

	// notblank rejects strings that are empty after trimming spaces.
	_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
}

// validateStruct runs the validator and turns the first failure into an
// apperror validation error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("service: validating input: %w", err)
	}

	fe := verrs[0]
	field := fe.Field()
	label := strings.ReplaceAll(field, "_", " ")

	switch fe.Tag() {
	case "notblank", "required":
		return apperror.ValidationFailed(field, label+" is required")
	case "url":
		return apperror.ValidationFailed(field, label+" must be a valid URL")
	case "eqfield":
		return apperror.ValidationFailed(field, "the two passwords do not match")
	default:
		return apperror.ValidationFailed(field, label+" is invalid")
	}
}

// trimAll trims every string field reachable through the given pointers.
func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}
