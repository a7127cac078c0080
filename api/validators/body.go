package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// Decimals validate as their float value so gt/gte/lte apply to money fields.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("money", validateMoney)
	return v
}

// validateMoney accepts positive amounts with at most two decimal places.
func validateMoney(fl validator.FieldLevel) bool {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	if !ok {
		if f, isFloat := fl.Field().Interface().(float64); isFloat {
			d = decimal.NewFromFloat(f)
		} else {
			return false
		}
	}
	return d.IsPositive() && d.Equal(d.Round(2))
}

// DecodeJSONBody decodes exactly one JSON object into dest, refusing unknown
// fields and trailing data, then runs the struct's validate tags.
func DecodeJSONBody(r *http.Request, dest any) error {
	if r.Body == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body required")
	}
	defer func() { _, _ = io.Copy(io.Discard, r.Body) }()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return pkgerrors.New(pkgerrors.CodeValidation, "request body required")
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").
			WithDetails(map[string]any{"error": err.Error()})
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return pkgerrors.New(pkgerrors.CodeValidation, "request body must hold a single json object")
	}
	if err := validate.Struct(dest); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func fieldErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		details[fieldPath(fe)] = describe(fe)
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
}

// fieldPath drops the root struct name: "lines[0].quantity".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "uuid":
		return "must be a uuid"
	case "url":
		return "must be a url"
	case "money":
		return "must be a positive amount with at most two decimals"
	}
	return "is invalid"
}
