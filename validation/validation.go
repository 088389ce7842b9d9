// Package validation evaluates client supplied values against declarative
// rules expressed as go-playground/validator tags.
package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/prognoshealth/lambdarest/httperr"
)

// Schema maps a field name to a validator tag expression, e.g.
//
//	validation.Schema{
//		"limit":  "omitempty,numeric,min=1",
//		"filter": "required",
//	}
//
// Field names are matched case insensitively since query string keys are lower
// cased when a request is built. Keys that are not part of the schema are
// rejected.
type Schema map[string]string

// UnknownKeyType is the detail type reported for keys missing from a Schema.
const UnknownKeyType = "object.allowUnknown"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report struct fields by their json name so paths match the payload.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})

	return v
}

// Evaluate checks data against the schema and returns every violation found.
// Schema fields are checked in ascending name order followed by unknown keys,
// also in ascending order. An empty result means the data is valid.
//
// Fields absent from data are checked as the empty string, so "required"
// fails and "omitempty,..." passes.
func Evaluate(data map[string]string, schema Schema) []httperr.Detail {
	var details []httperr.Detail

	schema = lowerSchema(schema)

	for _, field := range sortedKeys(schema) {
		tag := schema[field]
		if tag == "" {
			continue
		}

		err := validateVar(data[field], tag)
		if err == nil {
			continue
		}

		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			details = append(details, httperr.Detail{
				Message: fmt.Sprintf("%q has an invalid rule %q", field, tag),
				Type:    "schema.invalid",
				Path:    field,
			})
			continue
		}

		for _, fe := range fieldErrs {
			details = append(details, fieldDetail(field, fe))
		}
	}

	for _, key := range sortedKeys(data) {
		if _, ok := schema[key]; ok {
			continue
		}

		details = append(details, httperr.Detail{
			Message: fmt.Sprintf("%q is not allowed", key),
			Type:    UnknownKeyType,
			Path:    key,
		})
	}

	return details
}

// validateVar runs a single tag expression. validator panics on tags it does
// not know, that is reported as an error instead.
func validateVar(value, tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("invalid rule %q: %v", tag, r)
		}
	}()

	return validate.Var(value, tag)
}

func lowerSchema(schema Schema) Schema {
	out := make(Schema, len(schema))
	for field, tag := range schema {
		out[strings.ToLower(field)] = tag
	}
	return out
}

// Struct validates v using its `validate` struct tags.
func Struct(v interface{}) []httperr.Detail {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []httperr.Detail{{
			Message: err.Error(),
			Type:    "schema.invalid",
		}}
	}

	details := make([]httperr.Detail, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		details = append(details, fieldDetail(namespacePath(fe.Namespace()), fe))
	}

	return details
}

func fieldDetail(path string, fe validator.FieldError) httperr.Detail {
	rule := fe.Tag()
	if fe.Param() != "" {
		rule += "=" + fe.Param()
	}

	return httperr.Detail{
		Message: fmt.Sprintf("%q failed on the '%s' rule", path, rule),
		Type:    fe.Tag(),
		Path:    path,
	}
}

// namespacePath drops the root struct name, Payload.address.city => address.city.
func namespacePath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
