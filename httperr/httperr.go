// Package httperr defines the closed set of failures that can reach an api
// gateway client. Every failure carries a fixed HTTP status and an ordered list
// of detail items that are rendered as the response body.
package httperr

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// Kind is an enum of the failure kinds a client can receive.
type Kind int

const (
	Validation Kind = iota
	Unauthorized
	Forbidden
	NotFound
	MethodNotAllowed
	InternalServer
)

var kindNames = [...]string{
	"ValidationError",
	"UnauthorizedError",
	"ForbiddenError",
	"NotFoundError",
	"MethodNotAllowedError",
	"InternalServerError",
}

var kindStatus = [...]int{
	http.StatusBadRequest,
	http.StatusUnauthorized,
	http.StatusForbidden,
	http.StatusNotFound,
	http.StatusMethodNotAllowed,
	http.StatusInternalServerError,
}

// String returns the semantic name of the kind, e.g. ValidationError.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "UnknownError"
	}
	return kindNames[k]
}

// Status returns the HTTP status code bound to the kind.
func (k Kind) Status() int {
	if k < 0 || int(k) >= len(kindStatus) {
		return http.StatusInternalServerError
	}
	return kindStatus[k]
}

// Detail describes a single reason for a failure.
type Detail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Path    string `json:"path"`
}

// Error is a failure that maps onto a client facing HTTP response.
type Error struct {
	Kind    Kind
	Status  int
	Details []Detail
}

// Error returns the kind name.
func (e *Error) Error() string {
	return e.Kind.String()
}

// Body is the JSON payload sent to the client.
func (e *Error) Body() ([]byte, error) {
	details := e.Details
	if details == nil {
		details = []Detail{}
	}

	b, err := json.Marshal(struct {
		Errors []Detail `json:"errors"`
	}{details})
	if err != nil {
		return nil, errors.Wrapf(err, "failed marshalling %s body", e.Kind)
	}

	return b, nil
}

// New returns an Error of the given kind. When no details are supplied a single
// detail naming the kind is used.
func New(kind Kind, details ...Detail) *Error {
	if len(details) == 0 {
		details = []Detail{{Message: kind.String(), Type: kind.String()}}
	}

	return &Error{
		Kind:    kind,
		Status:  kind.Status(),
		Details: details,
	}
}

// NewValidationError returns a 400 error with one detail per failed check, in
// the order given.
func NewValidationError(details ...Detail) *Error {
	return New(Validation, details...)
}

// NewUnauthorizedError returns a 401 error.
func NewUnauthorizedError(details ...Detail) *Error {
	return New(Unauthorized, details...)
}

// NewForbiddenError returns a 403 error.
func NewForbiddenError(details ...Detail) *Error {
	return New(Forbidden, details...)
}

// NewNotFoundError returns a 404 error.
func NewNotFoundError(details ...Detail) *Error {
	return New(NotFound, details...)
}

// NewMethodNotAllowedError returns a 405 error.
func NewMethodNotAllowedError(details ...Detail) *Error {
	return New(MethodNotAllowed, details...)
}

// NewInternalServerError returns a 500 error whose only detail points at the
// log entry holding the real cause.
func NewInternalServerError(reference interface{}) *Error {
	ref, err := json.Marshal(reference)
	if err != nil {
		ref = []byte(`null`)
	}

	return New(InternalServer, Detail{
		Message: "Error log reference :\n" + string(ref),
		Type:    "Internal Server Error",
	})
}

// From maps any error onto an Error. Errors that already are (or wrap) an
// Error are returned as is. Anything else becomes an internal server error
// whose reference is produced by the reference func; the original message is
// never exposed.
func From(err error, reference func() interface{}) *Error {
	var herr *Error
	if errors.As(err, &herr) && herr != nil {
		return herr
	}

	var ref interface{}
	if reference != nil {
		ref = reference()
	}

	return NewInternalServerError(ref)
}

// Is returns true when err is, or wraps, an Error of the given kind.
func Is(err error, kind Kind) bool {
	var herr *Error
	return errors.As(err, &herr) && herr != nil && herr.Kind == kind
}
