package handler

import (
	"github.com/prognoshealth/lambdarest/httperr"
	"github.com/prognoshealth/lambdarest/proxy"
)

// Operation is what a restful resource is asked to do.
type Operation int

const (
	RetrieveSingle Operation = iota
	Search
	Create
	Update
	Delete
	Preflight
)

var operationNames = [...]string{
	"retrieveSingle",
	"search",
	"create",
	"update",
	"delete",
	"preflight",
}

func (op Operation) String() string {
	if op < RetrieveSingle || int(op) >= len(operationNames) {
		return "unknown"
	}
	return operationNames[op]
}

// Resolve maps a verb to an operation depending on whether the request
// addresses a single resource or the collection. Combinations without an
// operation produce a MethodNotAllowedError.
func Resolve(method proxy.HttpMethod, single bool) (Operation, error) {
	switch method {
	case proxy.GET:
		if single {
			return RetrieveSingle, nil
		}
		return Search, nil
	case proxy.POST:
		if !single {
			return Create, nil
		}
	case proxy.PUT:
		if single {
			return Update, nil
		}
	case proxy.DELETE:
		if single {
			return Delete, nil
		}
	case proxy.OPTIONS:
		return Preflight, nil
	}

	return 0, httperr.NewMethodNotAllowedError()
}
