package handler

import (
	"github.com/prognoshealth/lambdarest/httperr"
)

// Resource implements the operations of a restful endpoint.
type Resource interface {
	// IsSingleResource reports whether the request addresses one item, e.g.
	// /widgets/{id}, rather than the collection.
	IsSingleResource(inv *Invocation) bool

	RetrieveSingle(inv *Invocation) error
	Search(inv *Invocation) error
	Create(inv *Invocation) error
	Update(inv *Invocation) error
	Delete(inv *Invocation) error
}

// Preflighter is implemented by resources answering OPTIONS themselves.
type Preflighter interface {
	Preflight(inv *Invocation) error
}

// Restful dispatches each invocation to the resource operation matching its
// verb. Verbs with no operation produce a MethodNotAllowedError.
func Restful(resource Resource) Handler {
	return HandlerFunc(func(inv *Invocation) error {
		single := resource.IsSingleResource(inv)

		method, ok := inv.Request.HttpMethod()
		if !ok {
			return httperr.NewMethodNotAllowedError()
		}

		op, err := Resolve(method, single)
		if err != nil {
			return err
		}

		switch op {
		case RetrieveSingle:
			return resource.RetrieveSingle(inv)
		case Search:
			return resource.Search(inv)
		case Create:
			return resource.Create(inv)
		case Update:
			return resource.Update(inv)
		case Delete:
			return resource.Delete(inv)
		}

		if p, ok := resource.(Preflighter); ok {
			return p.Preflight(inv)
		}

		inv.Response.Send()
		return nil
	})
}
