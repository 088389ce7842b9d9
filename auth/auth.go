// Package auth resolves who issued a proxy request and decides whether they
// may proceed. Identification always runs before authorization and a failed
// identification never reaches the authorization step.
package auth

import (
	"context"

	"github.com/prognoshealth/lambdarest/httperr"
	"github.com/prognoshealth/lambdarest/proxy"
)

// User is the identity attached to a request.
type User struct {
	ID        string
	Anonymous bool
	Name      string

	// Attributes holds the verified credential payload merged with the values
	// extracted through an attribute map. An attribute whose path could not be
	// resolved is present with a nil value.
	Attributes map[string]interface{}
}

// AnonymousUser returns the user attached to requests without credentials.
func AnonymousUser() *User {
	return &User{
		Anonymous: true,
		Name:      "Anonymous",
	}
}

// Attribute returns the named attribute and whether it is set.
func (u *User) Attribute(name string) (interface{}, bool) {
	v, ok := u.Attributes[name]
	return v, ok
}

// Authorizer identifies the user behind a request then decides if they may
// perform it. Implementations hold static configuration only and are shared
// across invocations.
type Authorizer interface {
	Identify(ctx context.Context, req *proxy.Request) (*User, error)
	Authorize(ctx context.Context, req *proxy.Request, user *User) error
}

// Policy decides if user may perform req.
type Policy func(req *proxy.Request, user *User) error

// DefaultPolicy only lets anonymous users through for preflight (OPTIONS)
// requests. Identified users are always allowed.
func DefaultPolicy(req *proxy.Request, user *User) error {
	if user.Anonymous && req.Method() != proxy.OPTIONS.String() {
		return httperr.NewForbiddenError()
	}
	return nil
}

// Run identifies the user behind req and authorizes them.
func Run(ctx context.Context, a Authorizer, req *proxy.Request) (*User, error) {
	user, err := a.Identify(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := a.Authorize(ctx, req, user); err != nil {
		return nil, err
	}

	return user, nil
}

// Anonymous treats every request as anonymous and applies Policy, or
// DefaultPolicy when Policy is nil.
type Anonymous struct {
	Policy Policy
}

// Identify returns the anonymous user.
func (a Anonymous) Identify(context.Context, *proxy.Request) (*User, error) {
	return AnonymousUser(), nil
}

// Authorize applies the policy.
func (a Anonymous) Authorize(_ context.Context, req *proxy.Request, user *User) error {
	if a.Policy != nil {
		return a.Policy(req, user)
	}
	return DefaultPolicy(req, user)
}
