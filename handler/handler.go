package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"github.com/prognoshealth/lambdarest/auth"
	"github.com/prognoshealth/lambdarest/proxy"
)

// Invocation carries everything a handler needs to serve one event.
type Invocation struct {
	Context  context.Context
	Request  *proxy.Request
	Response *proxy.Response
	User     *auth.User
}

// Handler serves an invocation. It either sends the response itself or
// returns an error for the boundary to render. Returning nil without sending
// is a defect reported as an internal server error.
type Handler interface {
	Process(inv *Invocation) error
}

// HandlerFunc adapts a plain function to a Handler.
type HandlerFunc func(inv *Invocation) error

// Process calls f(inv).
func (f HandlerFunc) Process(inv *Invocation) error {
	return f(inv)
}

// Noop answers every request with an empty 200.
var Noop Handler = HandlerFunc(func(inv *Invocation) error {
	inv.Response.Send()
	return nil
})

// Func is the signature lambda.Start expects from a proxy integration.
type Func func(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)
