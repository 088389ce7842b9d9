package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/prognoshealth/lambdarest/auth"
	"github.com/prognoshealth/lambdarest/httperr"
	"github.com/prognoshealth/lambdarest/lambdautils"
	"github.com/prognoshealth/lambdarest/proxy"
)

// Lambda is the outermost layer of a proxy integration. Every event it handles
// produces exactly one response, failures included.
type Lambda struct {
	handler    Handler
	authorizer auth.Authorizer
	cors       *CORSPolicy
	logger     logrus.FieldLogger
	reference  func(ctx context.Context) interface{}
}

// Option configures a Lambda.
type Option func(*Lambda)

// WithAuthorizer identifies and authorizes callers before the handler runs.
// Without one every caller is anonymous and no authorization is performed.
func WithAuthorizer(a auth.Authorizer) Option {
	return func(l *Lambda) {
		l.authorizer = a
	}
}

// WithLogger sets the logger receiving internal failures.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Lambda) {
		l.logger = logger
	}
}

// WithCORS applies policy to every response.
func WithCORS(policy CORSPolicy) Option {
	return func(l *Lambda) {
		l.cors = &policy
	}
}

// WithReference replaces the generator of the token returned to clients in
// place of internal failure details.
func WithReference(reference func(ctx context.Context) interface{}) Option {
	return func(l *Lambda) {
		l.reference = reference
	}
}

// New wraps h.
func New(h Handler, opts ...Option) *Lambda {
	l := &Lambda{
		handler: h,
		logger:  logrus.StandardLogger(),
		reference: func(ctx context.Context) interface{} {
			return lambdautils.Reference(ctx)
		},
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Start hands the Lambda to the AWS Lambda runtime. It never returns.
func (l *Lambda) Start() {
	lambda.Start(l.Handle)
}

// Handle serves event and returns the emitted response. The returned error is
// always nil, failures are rendered into the response.
func (l *Lambda) Handle(ctx context.Context, event events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	var out events.APIGatewayProxyResponse

	req := proxy.NewRequest(event)
	resp := proxy.NewResponse(func(payload events.APIGatewayProxyResponse) {
		out = payload
	})

	if l.cors != nil {
		l.cors.Apply(req, resp)
	}

	err := l.process(ctx, req, resp)
	if err == nil && !resp.Sent() {
		err = errors.Errorf("handler returned without sending a response to %s %s", req.Method(), req.Path())
	}

	if err != nil {
		herr := l.render(ctx, req, err)

		if resp.Sent() {
			l.logger.WithFields(logrus.Fields{
				"method": req.Method(),
				"path":   req.Path(),
				"status": herr.Status,
			}).Warn("handler failed after sending its response")
		} else {
			resp.SendError(herr)
		}
	}

	return out, nil
}

// process runs the authorizer and the handler. Panics become internal errors,
// except a double send which is a defect of the handler and is re-raised.
func (l *Lambda) process(ctx context.Context, req *proxy.Request, resp *proxy.Response) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if r == proxy.ErrAlreadySent {
				panic(r)
			}
			err = errors.Errorf("handler panicked: %v", r)
		}
	}()

	user := auth.AnonymousUser()

	if l.authorizer != nil {
		if user, err = auth.Run(ctx, l.authorizer, req); err != nil {
			return err
		}
	}

	return l.handler.Process(&Invocation{
		Context:  ctx,
		Request:  req,
		Response: resp,
		User:     user,
	})
}

// render maps err to the error sent to the client. Failures outside the
// taxonomy are logged with the reference handed to the client.
func (l *Lambda) render(ctx context.Context, req *proxy.Request, err error) *httperr.Error {
	return httperr.From(err, func() interface{} {
		ref := l.reference(ctx)

		l.logger.WithFields(lambdautils.FromContext(ctx).Fields()).WithFields(logrus.Fields{
			"reference": ref,
			"method":    req.Method(),
			"path":      req.Path(),
			"error":     err.Error(),
		}).Error("internal server error")

		return ref
	})
}
