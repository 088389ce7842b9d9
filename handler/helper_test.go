package handler

import (
	"context"

	"github.com/aws/aws-lambda-go/events"

	"github.com/prognoshealth/lambdarest/auth"
	"github.com/prognoshealth/lambdarest/proxy"
)

func testEvent(method, path string, headers map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Path:       path,
		Headers:    headers,
	}
}

type recorder struct {
	calls    int
	response events.APIGatewayProxyResponse
}

func (r *recorder) emit(response events.APIGatewayProxyResponse) {
	r.calls++
	r.response = response
}

func testInvocation(method, path string, headers map[string]string) (*Invocation, *recorder) {
	rec := &recorder{}

	return &Invocation{
		Context:  context.Background(),
		Request:  proxy.NewRequest(testEvent(method, path, headers)),
		Response: proxy.NewResponse(rec.emit),
		User:     auth.AnonymousUser(),
	}, rec
}

// widgets records which operation ran and answers with its name.
type widgets struct {
	single     bool
	singleHits int
	ran        []Operation
}

func (w *widgets) IsSingleResource(*Invocation) bool {
	w.singleHits++
	return w.single
}

func (w *widgets) answer(op Operation, inv *Invocation) error {
	w.ran = append(w.ran, op)
	if err := inv.Response.SetBody(op.String()); err != nil {
		return err
	}
	inv.Response.Send()
	return nil
}

func (w *widgets) RetrieveSingle(inv *Invocation) error { return w.answer(RetrieveSingle, inv) }
func (w *widgets) Search(inv *Invocation) error         { return w.answer(Search, inv) }
func (w *widgets) Create(inv *Invocation) error         { return w.answer(Create, inv) }
func (w *widgets) Update(inv *Invocation) error         { return w.answer(Update, inv) }
func (w *widgets) Delete(inv *Invocation) error         { return w.answer(Delete, inv) }

type preflightWidgets struct {
	widgets
}

func (w *preflightWidgets) Preflight(inv *Invocation) error {
	return w.answer(Preflight, inv)
}
