package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prognoshealth/lambdarest/auth"
	"github.com/prognoshealth/lambdarest/httperr"
	"github.com/prognoshealth/lambdarest/proxy"
)

type errorBody struct {
	Errors []httperr.Detail `json:"errors"`
}

func decodeErrors(t *testing.T, body string) []httperr.Detail {
	var parsed errorBody
	require.NoError(t, json.Unmarshal([]byte(body), &parsed))
	return parsed.Errors
}

func fixedReference(context.Context) interface{} {
	return map[string]string{"id": "ref-1"}
}

func testLambda(h Handler, opts ...Option) (*Lambda, *test.Hook) {
	logger, hook := test.NewNullLogger()
	opts = append([]Option{WithLogger(logger), WithReference(fixedReference)}, opts...)
	return New(h, opts...), hook
}

type stubAuthorizer struct {
	user *auth.User
	err  error
}

func (s stubAuthorizer) Identify(context.Context, *proxy.Request) (*auth.User, error) {
	return s.user, nil
}

func (s stubAuthorizer) Authorize(context.Context, *proxy.Request, *auth.User) error {
	return s.err
}

func TestLambda_Handle(t *testing.T) {
	var seen *Invocation
	h := HandlerFunc(func(inv *Invocation) error {
		seen = inv
		inv.Response.SetStatus(http.StatusCreated).AddCookie("session", "abc")
		if err := inv.Response.SetJSON(map[string]string{"hello": "world"}); err != nil {
			return err
		}
		inv.Response.Send()
		return nil
	})

	l, hook := testLambda(h)
	out, err := l.Handle(context.Background(), testEvent("POST", "/widgets", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, out.StatusCode)
	assert.Equal(t, `{"hello":"world"}`, out.Body)
	assert.Equal(t, "application/json", out.Headers["content-type"])
	assert.Equal(t, []string{"session=abc; path=/; Secure; HttpOnly"}, out.MultiValueHeaders["set-cookie"])
	assert.Empty(t, hook.AllEntries())

	require.NotNil(t, seen)
	assert.True(t, seen.User.Anonymous)
	assert.NotNil(t, seen.Context)
}

func TestLambda_Handle_taxonomyError(t *testing.T) {
	h := HandlerFunc(func(*Invocation) error {
		return errors.Wrap(httperr.NewNotFoundError(httperr.Detail{Message: "no widget", Type: "widget.missing", Path: "id"}), "lookup")
	})

	l, hook := testLambda(h)
	out, err := l.Handle(context.Background(), testEvent("GET", "/widgets/1", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, out.StatusCode)
	assert.Equal(t, "application/json", out.Headers["content-type"])
	assert.Equal(t, []httperr.Detail{{Message: "no widget", Type: "widget.missing", Path: "id"}}, decodeErrors(t, out.Body))
	assert.Empty(t, hook.AllEntries())
}

func TestLambda_Handle_internalError(t *testing.T) {
	h := HandlerFunc(func(*Invocation) error {
		return errors.New("database password is hunter2")
	})

	l, hook := testLambda(h)
	out, err := l.Handle(context.Background(), testEvent("GET", "/widgets", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, out.StatusCode)
	assert.NotContains(t, out.Body, "hunter2")

	details := decodeErrors(t, out.Body)
	require.Len(t, details, 1)
	assert.Equal(t, "Error log reference :\n{\"id\":\"ref-1\"}", details[0].Message)
	assert.Equal(t, "Internal Server Error", details[0].Type)

	require.Len(t, hook.AllEntries(), 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "database password is hunter2", entry.Data["error"])
	assert.Equal(t, map[string]string{"id": "ref-1"}, entry.Data["reference"])
	assert.Equal(t, "GET", entry.Data["method"])
	assert.Equal(t, "/widgets", entry.Data["path"])
}

func TestLambda_Handle_notSent(t *testing.T) {
	l, hook := testLambda(HandlerFunc(func(*Invocation) error { return nil }))

	out, err := l.Handle(context.Background(), testEvent("GET", "/widgets", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, out.StatusCode)
	require.Len(t, hook.AllEntries(), 1)
	assert.Contains(t, hook.LastEntry().Data["error"], "without sending a response")
}

func TestLambda_Handle_errorAfterSend(t *testing.T) {
	h := HandlerFunc(func(inv *Invocation) error {
		inv.Response.Send()
		return httperr.NewForbiddenError()
	})

	l, hook := testLambda(h)
	out, err := l.Handle(context.Background(), testEvent("GET", "/widgets", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, http.StatusForbidden, hook.LastEntry().Data["status"])
}

func TestLambda_Handle_sendTwicePanics(t *testing.T) {
	h := HandlerFunc(func(inv *Invocation) error {
		inv.Response.Send()
		inv.Response.Send()
		return nil
	})

	l, _ := testLambda(h)

	assert.PanicsWithValue(t, proxy.ErrAlreadySent, func() {
		_, _ = l.Handle(context.Background(), testEvent("GET", "/widgets", nil))
	})
}

func TestLambda_Handle_panic(t *testing.T) {
	h := HandlerFunc(func(*Invocation) error {
		var counts map[string]int
		counts["x"] = 1
		return nil
	})

	l, hook := testLambda(h)

	var out events.APIGatewayProxyResponse
	var err error
	assert.NotPanics(t, func() {
		out, err = l.Handle(context.Background(), testEvent("GET", "/widgets", nil))
	})

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, out.StatusCode)
	assert.Equal(t, []httperr.Detail{{
		Message: "Error log reference :\n{\"id\":\"ref-1\"}",
		Type:    "Internal Server Error",
	}}, decodeErrors(t, out.Body))

	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Contains(t, hook.LastEntry().Data["error"], "handler panicked")
	assert.Equal(t, map[string]string{"id": "ref-1"}, hook.LastEntry().Data["reference"])
}

func TestLambda_Handle_authorizer(t *testing.T) {
	user := &auth.User{ID: "user-1"}

	var seen *auth.User
	h := HandlerFunc(func(inv *Invocation) error {
		seen = inv.User
		inv.Response.Send()
		return nil
	})

	l, _ := testLambda(h, WithAuthorizer(stubAuthorizer{user: user}))
	out, err := l.Handle(context.Background(), testEvent("GET", "/widgets", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.Same(t, user, seen)
}

func TestLambda_Handle_forbidden(t *testing.T) {
	called := false
	h := HandlerFunc(func(inv *Invocation) error {
		called = true
		inv.Response.Send()
		return nil
	})

	l, _ := testLambda(h, WithAuthorizer(auth.Anonymous{}))

	out, err := l.Handle(context.Background(), testEvent("GET", "/widgets", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, out.StatusCode)
	assert.Equal(t, []httperr.Detail{{Message: "ForbiddenError", Type: "ForbiddenError"}}, decodeErrors(t, out.Body))
	assert.False(t, called)

	out, err = l.Handle(context.Background(), testEvent("OPTIONS", "/widgets", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.True(t, called)
}

func TestLambda_Handle_restful(t *testing.T) {
	l, _ := testLambda(Restful(&widgets{single: false}))

	out, err := l.Handle(context.Background(), testEvent("PUT", "/widgets", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusMethodNotAllowed, out.StatusCode)
	assert.Equal(t, []httperr.Detail{{Message: "MethodNotAllowedError", Type: "MethodNotAllowedError"}}, decodeErrors(t, out.Body))
}

func TestLambda_Handle_cors(t *testing.T) {
	policy := CORSPolicy{AllowOrigins: []string{"https://app.example.com"}, MaxAge: 60}
	l, _ := testLambda(HandlerFunc(func(*Invocation) error {
		return httperr.NewValidationError()
	}), WithCORS(policy))

	out, err := l.Handle(context.Background(), testEvent("GET", "/widgets", map[string]string{"Origin": "https://app.example.com"}))

	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, out.StatusCode)
	assert.Equal(t, "https://app.example.com", out.Headers["access-control-allow-origin"])
	assert.Equal(t, "", out.Headers["access-control-max-age"])

	l, _ = testLambda(Restful(&widgets{}), WithCORS(policy))
	out, err = l.Handle(context.Background(), testEvent("OPTIONS", "/widgets", map[string]string{"Origin": "https://app.example.com"}))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, out.StatusCode)
	assert.Equal(t, "60", out.Headers["access-control-max-age"])
}

func TestLambda_Handle_defaultReference(t *testing.T) {
	logger, hook := test.NewNullLogger()
	l := New(HandlerFunc(func(*Invocation) error { return errors.New("boom") }), WithLogger(logger))

	out, err := l.Handle(context.Background(), testEvent("GET", "/widgets", nil))

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, out.StatusCode)
	assert.Contains(t, out.Body, `\"id\":`)
	assert.Contains(t, out.Body, `\"logGroup\":`)
	require.NotNil(t, hook.LastEntry())
	assert.NotNil(t, hook.LastEntry().Data["reference"])
}
