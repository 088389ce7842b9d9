package proxy

import (
	"encoding/base64"
	"encoding/json"
	"mime"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"

	"github.com/prognoshealth/lambdarest/httperr"
	"github.com/prognoshealth/lambdarest/validation"
)

var errInvalidJSON = httperr.Detail{
	Message: "Can not parse JSON string.",
	Type:    "BadRequestError",
}

// Request wraps an events.APIGatewayProxyRequest.
//
// Header, query string and path parameter keys are lower cased once when the
// request is built so lookups are case insensitive. Stage variables keep their
// keys and are looked up case sensitively since they come from the deployment,
// not the client.
type Request struct {
	raw   events.APIGatewayProxyRequest
	event events.APIGatewayProxyRequest

	cookies       map[string]string
	cookiesParsed bool
}

// NewRequest builds a Request from the event received by the lambda. The event
// is copied; later changes to it do not affect the Request.
func NewRequest(event events.APIGatewayProxyRequest) *Request {
	req := &Request{
		raw:   cloneEvent(event),
		event: cloneEvent(event),
	}

	req.event.Headers = lowerKeys(event.Headers)
	req.event.MultiValueHeaders = lowerMultiKeys(event.MultiValueHeaders)
	req.event.QueryStringParameters = lowerKeys(event.QueryStringParameters)
	req.event.MultiValueQueryStringParameters = lowerMultiKeys(event.MultiValueQueryStringParameters)
	req.event.PathParameters = lowerKeys(event.PathParameters)

	return req
}

// Raw returns a copy of the event exactly as it was received.
func (req *Request) Raw() events.APIGatewayProxyRequest {
	return cloneEvent(req.raw)
}

// Event returns the normalized event. Its header, query string and path
// parameter keys are lower cased and its parameter maps are never nil.
func (req *Request) Event() events.APIGatewayProxyRequest {
	return req.event
}

// Header returns the value of the header key or an empty string.
func (req *Request) Header(key string) string {
	return req.HeaderOr(key, "")
}

// HeaderOr returns the value of the header key or fallback when it is not set.
func (req *Request) HeaderOr(key, fallback string) string {
	return lookup(req.event.Headers, strings.ToLower(key), fallback)
}

// QueryParam returns the value of the query string parameter key or an empty
// string.
func (req *Request) QueryParam(key string) string {
	return req.QueryParamOr(key, "")
}

// QueryParamOr returns the value of the query string parameter key or fallback
// when it is not set.
func (req *Request) QueryParamOr(key, fallback string) string {
	return lookup(req.event.QueryStringParameters, strings.ToLower(key), fallback)
}

// QueryParams returns a copy of the normalized query string parameters.
func (req *Request) QueryParams() map[string]string {
	return copyMap(req.event.QueryStringParameters)
}

// PathParam returns the value of the path parameter key or an empty string.
func (req *Request) PathParam(key string) string {
	return req.PathParamOr(key, "")
}

// PathParamOr returns the value of the path parameter key or fallback when it
// is not set.
func (req *Request) PathParamOr(key, fallback string) string {
	return lookup(req.event.PathParameters, strings.ToLower(key), fallback)
}

// ResourceID is a shorthand for the "id" path parameter.
func (req *Request) ResourceID() string {
	return req.PathParam("id")
}

// StageVariable returns the value of the stage variable key or an empty
// string. The key is case sensitive.
func (req *Request) StageVariable(key string) string {
	return req.StageVariableOr(key, "")
}

// StageVariableOr returns the value of the stage variable key or fallback when
// it is not set. The key is case sensitive.
func (req *Request) StageVariableOr(key, fallback string) string {
	return lookup(req.event.StageVariables, key, fallback)
}

// Method returns the upper cased http method.
func (req *Request) Method() string {
	return strings.ToUpper(req.event.HTTPMethod)
}

// HttpMethod returns the request method as an HttpMethod. The second value is
// false for non standard methods.
func (req *Request) HttpMethod() (HttpMethod, bool) {
	return ParseHttpMethod(req.event.HTTPMethod)
}

// Path returns the request path.
func (req *Request) Path() string {
	return req.event.Path
}

// ContentType returns the content-type header.
func (req *Request) ContentType() string {
	return req.Header("content-type")
}

// Origin returns the origin header.
func (req *Request) Origin() string {
	return req.Header("origin")
}

// OriginDomain returns the host name of the origin header, or an empty string
// when there is no usable origin.
func (req *Request) OriginDomain() string {
	if u := req.originURL(); u != nil {
		return u.Hostname()
	}
	return ""
}

// OriginProtocol returns the scheme of the origin header without the trailing
// colon, e.g. "https".
func (req *Request) OriginProtocol() string {
	if u := req.originURL(); u != nil {
		return u.Scheme
	}
	return ""
}

// OriginPort returns the explicit port of the origin header.
func (req *Request) OriginPort() string {
	if u := req.originURL(); u != nil {
		return u.Port()
	}
	return ""
}

func (req *Request) originURL() *url.URL {
	origin := req.Origin()
	if origin == "" {
		return nil
	}

	u, err := url.Parse(origin)
	if err != nil {
		return nil
	}

	return u
}

// Body returns the request body, decoding it when the gateway delivered it
// base64 encoded.
func (req *Request) Body() (string, error) {
	if req.event.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(req.event.Body)
		if err != nil {
			return "", errors.Wrapf(err, "unable to decode request body for %s %s", req.Method(), req.Path())
		}

		return string(b), nil
	}

	return req.event.Body, nil
}

// ParsedBody parses the body according to contentType, or the content-type
// header when contentType is empty. JSON media types are decoded with
// BodyAsJSON, anything else is returned as the raw body string.
func (req *Request) ParsedBody(contentType string) (interface{}, error) {
	if contentType == "" {
		contentType = req.ContentType()
	}

	switch mediaType(contentType) {
	case "application/json", "text/json", "text/x-json":
		return req.BodyAsJSON()
	default:
		return req.Body()
	}
}

// BodyAsJSON decodes the body as a JSON object. Empty bodies, malformed JSON
// and any top level value that is not an object produce a ValidationError.
func (req *Request) BodyAsJSON() (map[string]interface{}, error) {
	body, err := req.Body()
	if err != nil {
		return nil, httperr.NewValidationError(errInvalidJSON)
	}

	var data map[string]interface{}
	if err := json.Unmarshal([]byte(body), &data); err != nil || data == nil {
		return nil, httperr.NewValidationError(errInvalidJSON)
	}

	return data, nil
}

// BindJSON decodes a JSON object body into v and validates it with its
// `validate` struct tags.
func (req *Request) BindJSON(v interface{}) error {
	body, err := req.Body()
	if err != nil {
		return httperr.NewValidationError(errInvalidJSON)
	}

	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return httperr.NewValidationError(errInvalidJSON)
	}

	if err := json.Unmarshal([]byte(trimmed), v); err != nil {
		return httperr.NewValidationError(errInvalidJSON)
	}

	if details := validation.Struct(v); len(details) > 0 {
		return httperr.NewValidationError(details...)
	}

	return nil
}

// ValidateQueryString checks the query string parameters against schema. Every
// violation is reported in a single ValidationError.
func (req *Request) ValidateQueryString(schema validation.Schema) error {
	if details := validation.Evaluate(req.event.QueryStringParameters, schema); len(details) > 0 {
		return httperr.NewValidationError(details...)
	}

	return nil
}

// Cookies returns the cookies sent with the request. The cookie header is
// parsed on first use only. A malformed header yields an empty map.
func (req *Request) Cookies() map[string]string {
	return copyMap(req.parsedCookies())
}

func (req *Request) parsedCookies() map[string]string {
	if !req.cookiesParsed {
		req.cookies = parseCookies(req.Header("cookie"))
		req.cookiesParsed = true
	}

	return req.cookies
}

// Cookie returns the value of the cookie key or an empty string.
func (req *Request) Cookie(key string) string {
	return req.CookieOr(key, "")
}

// CookieOr returns the value of the cookie key or fallback when it is not set.
func (req *Request) CookieOr(key, fallback string) string {
	return lookup(req.parsedCookies(), key, fallback)
}

// parseCookies reads "a=b; c=d" pairs. Pairs without "=" are skipped, values
// are unquoted and percent decoded, and the first occurrence of a name wins.
func parseCookies(header string) map[string]string {
	cookies := map[string]string{}

	for _, pair := range strings.Split(header, ";") {
		name, value, found := strings.Cut(pair, "=")
		if !found {
			continue
		}

		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, exists := cookies[name]; exists {
			continue
		}

		value = strings.TrimSpace(value)
		if len(value) >= 2 && value[0] == '"' && value[len(value)-1] == '"' {
			value = value[1 : len(value)-1]
		}

		if decoded, err := url.PathUnescape(value); err == nil {
			value = decoded
		}

		cookies[name] = value
	}

	return cookies
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mt
}

func lookup(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}

func lowerKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[strings.ToLower(k)] = v
	}
	return out
}

func lowerMultiKeys(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		k = strings.ToLower(k)
		out[k] = append(out[k], v...)
	}
	return out
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyMultiMap(m map[string][]string) map[string][]string {
	if m == nil {
		return nil
	}
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// cloneEvent copies every map held by the event so the copy shares no mutable
// state with the original.
func cloneEvent(event events.APIGatewayProxyRequest) events.APIGatewayProxyRequest {
	clone := event
	clone.Headers = copyMap(event.Headers)
	clone.MultiValueHeaders = copyMultiMap(event.MultiValueHeaders)
	clone.QueryStringParameters = copyMap(event.QueryStringParameters)
	clone.MultiValueQueryStringParameters = copyMultiMap(event.MultiValueQueryStringParameters)
	clone.PathParameters = copyMap(event.PathParameters)
	clone.StageVariables = copyMap(event.StageVariables)

	if event.RequestContext.Authorizer != nil {
		clone.RequestContext.Authorizer = make(map[string]interface{}, len(event.RequestContext.Authorizer))
		for k, v := range event.RequestContext.Authorizer {
			clone.RequestContext.Authorizer[k] = v
		}
	}

	return clone
}
