package proxy

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"

	"github.com/prognoshealth/lambdarest/httperr"
)

// ErrAlreadySent is the panic value raised when a Response is sent twice. It
// flags a defect in the handler, the gateway expects exactly one response per
// invocation.
var ErrAlreadySent = errors.New("response has already been sent")

// Emitter receives the single payload produced by Response.Send.
type Emitter func(events.APIGatewayProxyResponse)

// Response accumulates the status, headers, cookies and body of the reply to a
// proxy request and emits it once through its Emitter.
type Response struct {
	status  int
	headers map[string]string
	cookies []string
	body    string
	sent    bool

	emit    Emitter
	nowFunc func() time.Time
}

// NewResponse returns a Response with status 200 that hands its payload to
// emit when sent.
func NewResponse(emit Emitter) *Response {
	return &Response{
		status:  http.StatusOK,
		headers: map[string]string{},
		emit:    emit,
	}
}

// now is used internally to assist stubs on time.Now() for testing
func (resp *Response) now() time.Time {
	if resp.nowFunc != nil {
		return resp.nowFunc()
	}

	return time.Now()
}

// Status returns the status code.
func (resp *Response) Status() int {
	return resp.status
}

// SetStatus sets the status code.
func (resp *Response) SetStatus(status int) *Response {
	resp.status = status
	return resp
}

// Header returns the value of the header key. For set-cookie the most recently
// added cookie is returned.
func (resp *Response) Header(key string) string {
	return resp.headers[strings.ToLower(key)]
}

// Headers returns a copy of the single valued headers.
func (resp *Response) Headers() map[string]string {
	return copyMap(resp.headers)
}

// SetHeader sets the header key, replacing any previous value. Use AddCookie
// for set-cookie.
func (resp *Response) SetHeader(key, value string) *Response {
	resp.headers[strings.ToLower(key)] = value
	return resp
}

// Cookies returns every set-cookie value added so far, in order.
func (resp *Response) Cookies() []string {
	return append([]string(nil), resp.cookies...)
}

// Body returns the body.
func (resp *Response) Body() string {
	return resp.body
}

// SetBody sets the body. nil clears it, strings and byte slices are used as
// is, booleans and numbers are written in their string form and any other
// value is encoded as compact JSON.
func (resp *Response) SetBody(v interface{}) error {
	switch b := v.(type) {
	case nil:
		resp.body = ""
		return nil
	case string:
		resp.body = b
		return nil
	case []byte:
		resp.body = string(b)
		return nil
	case json.RawMessage:
		resp.body = string(b)
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		if rv.IsNil() {
			resp.body = ""
			return nil
		}
	case reflect.Bool:
		resp.body = strconv.FormatBool(rv.Bool())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		resp.body = fmt.Sprint(v)
		return nil
	}

	b, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed encoding %T response body", v)
	}

	resp.body = string(b)
	return nil
}

// SetJSON sets the body to the JSON encoding of v and the content-type header
// to application/json.
func (resp *Response) SetJSON(v interface{}) error {
	if err := resp.SetBody(v); err != nil {
		return err
	}

	resp.SetHeader("content-type", "application/json")
	return nil
}

// AddCookie appends a set-cookie header. Every call adds a cookie, previous
// cookies are kept.
func (resp *Response) AddCookie(name, value string, opts ...CookieOption) *Response {
	cookie := serializeCookie(name, value, newCookieOptions(opts), resp.now())

	resp.cookies = append(resp.cookies, cookie)
	resp.headers["set-cookie"] = cookie

	return resp
}

// SetMaxAge sets the cache-control header to max-age=seconds, or no-cache when
// seconds is not positive.
func (resp *Response) SetMaxAge(seconds int) *Response {
	if seconds > 0 {
		resp.headers["cache-control"] = "max-age=" + strconv.Itoa(seconds)
	} else {
		resp.headers["cache-control"] = "no-cache"
	}

	return resp
}

// Redirect sends a 302 to url with an empty body.
func (resp *Response) Redirect(url string) {
	resp.status = http.StatusFound
	resp.headers["location"] = url
	resp.body = ""
	resp.Send()
}

// SendError sends err as a JSON error document with the status of its kind.
func (resp *Response) SendError(err *httperr.Error) {
	body, marshalErr := err.Body()
	if marshalErr != nil {
		body = []byte(`{"errors":[]}`)
	}

	resp.status = err.Status
	resp.headers["content-type"] = "application/json"
	resp.body = string(body)
	resp.Send()
}

// Sent returns true once the response was emitted.
func (resp *Response) Sent() bool {
	return resp.sent
}

// Send emits the response. Sending twice panics with ErrAlreadySent.
func (resp *Response) Send() {
	if resp.sent {
		panic(ErrAlreadySent)
	}
	resp.sent = true

	if resp.emit != nil {
		resp.emit(resp.payload())
	}
}

// payload serializes the response. Cookies are only carried by the multi
// value headers so the gateway emits one set-cookie line per cookie.
func (resp *Response) payload() events.APIGatewayProxyResponse {
	headers := make(map[string]string, len(resp.headers))
	for k, v := range resp.headers {
		if k == "set-cookie" {
			continue
		}
		headers[k] = v
	}

	out := events.APIGatewayProxyResponse{
		StatusCode: resp.status,
		Headers:    headers,
		Body:       resp.body,
	}

	if len(resp.cookies) > 0 {
		out.MultiValueHeaders = map[string][]string{
			"set-cookie": append([]string(nil), resp.cookies...),
		}
	}

	return out
}
