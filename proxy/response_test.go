package proxy

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prognoshealth/lambdarest/httperr"
)

func TestNewResponse(t *testing.T) {
	response := NewResponse(nil)

	assert.Equal(t, 200, response.Status())
	assert.Equal(t, "", response.Body())
	assert.Empty(t, response.Headers())
	assert.False(t, response.Sent())
}

func TestResponse_SetBody(t *testing.T) {
	var nilMap map[string]string

	cases := []struct {
		value    interface{}
		expected string
	}{
		{"hello", "hello"},
		{map[string]string{"hello": "world"}, `{"hello":"world"}`},
		{nil, ""},
		{nilMap, ""},
		{[]byte("hello world"), "hello world"},
		{1234, "1234"},
		{int64(-7), "-7"},
		{12.5, "12.5"},
		{true, "true"},
		{[]string{"a", "b", "c"}, `["a","b","c"]`},
		{struct {
			Name string `json:"name"`
		}{"x"}, `{"name":"x"}`},
	}

	response := NewResponse(nil)
	for _, c := range cases {
		require.NoError(t, response.SetBody(c.value))
		assert.Equal(t, c.expected, response.Body())
	}
}

func TestResponse_SetBody_error(t *testing.T) {
	response := NewResponse(nil)
	require.NoError(t, response.SetBody("previous"))

	err := response.SetBody(map[string]interface{}{"ch": make(chan int)})

	assert.Error(t, err)
	assert.Equal(t, "previous", response.Body())
}

func TestResponse_SetJSON(t *testing.T) {
	response := NewResponse(nil)

	require.NoError(t, response.SetJSON(map[string]int{"a": 1}))

	assert.Equal(t, `{"a":1}`, response.Body())
	assert.Equal(t, "application/json", response.Header("Content-Type"))
}

func TestResponse_Redirect(t *testing.T) {
	rec := &recorder{}
	response := NewResponse(rec.emit)
	require.NoError(t, response.SetBody("will be dropped"))

	assert.False(t, response.Sent())
	response.Redirect("https://example.com/abc.html")
	assert.True(t, response.Sent())

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 302, rec.response.StatusCode)
	assert.Empty(t, rec.response.Body)
	assert.Equal(t, "https://example.com/abc.html", rec.response.Headers["location"])
}

func TestResponse_Send(t *testing.T) {
	rec := &recorder{}
	response := NewResponse(rec.emit)
	response.SetStatus(201).SetHeader("X-Thing", "1")
	require.NoError(t, response.SetBody("created"))

	assert.False(t, response.Sent())
	response.Send()
	assert.True(t, response.Sent())

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, 201, rec.response.StatusCode)
	assert.Equal(t, "created", rec.response.Body)
	assert.Equal(t, map[string]string{"x-thing": "1"}, rec.response.Headers)
	assert.Nil(t, rec.response.MultiValueHeaders)
}

func TestResponse_Send_twice(t *testing.T) {
	rec := &recorder{}
	response := NewResponse(rec.emit)
	response.Send()

	assert.PanicsWithValue(t, ErrAlreadySent, response.Send)
	assert.Equal(t, 1, rec.calls)
}

func TestResponse_Send_cookies(t *testing.T) {
	rec := &recorder{}
	response := NewResponse(rec.emit)
	response.AddCookie("a", "1").AddCookie("b", "2", WithSecure(false))
	response.Send()

	assert.NotContains(t, rec.response.Headers, "set-cookie")
	assert.Equal(t, []string{
		"a=1; path=/; Secure; HttpOnly",
		"b=2; path=/; HttpOnly",
	}, rec.response.MultiValueHeaders["set-cookie"])
}

func TestResponse_SendError(t *testing.T) {
	rec := &recorder{}
	response := NewResponse(rec.emit)

	response.SendError(httperr.NewMethodNotAllowedError())

	assert.Equal(t, http.StatusMethodNotAllowed, rec.response.StatusCode)
	assert.Equal(t, "application/json", rec.response.Headers["content-type"])
	assert.JSONEq(t, `{"errors":[{"message":"MethodNotAllowedError","type":"MethodNotAllowedError","path":""}]}`, rec.response.Body)
}

func TestResponse_AddCookie(t *testing.T) {
	now := time.Date(2016, time.December, 7, 4, 59, 0, 0, time.UTC)
	expires := time.Date(2016, time.December, 7, 5, 0, 0, 0, time.UTC)
	dateTimeString := "Wed, 07 Dec 2016 05:00:00 GMT"

	cases := []struct {
		opts     []CookieOption
		expected string
	}{
		{nil, "key=value; path=/; Secure; HttpOnly"},
		{[]CookieOption{WithDomain("example.com")}, "key=value; domain=example.com; path=/; Secure; HttpOnly"},
		{[]CookieOption{WithPath("/app")}, "key=value; path=/app; Secure; HttpOnly"},
		{[]CookieOption{WithExpiresString(dateTimeString)}, "key=value; path=/; expires=" + dateTimeString + "; Secure; HttpOnly"},
		{[]CookieOption{WithExpires(expires)}, "key=value; path=/; expires=" + dateTimeString + "; Secure; HttpOnly"},
		{[]CookieOption{WithMaxAge(60)}, "key=value; path=/; expires=" + dateTimeString + "; Secure; HttpOnly"},
		{[]CookieOption{WithMaxAge(60), WithExpiresString("some date")}, "key=value; path=/; expires=some date; Secure; HttpOnly"},
		{[]CookieOption{WithExpiresString("some date"), WithMaxAge(60)}, "key=value; path=/; expires=some date; Secure; HttpOnly"},
		{[]CookieOption{WithSecure(true)}, "key=value; path=/; Secure; HttpOnly"},
		{[]CookieOption{WithSecure(false)}, "key=value; path=/; HttpOnly"},
		{[]CookieOption{WithHTTPOnly(true)}, "key=value; path=/; Secure; HttpOnly"},
		{[]CookieOption{WithHTTPOnly(false)}, "key=value; path=/; Secure"},
		{[]CookieOption{WithHTTPOnly(false), WithSecure(true)}, "key=value; path=/; Secure"},
		{[]CookieOption{WithHTTPOnly(true), WithSecure(false)}, "key=value; path=/; HttpOnly"},
		{[]CookieOption{WithHTTPOnly(false), WithSecure(false)}, "key=value; path=/"},
		{[]CookieOption{WithDomain("example.com"), WithMaxAge(60), WithSecure(false), WithHTTPOnly(false)}, "key=value; domain=example.com; path=/; expires=" + dateTimeString},
	}

	for _, c := range cases {
		response := NewResponse(nil)
		response.nowFunc = func() time.Time { return now }

		assert.Equal(t, c.expected, response.AddCookie("key", "value", c.opts...).Header("set-cookie"))
	}
}

func TestResponse_AddCookie_additive(t *testing.T) {
	response := NewResponse(nil)

	response.AddCookie("a", "1")
	response.AddCookie("b", "2")

	assert.Equal(t, "b=2; path=/; Secure; HttpOnly", response.Header("set-cookie"))
	assert.Equal(t, []string{"a=1; path=/; Secure; HttpOnly", "b=2; path=/; Secure; HttpOnly"}, response.Cookies())
}

func TestResponse_SetMaxAge(t *testing.T) {
	response := NewResponse(nil)
	assert.Equal(t, "", response.Header("cache-control"))

	chain := response.SetMaxAge(10)
	assert.Same(t, response, chain)

	cases := []struct {
		seconds  int
		expected string
	}{
		{10, "max-age=10"},
		{1, "max-age=1"},
		{0, "no-cache"},
		{-10, "no-cache"},
	}

	for _, c := range cases {
		response.SetMaxAge(c.seconds)
		assert.Equal(t, c.expected, response.Header("Cache-Control"))
	}
}
