package proxy

import (
	"net/http"
	"strings"
	"time"
)

// CookieOptions controls the attributes written with a cookie. Build it through
// CookieOption funcs; the defaults are path "/", Secure and HttpOnly.
type CookieOptions struct {
	Domain   string
	Path     string
	Expires  string
	MaxAge   int
	Secure   bool
	HTTPOnly bool

	hasMaxAge bool
}

// CookieOption mutates CookieOptions.
type CookieOption func(*CookieOptions)

// WithDomain sets the cookie domain attribute.
func WithDomain(domain string) CookieOption {
	return func(o *CookieOptions) {
		o.Domain = domain
	}
}

// WithPath sets the cookie path attribute.
func WithPath(path string) CookieOption {
	return func(o *CookieOptions) {
		o.Path = path
	}
}

// WithExpires sets the expires attribute to t formatted as an HTTP date.
func WithExpires(t time.Time) CookieOption {
	return func(o *CookieOptions) {
		o.Expires = t.UTC().Format(http.TimeFormat)
	}
}

// WithExpiresString sets the expires attribute verbatim.
func WithExpiresString(expires string) CookieOption {
	return func(o *CookieOptions) {
		o.Expires = expires
	}
}

// WithMaxAge expires the cookie the given number of seconds from now. An
// explicit expires attribute takes precedence.
func WithMaxAge(seconds int) CookieOption {
	return func(o *CookieOptions) {
		o.MaxAge = seconds
		o.hasMaxAge = true
	}
}

// WithSecure toggles the Secure flag.
func WithSecure(secure bool) CookieOption {
	return func(o *CookieOptions) {
		o.Secure = secure
	}
}

// WithHTTPOnly toggles the HttpOnly flag.
func WithHTTPOnly(httpOnly bool) CookieOption {
	return func(o *CookieOptions) {
		o.HTTPOnly = httpOnly
	}
}

func newCookieOptions(opts []CookieOption) CookieOptions {
	o := CookieOptions{
		Path:     "/",
		Secure:   true,
		HTTPOnly: true,
	}

	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// serializeCookie renders a set-cookie value. Attribute order is fixed:
// name=value; domain; path; expires; Secure; HttpOnly.
func serializeCookie(name, value string, o CookieOptions, now time.Time) string {
	parts := []string{name + "=" + value}

	if o.Domain != "" {
		parts = append(parts, "domain="+o.Domain)
	}

	parts = append(parts, "path="+o.Path)

	expires := o.Expires
	if expires == "" && o.hasMaxAge {
		expires = now.Add(time.Duration(o.MaxAge) * time.Second).UTC().Format(http.TimeFormat)
	}
	if expires != "" {
		parts = append(parts, "expires="+expires)
	}

	if o.Secure {
		parts = append(parts, "Secure")
	}

	if o.HTTPOnly {
		parts = append(parts, "HttpOnly")
	}

	return strings.Join(parts, "; ")
}
