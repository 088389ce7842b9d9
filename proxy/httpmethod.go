package proxy

import "strings"

// HttpMethod is an enum of the standard Http Methods.
type HttpMethod int

const (
	GET HttpMethod = iota
	HEAD
	POST
	PUT
	DELETE
	CONNECT
	OPTIONS
	TRACE
	PATCH
)

var httpMethodNames = [...]string{"GET", "HEAD", "POST", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"}

func (m HttpMethod) String() string {
	if m < 0 || int(m) >= len(httpMethodNames) {
		return "UNKNOWN"
	}
	return httpMethodNames[m]
}

// ParseHttpMethod returns the HttpMethod matching s, ignoring case. The second
// value is false when s is not a standard method.
func ParseHttpMethod(s string) (HttpMethod, bool) {
	s = strings.ToUpper(s)
	for i, name := range httpMethodNames {
		if name == s {
			return HttpMethod(i), true
		}
	}
	return 0, false
}
