package handler

import (
	"strconv"
	"strings"

	"github.com/prognoshealth/lambdarest/proxy"
)

// CORSPolicy describes the cross origin requests a deployment accepts.
// AllowOrigins may contain "*" to accept any origin.
type CORSPolicy struct {
	AllowOrigins     []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	AllowCredentials bool

	// MaxAge is the number of seconds a preflight result may be cached. Zero
	// omits the header.
	MaxAge int
}

// Apply sets the access control headers of resp for req. Requests without an
// origin header or from an origin that is not allowed get none.
func (p CORSPolicy) Apply(req *proxy.Request, resp *proxy.Response) {
	origin := req.Origin()
	if origin == "" {
		return
	}

	wildcard := contains(p.AllowOrigins, "*")
	if !wildcard && !contains(p.AllowOrigins, origin) {
		return
	}

	if wildcard && !p.AllowCredentials {
		resp.SetHeader("access-control-allow-origin", "*")
	} else {
		resp.SetHeader("access-control-allow-origin", origin)
		resp.SetHeader("vary", "Origin")
	}

	if p.AllowCredentials {
		resp.SetHeader("access-control-allow-credentials", "true")
	}

	if len(p.AllowMethods) > 0 {
		resp.SetHeader("access-control-allow-methods", strings.Join(p.AllowMethods, ", "))
	}

	if len(p.AllowHeaders) > 0 {
		resp.SetHeader("access-control-allow-headers", strings.Join(p.AllowHeaders, ", "))
	}

	if len(p.ExposeHeaders) > 0 {
		resp.SetHeader("access-control-expose-headers", strings.Join(p.ExposeHeaders, ", "))
	}

	if p.MaxAge > 0 && req.Method() == proxy.OPTIONS.String() {
		resp.SetHeader("access-control-max-age", strconv.Itoa(p.MaxAge))
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
