// Package devserver serves a proxy integration over plain HTTP so it can be
// exercised locally without deploying it behind API Gateway.
package devserver

import (
	"encoding/base64"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/prognoshealth/lambdarest/handler"
)

// DefaultPattern forwards every path, like a {proxy+} resource.
const DefaultPattern = "/*proxy"

type server struct {
	fn             handler.Func
	pattern        string
	stageVariables map[string]string
	logger         logrus.FieldLogger
}

// Option configures the server.
type Option func(*server)

// WithPattern mounts the function on a gin route pattern instead of
// DefaultPattern. Route params become path parameters.
func WithPattern(pattern string) Option {
	return func(s *server) {
		s.pattern = pattern
	}
}

// WithStageVariables sets the stage variables of every request.
func WithStageVariables(vars map[string]string) Option {
	return func(s *server) {
		s.stageVariables = vars
	}
}

// WithLogger logs every request through logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *server) {
		s.logger = logger
	}
}

// New returns an engine forwarding requests for any verb to fn.
func New(fn handler.Func, opts ...Option) *gin.Engine {
	s := &server{
		fn:      fn,
		pattern: DefaultPattern,
		logger:  logrus.StandardLogger(),
	}

	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Any(s.pattern, s.serve)

	return router
}

func (s *server) serve(c *gin.Context) {
	start := time.Now()

	event, err := s.event(c)
	if err != nil {
		s.fail(c, err)
		return
	}

	out, err := s.fn(c.Request.Context(), event)
	if err != nil {
		s.fail(c, errors.Wrap(err, "function returned an error"))
		return
	}

	if err := writeResponse(c, out); err != nil {
		s.fail(c, err)
		return
	}

	s.logger.WithFields(logrus.Fields{
		"method":   event.HTTPMethod,
		"path":     event.Path,
		"status":   out.StatusCode,
		"duration": time.Since(start).String(),
	}).Info("served request")
}

// fail answers like API Gateway does when the integration itself breaks.
func (s *server) fail(c *gin.Context, err error) {
	s.logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
		"error":  err.Error(),
	}).Error("integration failure")

	c.JSON(http.StatusBadGateway, gin.H{"message": "Internal server error"})
}

// event converts the HTTP request into the proxy event API Gateway would send.
func (s *server) event(c *gin.Context) (events.APIGatewayProxyRequest, error) {
	r := c.Request

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, errors.Wrap(err, "unable to read request body")
	}

	headers, multiHeaders := flatten(r.Header)
	if r.Host != "" {
		headers["Host"] = r.Host
		multiHeaders["Host"] = []string{r.Host}
	}

	query, multiQuery := flatten(r.URL.Query())

	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = strings.TrimPrefix(p.Value, "/")
	}

	event := events.APIGatewayProxyRequest{
		Resource:                        resourcePath(s.pattern),
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               multiHeaders,
		QueryStringParameters:           query,
		MultiValueQueryStringParameters: multiQuery,
		PathParameters:                  params,
		StageVariables:                  copyMap(s.stageVariables),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  uuid.NewString(),
			Stage:      "local",
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  c.ClientIP(),
				UserAgent: r.UserAgent(),
			},
		},
	}

	if utf8.Valid(raw) {
		event.Body = string(raw)
	} else {
		event.Body = base64.StdEncoding.EncodeToString(raw)
		event.IsBase64Encoded = true
	}

	return event, nil
}

func writeResponse(c *gin.Context, out events.APIGatewayProxyResponse) error {
	body := []byte(out.Body)
	if out.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(out.Body)
		if err != nil {
			return errors.Wrap(err, "unable to decode response body")
		}
		body = decoded
	}

	for k, v := range out.Headers {
		c.Writer.Header().Set(k, v)
	}

	for k, values := range out.MultiValueHeaders {
		c.Writer.Header().Del(k)
		for _, v := range values {
			c.Writer.Header().Add(k, v)
		}
	}

	status := out.StatusCode
	if status == 0 {
		status = http.StatusOK
	}

	c.Status(status)
	_, err := c.Writer.Write(body)
	return errors.Wrap(err, "unable to write response body")
}

// resourcePath renders a gin pattern in API Gateway notation, e.g.
// /items/:id/*rest becomes /items/{id}/{rest+}.
func resourcePath(pattern string) string {
	segments := strings.Split(pattern, "/")
	for i, segment := range segments {
		switch {
		case strings.HasPrefix(segment, ":"):
			segments[i] = "{" + segment[1:] + "}"
		case strings.HasPrefix(segment, "*"):
			segments[i] = "{" + segment[1:] + "+}"
		}
	}
	return strings.Join(segments, "/")
}

func flatten(values map[string][]string) (map[string]string, map[string][]string) {
	single := make(map[string]string, len(values))
	multi := make(map[string][]string, len(values))

	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		single[k] = vs[0]
		multi[k] = append([]string(nil), vs...)
	}

	return single, multi
}

func copyMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
