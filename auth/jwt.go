package auth

import (
	"context"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/prognoshealth/lambdarest/httperr"
	"github.com/prognoshealth/lambdarest/proxy"
)

var bearerRx = regexp.MustCompile(`^Bearer +([^ ]+)$`)

// JWTAuthorizer identifies users from an HMAC signed JWT sent as a bearer token
// in the authorization header. Requests without that header are anonymous.
//
// The attribute map copies values out of the verified payload into the user,
// e.g. {"id": "sub", "name": "profile.name"}. The "id" and "name" entries also
// fill User.ID and User.Name.
type JWTAuthorizer struct {
	secret  []byte
	attrMap map[string]string
	policy  Policy
	logger  logrus.FieldLogger

	parserOpts []jwt.ParserOption
	parser     *jwt.Parser
}

// JWTOption configures a JWTAuthorizer.
type JWTOption func(*JWTAuthorizer)

// WithPolicy replaces DefaultPolicy as the authorization decision.
func WithPolicy(policy Policy) JWTOption {
	return func(a *JWTAuthorizer) {
		a.policy = policy
	}
}

// WithIssuer requires the iss claim to equal issuer.
func WithIssuer(issuer string) JWTOption {
	return func(a *JWTAuthorizer) {
		a.parserOpts = append(a.parserOpts, jwt.WithIssuer(issuer))
	}
}

// WithAudience requires the aud claim to contain audience.
func WithAudience(audience string) JWTOption {
	return func(a *JWTAuthorizer) {
		a.parserOpts = append(a.parserOpts, jwt.WithAudience(audience))
	}
}

// WithLeeway tolerates clock skew when checking exp and nbf.
func WithLeeway(leeway time.Duration) JWTOption {
	return func(a *JWTAuthorizer) {
		a.parserOpts = append(a.parserOpts, jwt.WithLeeway(leeway))
	}
}

// WithLogger sets the logger used to report rejected tokens.
func WithLogger(logger logrus.FieldLogger) JWTOption {
	return func(a *JWTAuthorizer) {
		a.logger = logger
	}
}

// NewJWTAuthorizer returns a JWTAuthorizer verifying tokens with secret.
func NewJWTAuthorizer(secret string, attrMap map[string]string, opts ...JWTOption) *JWTAuthorizer {
	a := &JWTAuthorizer{
		secret:  []byte(secret),
		attrMap: make(map[string]string, len(attrMap)),
		policy:  DefaultPolicy,
		logger:  logrus.StandardLogger(),
	}

	for k, v := range attrMap {
		a.attrMap[k] = v
	}

	for _, opt := range opts {
		opt(a)
	}

	parserOpts := append([]jwt.ParserOption{
		jwt.WithValidMethods([]string{
			jwt.SigningMethodHS256.Alg(),
			jwt.SigningMethodHS384.Alg(),
			jwt.SigningMethodHS512.Alg(),
		}),
	}, a.parserOpts...)
	a.parser = jwt.NewParser(parserOpts...)

	return a
}

// Identify returns the anonymous user when no authorization header is set.
// A header that is not a bearer token, or a token that fails verification,
// produces an UnauthorizedError.
func (a *JWTAuthorizer) Identify(_ context.Context, req *proxy.Request) (*User, error) {
	token, err := a.bearerToken(req)
	if err != nil {
		return nil, err
	}

	if token == "" {
		return AnonymousUser(), nil
	}

	payload, err := a.verify(token)
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"error":  err.Error(),
			"method": req.Method(),
			"path":   req.Path(),
		}).Debug("rejected bearer token")

		return nil, httperr.NewUnauthorizedError()
	}

	return a.userFromPayload(payload), nil
}

// Authorize applies the configured policy.
func (a *JWTAuthorizer) Authorize(_ context.Context, req *proxy.Request, user *User) error {
	return a.policy(req, user)
}

// bearerToken extracts the token from the authorization header. An empty
// token with a nil error means the header is absent.
func (a *JWTAuthorizer) bearerToken(req *proxy.Request) (string, error) {
	header := req.Header("authorization")
	if header == "" {
		return "", nil
	}

	matches := bearerRx.FindStringSubmatch(header)
	if len(matches) != 2 {
		return "", httperr.NewUnauthorizedError()
	}

	return matches[1], nil
}

func (a *JWTAuthorizer) verify(token string) (map[string]interface{}, error) {
	parsed, err := a.parser.Parse(token, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed verifying token")
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token payload")
	}

	return map[string]interface{}(claims), nil
}

func (a *JWTAuthorizer) userFromPayload(payload map[string]interface{}) *User {
	attrs := make(map[string]interface{}, len(payload)+len(a.attrMap))
	for k, v := range payload {
		attrs[k] = v
	}

	for name, path := range a.attrMap {
		if v, ok := Lookup(payload, path); ok {
			attrs[name] = v
		} else {
			attrs[name] = nil
		}
	}

	user := &User{Attributes: attrs}

	if _, mapped := a.attrMap["id"]; mapped {
		user.ID, _ = attrs["id"].(string)
	}

	if _, mapped := a.attrMap["name"]; mapped {
		user.Name, _ = attrs["name"].(string)
	}

	return user
}
