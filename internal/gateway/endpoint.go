package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"auth_gateway/internal/model"
	"auth_gateway/internal/service"
	"auth_gateway/internal/utils"
)

// Outcome is the state a verify call ends in
type Outcome int

const (
	OutcomePublicMatch Outcome = iota
	OutcomeNoCredential
	OutcomeInvalidToken
	OutcomeUserMissingOrBlocked
	OutcomeAuthorized
)

func (o Outcome) String() string {
	switch o {
	case OutcomePublicMatch:
		return "public"
	case OutcomeNoCredential:
		return "no_credential"
	case OutcomeInvalidToken:
		return "invalid_token"
	case OutcomeUserMissingOrBlocked:
		return "user_missing_or_blocked"
	case OutcomeAuthorized:
		return "authorized"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Authenticator verifies an access token against live account state
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (*model.User, *utils.JWTClaims, error)
}

// ForwardedRequest is what the reverse proxy tells us about the original request
type ForwardedRequest struct {
	URI    string
	Method string
	Header http.Header
}

// Decision is the result of a verify call
type Decision struct {
	Outcome Outcome
	Source  CredentialSource
	// Identity is the JSON identity assertion, set only when Outcome is OutcomeAuthorized
	Identity string
}

// Allowed reports whether the proxy may forward the request
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomePublicMatch || d.Outcome == OutcomeAuthorized
}

// Endpoint makes the forward-auth allow/deny decision for every proxied request
type Endpoint struct {
	routes *RouteAuthorizer
	auth   Authenticator
}

// NewEndpoint creates a new Endpoint
func NewEndpoint(routes *RouteAuthorizer, auth Authenticator) *Endpoint {
	return &Endpoint{routes: routes, auth: auth}
}

// Verify decides whether a forwarded request may proceed. Public routes are allowed
// without looking at credentials. Otherwise a credential must be present, valid, and
// belong to an existing, unblocked user. The forwarded method must equal an allowlist
// entry's method byte for byte. The returned error is reserved for infrastructure
// failures; every denial is expressed through the Decision.
func (e *Endpoint) Verify(ctx context.Context, req ForwardedRequest) (Decision, error) {
	if p, ok := forwardedPath(req.URI); ok && e.routes.IsPublic(p, req.Method) {
		return Decision{Outcome: OutcomePublicMatch}, nil
	}

	token, source := ExtractCredential(req.Header, req.URI)
	if source == SourceNone {
		return Decision{Outcome: OutcomeNoCredential}, nil
	}

	user, claims, err := e.auth.Authenticate(ctx, token)
	switch {
	case errors.Is(err, service.ErrTokenInvalid):
		return Decision{Outcome: OutcomeInvalidToken, Source: source}, nil
	case errors.Is(err, service.ErrAccountBlocked):
		return Decision{Outcome: OutcomeUserMissingOrBlocked, Source: source}, nil
	case err != nil:
		return Decision{}, err
	}

	identity, err := IdentityAssertion(user, claims)
	if err != nil {
		return Decision{}, err
	}
	return Decision{Outcome: OutcomeAuthorized, Source: source, Identity: identity}, nil
}

// IdentityAssertion serialises the identity summary of user merged with the verified
// claims. Identity fields win over claims of the same name, so role always reflects
// the stored record.
func IdentityAssertion(user *model.User, claims *utils.JWTClaims) (string, error) {
	merged := map[string]any{}
	if claims != nil {
		raw, err := json.Marshal(claims)
		if err != nil {
			return "", fmt.Errorf("failed to encode claims: %w", err)
		}
		if err := json.Unmarshal(raw, &merged); err != nil {
			return "", fmt.Errorf("failed to decode claims: %w", err)
		}
	}

	identity := model.NewAuthenticatedIdentity(user)
	merged["id"] = identity.UserID
	merged["firstName"] = identity.FirstName
	merged["lastName"] = identity.LastName
	merged["email"] = identity.Email
	merged["role"] = identity.Role
	merged["partnerCode"] = identity.PartnerCode

	out, err := json.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("failed to encode identity: %w", err)
	}
	return string(out), nil
}
