package gateway

import (
	"net/http"
	"net/url"
	"strings"
)

// CredentialSource tells where a credential was found
type CredentialSource int

const (
	SourceNone CredentialSource = iota
	SourceAuthorizationHeader
	SourceUpgradeProtocol
	SourceQueryParameter
)

const (
	// HeaderUpgradeProtocol carries the token for WebSocket clients, which cannot set Authorization
	HeaderUpgradeProtocol = "Sec-WebSocket-Protocol"
	// upgradeTokenMarker precedes the token in the protocol list: "access_token, <jwt>"
	upgradeTokenMarker = "access_token"
)

// queryTokenParams are checked in order within the forwarded URI
var queryTokenParams = []string{"token", "access_token"}

// ExtractCredential finds the caller's token. Sources are tried in fixed order and
// the first one present wins:
//  1. Authorization: Bearer <token>
//  2. Sec-WebSocket-Protocol: access_token, <token>  (or a single bare token)
//  3. a token query parameter inside the forwarded URI
func ExtractCredential(header http.Header, forwardedURI string) (string, CredentialSource) {
	if token := bearerToken(header.Get("Authorization")); token != "" {
		return token, SourceAuthorizationHeader
	}
	if token := upgradeProtocolToken(header.Values(HeaderUpgradeProtocol)); token != "" {
		return token, SourceUpgradeProtocol
	}
	if token := queryToken(forwardedURI); token != "" {
		return token, SourceQueryParameter
	}
	return "", SourceNone
}

func bearerToken(value string) string {
	scheme, token, found := strings.Cut(strings.TrimSpace(value), " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func upgradeProtocolToken(values []string) string {
	var protocols []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				protocols = append(protocols, p)
			}
		}
	}
	for i, p := range protocols {
		if strings.EqualFold(p, upgradeTokenMarker) && i+1 < len(protocols) {
			return protocols[i+1]
		}
	}
	if len(protocols) == 1 && !strings.EqualFold(protocols[0], upgradeTokenMarker) {
		return protocols[0]
	}
	return ""
}

func queryToken(forwardedURI string) string {
	if forwardedURI == "" {
		return ""
	}
	u, err := url.Parse(forwardedURI)
	if err != nil {
		return ""
	}
	query := u.Query()
	for _, name := range queryTokenParams {
		if token := strings.TrimSpace(query.Get(name)); token != "" {
			return token
		}
	}
	return ""
}

// forwardedPath returns the decoded path component of a forwarded URI, "/" when
// absent. A URI that does not parse yields false and is never treated as public.
func forwardedPath(forwardedURI string) (string, bool) {
	u, err := url.Parse(forwardedURI)
	if err != nil {
		return "", false
	}
	if u.Path == "" {
		return "/", true
	}
	return u.Path, true
}
