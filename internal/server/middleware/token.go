// Package middleware holds cross-cutting HTTP request helpers.
package middleware

import (
	"net/http"
	"strings"
)

// TokenFromRequest extracts the session token from a request. Accepted
// transports, in precedence order: a `token` header, an
// `Authorization: Bearer <token>` header, and finally a `token` query
// parameter as a fallback. Returns "" when no transport carries a token.
func TokenFromRequest(r *http.Request) string {
	if tok := strings.TrimSpace(r.Header.Get("token")); tok != "" {
		return tok
	}
	if h := r.Header.Get("Authorization"); h != "" {
		if tok, ok := strings.CutPrefix(h, "Bearer "); ok {
			if tok = strings.TrimSpace(tok); tok != "" {
				return tok
			}
		}
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}
