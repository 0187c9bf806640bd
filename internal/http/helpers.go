package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/amnamine/AccessoiresHF/internal/identity"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderUserStaff = "X-User-Staff"
	HeaderSessionID = "X-Session-Id"

	sessionCookieName = "storefront_session"
)

// actorFrom builds the opaque actor reference from the forwarded identity
// headers. The gateway in front of this service owns authentication; an
// absent header means an unauthenticated visitor.
func actorFrom(r *http.Request) identity.Actor {
	return identity.Actor{
		ID:    strings.TrimSpace(r.Header.Get(HeaderUserID)),
		Staff: strings.EqualFold(strings.TrimSpace(r.Header.Get(HeaderUserStaff)), "true"),
	}
}

func sessionIDFrom(r *http.Request) string {
	if sid := strings.TrimSpace(r.Header.Get(HeaderSessionID)); sid != "" {
		return sid
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error": msg,
	})
}
