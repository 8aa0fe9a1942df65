// Package middleware holds HTTP middleware for the petition desk UI.
package middleware

import (
	"context"
	"net/http"

	"petitiondesk/domain/core"
	"petitiondesk/internal/logging"
)

// SessionCookie names the cookie carrying the session ID
const SessionCookie = "petition_session"

type sessionKey struct{}

var log = logging.New("Session")

// EnsureSession attaches the caller's session ID to the request context.
// Requests without a valid session cookie get a new ID. No ledger is created
// here; handlers that record submissions do that.
func EnsureSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var session core.SessionID
			if c, err := r.Cookie(SessionCookie); err == nil {
				if id, err := core.ParseSessionID(c.Value); err == nil {
					session = id
				} else {
					log.Debug("discarding invalid session cookie: %v", err)
				}
			}

			if session == "" {
				session = core.NewSessionID()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    session.String(),
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				log.Debug("started session %s", session)
			}

			ctx := context.WithValue(r.Context(), sessionKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionFrom returns the session ID attached by EnsureSession
func SessionFrom(ctx context.Context) (core.SessionID, bool) {
	id, ok := ctx.Value(sessionKey{}).(core.SessionID)
	return id, ok && id != ""
}
