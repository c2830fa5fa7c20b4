package web

import (
	"context"
	"net/http"

	"github.com/apexkudos/kudos/internal/apiclient"
	"github.com/apexkudos/kudos/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

// withSession opens the request's cookie session and stores it in the
// context for the guard and the pages.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		store := session.NewCookie(w, r, s.cookies)
		ctx := context.WithValue(r.Context(), sessionKey, store)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionFrom returns the request's session. Outside withSession it returns
// a fresh cookie-less store so callers never see nil.
func sessionFrom(r *http.Request) *session.Cookie {
	if store, ok := r.Context().Value(sessionKey).(*session.Cookie); ok {
		return store
	}
	return session.NewCookie(discardWriter{}, r, session.CookieOptions{})
}

// requireSession is the route guard. It only checks that a token is
// present; whether the token is still valid is for the backend to say.
func requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		if !sessionFrom(r).IsAuthenticated() {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// client returns the API client bound to the request's session.
func (s *Server) client(r *http.Request) *apiclient.Client {
	return s.api.WithSession(sessionFrom(r))
}

// discardWriter swallows cookie writes from a store with no real response.
type discardWriter struct{}

func (discardWriter) Header() http.Header         { return http.Header{} }
func (discardWriter) Write(b []byte) (int, error) { return len(b), nil }
func (discardWriter) WriteHeader(int)             {}
