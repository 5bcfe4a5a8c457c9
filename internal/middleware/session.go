// Package middleware provides HTTP middlewares for sessions and logging.
package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

type ctxKey string

const userKey ctxKey = "user"

const (
	sessionName = "docportal"
	keyUsername = "username"
	keyName     = "name"
)

// LoginPath is where unauthenticated requests to gated routes are sent.
const LoginPath = "/login"

// Identity is the authenticated user of the current request.
type Identity struct {
	Username string
	Name     string
}

// Sessions stores the logged-in identity in a signed cookie.
type Sessions struct {
	store sessions.Store
}

// NewSessions builds a cookie-backed session store. secret signs the cookie;
// secure marks it HTTPS-only.
func NewSessions(secret []byte, secure bool) *Sessions {
	store := sessions.NewCookieStore(secret)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &Sessions{store: store}
}

// session returns the request's session. A cookie that fails to decode
// (wrong key, tampering) yields a fresh empty session.
func (s *Sessions) session(r *http.Request) *sessions.Session {
	sess, err := s.store.Get(r, sessionName)
	if err != nil {
		sess, _ = s.store.New(r, sessionName)
	}
	return sess
}

// Start records id in the session and writes the cookie.
func (s *Sessions) Start(w http.ResponseWriter, r *http.Request, id Identity) error {
	sess := s.session(r)
	sess.Values[keyUsername] = id.Username
	sess.Values[keyName] = id.Name
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// End forgets the identity and expires the cookie.
func (s *Sessions) End(w http.ResponseWriter, r *http.Request) error {
	sess := s.session(r)
	delete(sess.Values, keyUsername)
	delete(sess.Values, keyName)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Load copies the session identity, if any, into the request context. It
// never rejects a request.
func (s *Sessions) Load(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.session(r)
		username, _ := sess.Values[keyUsername].(string)
		if username == "" {
			next.ServeHTTP(w, r)
			return
		}
		name, _ := sess.Values[keyName].(string)
		ctx := WithIdentity(r.Context(), Identity{Username: username, Name: name})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser redirects requests without an identity in their context to
// LoginPath.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserIDFromContext(r.Context()) == "" {
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, userKey, id)
}

// IdentityFromContext returns the identity stored by Load or WithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(userKey).(Identity)
	return id, ok && id.Username != ""
}

// GetUserIDFromContext extracts the username from the request context.
// Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	id, _ := IdentityFromContext(ctx)
	return id.Username
}
