package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// CookieName is the name of the session cookie.
const CookieName = "auth_token"

// SessionTransport moves session tokens in and out of the auth_token cookie.
type SessionTransport struct {
	name   string
	secure bool
	maxAge int
}

// NewSessionTransport builds a transport whose cookies live for ttl.
// secure controls the Secure attribute and is normally on only in production.
func NewSessionTransport(secure bool, ttl time.Duration) *SessionTransport {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionTransport{
		name:   CookieName,
		secure: secure,
		maxAge: int(ttl / time.Second),
	}
}

func (t *SessionTransport) cookie(value string, maxAge int) Cookie {
	return Cookie{
		Name:     t.name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HTTPOnly: true,
		Secure:   t.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// Attach writes token as the session cookie and returns what was written.
func (t *SessionTransport) Attach(ex Exchange, token string) Cookie {
	cookie := t.cookie(token, t.maxAge)
	ex.WriteCookie(cookie)
	return cookie
}

// Detach tells the client to drop the session cookie. Safe to call without a session.
func (t *SessionTransport) Detach(ex Exchange) {
	ex.WriteCookie(t.cookie("", 0))
}

// CurrentToken returns the token carried by the exchange, if any.
func (t *SessionTransport) CurrentToken(ex Exchange) (string, bool) {
	value := ex.ReadCookie(t.name)
	if value == "" {
		return "", false
	}
	return value, true
}
