package auth

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Cookie is the transport-neutral description of a cookie write.
// MaxAge of zero or less instructs the client to discard the cookie.
type Cookie struct {
	Name     string
	Value    string
	Path     string
	MaxAge   int
	HTTPOnly bool
	Secure   bool
	SameSite string
}

// Exchange is a read/write handle over the cookies of a single request/response.
// Writes made through an exchange are visible to later reads on the same exchange.
type Exchange interface {
	Context() context.Context
	ReadCookie(name string) string
	WriteCookie(cookie Cookie)
}

// overlay tracks cookies written during the exchange so they shadow the request.
type overlay struct {
	mu      sync.Mutex
	written map[string]Cookie
}

func (o *overlay) record(cookie Cookie) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.written == nil {
		o.written = make(map[string]Cookie)
	}
	o.written[cookie.Name] = cookie
}

func (o *overlay) lookup(name string) (string, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	cookie, ok := o.written[name]
	if !ok {
		return "", false
	}
	if cookie.MaxAge <= 0 {
		return "", true
	}
	return cookie.Value, true
}

// FiberExchange adapts a fiber request context.
type FiberExchange struct {
	c *fiber.Ctx
	overlay
}

// NewFiberExchange wraps c.
func NewFiberExchange(c *fiber.Ctx) *FiberExchange {
	return &FiberExchange{c: c}
}

func (e *FiberExchange) Context() context.Context {
	return e.c.UserContext()
}

func (e *FiberExchange) ReadCookie(name string) string {
	if value, ok := e.lookup(name); ok {
		return value
	}
	return e.c.Cookies(name)
}

func (e *FiberExchange) WriteCookie(cookie Cookie) {
	e.record(cookie)
	fc := &fiber.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Path:     cookie.Path,
		MaxAge:   cookie.MaxAge,
		Secure:   cookie.Secure,
		HTTPOnly: cookie.HTTPOnly,
		SameSite: cookie.SameSite,
	}
	if cookie.MaxAge <= 0 {
		// fasthttp omits Max-Age=0, so expire in the past instead.
		fc.MaxAge = 0
		fc.Expires = time.Unix(0, 0).UTC()
	}
	e.c.Cookie(fc)
}

// HTTPExchange adapts a net/http request and response writer.
type HTTPExchange struct {
	w http.ResponseWriter
	r *http.Request
	overlay
}

// NewHTTPExchange wraps w and r.
func NewHTTPExchange(w http.ResponseWriter, r *http.Request) *HTTPExchange {
	return &HTTPExchange{w: w, r: r}
}

func (e *HTTPExchange) Context() context.Context {
	return e.r.Context()
}

func (e *HTTPExchange) ReadCookie(name string) string {
	if value, ok := e.lookup(name); ok {
		return value
	}
	cookie, err := e.r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (e *HTTPExchange) WriteCookie(cookie Cookie) {
	e.record(cookie)
	maxAge := cookie.MaxAge
	if maxAge <= 0 {
		// net/http renders a negative MaxAge as Max-Age=0.
		maxAge = -1
	}
	http.SetCookie(e.w, &http.Cookie{
		Name:     cookie.Name,
		Value:    cookie.Value,
		Path:     cookie.Path,
		MaxAge:   maxAge,
		HttpOnly: cookie.HTTPOnly,
		Secure:   cookie.Secure,
		SameSite: httpSameSite(cookie.SameSite),
	})
}

func httpSameSite(mode string) http.SameSite {
	switch mode {
	case fiber.CookieSameSiteLaxMode:
		return http.SameSiteLaxMode
	case fiber.CookieSameSiteStrictMode:
		return http.SameSiteStrictMode
	case fiber.CookieSameSiteNoneMode:
		return http.SameSiteNoneMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MemoryExchange is an in-process cookie jar, used by tests and non-HTTP callers.
type MemoryExchange struct {
	ctx context.Context

	mu      sync.Mutex
	jar     map[string]string
	history []Cookie
}

// NewMemoryExchange returns an exchange seeded with cookies.
func NewMemoryExchange(ctx context.Context, cookies map[string]string) *MemoryExchange {
	jar := make(map[string]string, len(cookies))
	for name, value := range cookies {
		jar[name] = value
	}
	return &MemoryExchange{ctx: ctx, jar: jar}
}

func (e *MemoryExchange) Context() context.Context {
	return e.ctx
}

func (e *MemoryExchange) ReadCookie(name string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.jar[name]
}

func (e *MemoryExchange) WriteCookie(cookie Cookie) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.history = append(e.history, cookie)
	if cookie.MaxAge <= 0 {
		delete(e.jar, cookie.Name)
		return
	}
	e.jar[cookie.Name] = cookie.Value
}

// Written returns every cookie written so far, oldest first.
func (e *MemoryExchange) Written() []Cookie {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Cookie(nil), e.history...)
}
