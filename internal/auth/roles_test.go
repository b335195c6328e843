package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/session-auth/internal/domain"
)

func TestSatisfies(t *testing.T) {
	f := newFixture(t)
	user := f.account(t, "u@x.com", domain.RoleUser)
	admin := f.account(t, "a@x.com", domain.RoleAdmin, domain.RoleUser)

	tests := []struct {
		name     string
		ex       Exchange
		required []string
		want     bool
	}{
		{"no cookie", NewMemoryExchange(context.Background(), nil), []string{"ADMIN"}, false},
		{"invalid token", NewMemoryExchange(context.Background(), map[string]string{CookieName: "x.y.z"}), []string{"ADMIN"}, false},
		{"user lacks admin", f.session(t, user), []string{"ADMIN"}, false},
		{"admin", f.session(t, admin), []string{"ADMIN"}, true},
		{"any of several", f.session(t, user), []string{"ADMIN", "USER"}, true},
		{"empty required set", f.session(t, admin), nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.authorizer.Satisfies(tt.ex, tt.required...))
		})
	}

	assert.Equal(t, 2, f.recorder.granted)
	assert.Equal(t, 4, f.recorder.denied)
}

func TestSatisfies_RevocationTakesEffect(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "a@x.com", domain.RoleAdmin)
	ex := f.session(t, admin)

	require.True(t, f.authorizer.Satisfies(ex, domain.RoleAdmin))
	f.directory.RevokeRole(admin.ID, domain.RoleAdmin)
	assert.False(t, f.authorizer.Satisfies(ex, domain.RoleAdmin))
}

func TestRequireRoles(t *testing.T) {
	f := newFixture(t)
	user := f.account(t, "u@x.com", domain.RoleUser)
	admin := f.account(t, "a@x.com", domain.RoleAdmin)

	app := newTestApp()
	app.Get("/admin", RequireRoles(f.authorizer, domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	token := func(identity domain.Identity) string {
		value, _ := f.transport.CurrentToken(f.session(t, identity))
		return value
	}

	for name, tc := range map[string]struct {
		cookie string
		want   int
	}{
		"anonymous": {"", http.StatusForbidden},
		"user":      {token(user), http.StatusForbidden},
		"admin":     {token(admin), http.StatusOK},
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: CookieName, Value: tc.cookie})
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tc.want, resp.StatusCode)
		})
	}
}
