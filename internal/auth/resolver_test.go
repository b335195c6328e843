package auth

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/session-auth/internal/domain"
	"github.com/spec-kit/session-auth/internal/repository"
)

type fixture struct {
	codec      *TokenCodec
	transport  *SessionTransport
	directory  *repository.MemoryDirectory
	resolver   *IdentityResolver
	authorizer *Authorizer
	recorder   *countingRecorder
	logs       *observer.ObservedLogs
}

type countingRecorder struct {
	invalid map[string]int
	granted int
	denied  int
}

func (r *countingRecorder) RecordInvalidToken(reason string) { r.invalid[reason]++ }

func (r *countingRecorder) RecordDecision(granted bool) {
	if granted {
		r.granted++
	} else {
		r.denied++
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		codec:     newTestCodec(t),
		transport: NewSessionTransport(false, DefaultSessionTTL),
		directory: repository.NewMemoryDirectory(),
		recorder:  &countingRecorder{invalid: map[string]int{}},
	}
	core, logs := observer.New(zapcore.DebugLevel)
	f.logs = logs
	f.resolver = NewIdentityResolver(f.codec, f.transport, f.directory, zap.New(core), f.recorder)
	f.authorizer = NewAuthorizer(f.resolver)
	return f
}

func (f *fixture) account(t *testing.T, email string, roles ...string) domain.Identity {
	t.Helper()
	account := &domain.Account{Identity: domain.Identity{Email: email, Roles: roles}, PasswordHash: "x"}
	require.NoError(t, f.directory.Create(context.Background(), account))
	return account.Identity
}

// session returns an exchange carrying a freshly issued token for identity.
func (f *fixture) session(t *testing.T, identity domain.Identity) *MemoryExchange {
	t.Helper()
	issued, err := f.codec.Issue(strconv.FormatInt(identity.ID, 10), identity.Roles)
	require.NoError(t, err)
	ex := NewMemoryExchange(context.Background(), nil)
	f.transport.Attach(ex, issued.Value)
	return ex
}

func TestResolve_NoCookieIsAnonymous(t *testing.T) {
	f := newFixture(t)

	_, ok := f.resolver.Resolve(NewMemoryExchange(context.Background(), nil))
	assert.False(t, ok)
	assert.Empty(t, f.recorder.invalid)
}

func TestResolve_ValidSession(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "a@x.com", domain.RoleAdmin)

	identity, ok := f.resolver.Resolve(f.session(t, admin))
	require.True(t, ok)
	assert.Equal(t, admin.ID, identity.ID)
	assert.Equal(t, "a@x.com", identity.Email)
	assert.Equal(t, []string{domain.RoleAdmin}, identity.Roles)
}

func TestResolve_InvalidTokenIsAnonymous(t *testing.T) {
	f := newFixture(t)
	ex := NewMemoryExchange(context.Background(), map[string]string{CookieName: "garbage"})

	_, ok := f.resolver.Resolve(ex)
	assert.False(t, ok)
	assert.Equal(t, 1, f.recorder.invalid[string(ReasonMalformed)])

	entries := f.logs.FilterMessage("session token rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.NotContains(t, entries[0].ContextMap(), "token")
}

func TestResolve_ExpiredTokenIsAnonymous(t *testing.T) {
	f := newFixture(t)
	user := f.account(t, "u@x.com", domain.RoleUser)

	expired, err := NewTokenCodec(testSecret(t), WithTTL(-1))
	require.NoError(t, err)
	issued, err := expired.Issue(strconv.FormatInt(user.ID, 10), user.Roles)
	require.NoError(t, err)

	_, ok := f.resolver.Resolve(NewMemoryExchange(context.Background(), map[string]string{CookieName: issued.Value}))
	assert.False(t, ok)
	assert.Equal(t, 1, f.recorder.invalid[string(ReasonExpired)])
}

func TestResolve_NonNumericSubjectIsAnonymous(t *testing.T) {
	f := newFixture(t)
	issued, err := f.codec.Issue("not-a-number", nil)
	require.NoError(t, err)

	_, ok := f.resolver.Resolve(NewMemoryExchange(context.Background(), map[string]string{CookieName: issued.Value}))
	assert.False(t, ok)
}

func TestResolve_DeletedIdentityIsAnonymous(t *testing.T) {
	f := newFixture(t)
	user := f.account(t, "u@x.com", domain.RoleUser)
	ex := f.session(t, user)

	f.directory.Delete(user.ID)

	_, ok := f.resolver.Resolve(ex)
	assert.False(t, ok)
}

func TestResolve_RolesComeFromDirectory(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "a@x.com", domain.RoleAdmin, domain.RoleUser)
	ex := f.session(t, admin)

	f.directory.RevokeRole(admin.ID, domain.RoleAdmin)

	identity, ok := f.resolver.Resolve(ex)
	require.True(t, ok)
	assert.Equal(t, []string{domain.RoleUser}, identity.Roles)
}

type failingDirectory struct{}

func (failingDirectory) FindByID(context.Context, int64) (*domain.Identity, error) {
	return nil, errors.New("connection refused")
}

func TestResolve_DirectoryFailureIsAnonymous(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.DebugLevel)
	resolver := NewIdentityResolver(f.codec, f.transport, failingDirectory{}, zap.New(core), nil)

	issued, err := f.codec.Issue("1", nil)
	require.NoError(t, err)

	_, ok := resolver.Resolve(NewMemoryExchange(context.Background(), map[string]string{CookieName: issued.Value}))
	assert.False(t, ok)
	assert.Equal(t, 1, logs.FilterMessage("directory lookup failed").Len())
}

func TestResolve_AfterDetachIsAnonymous(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "a@x.com", domain.RoleAdmin)
	ex := f.session(t, admin)

	_, ok := f.resolver.Resolve(ex)
	require.True(t, ok)

	f.transport.Detach(ex)
	_, ok = f.resolver.Resolve(ex)
	assert.False(t, ok)
}
