package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/session-auth/internal/auth"
	"github.com/spec-kit/session-auth/internal/domain"
	"github.com/spec-kit/session-auth/internal/events"
	"github.com/spec-kit/session-auth/internal/repository"
)

var (
	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrMissingCredentials is returned when email or password is empty.
	ErrMissingCredentials = errors.New("email and password required")
)

// DefaultRoles are granted to self-registered accounts.
var DefaultRoles = []string{domain.RoleUser}

// AuthService coordinates registration, login and logout flows.
type AuthService struct {
	directory  repository.Directory
	hasher     auth.Hasher
	codec      *auth.TokenCodec
	transport  *auth.SessionTransport
	dispatcher events.Dispatcher
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	Directory  repository.Directory
	Hasher     auth.Hasher
	Codec      *auth.TokenCodec
	Transport  *auth.SessionTransport
	Dispatcher events.Dispatcher
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		directory:  deps.Directory,
		hasher:     deps.Hasher,
		codec:      deps.Codec,
		transport:  deps.Transport,
		dispatcher: deps.Dispatcher,
	}
}

// Register creates a new account holding DefaultRoles.
func (s *AuthService) Register(ctx context.Context, email, password string) (*domain.Identity, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	if _, err := s.directory.FindByEmail(ctx, email); err == nil {
		return nil, repository.ErrEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		Identity:     domain.Identity{Email: email, Roles: append([]string(nil), DefaultRoles...)},
		PasswordHash: hash,
	}
	if err := s.directory.Create(ctx, account); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventRegistered, &account.ID, events.LoginPayload{Email: email})
	return &account.Identity, nil
}

// Login verifies credentials, issues a session token and attaches it to ex.
func (s *AuthService) Login(ctx context.Context, ex auth.Exchange, email, password string) (*domain.Identity, domain.IssuedToken, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, domain.IssuedToken{}, ErrMissingCredentials
	}

	account, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.publish(ctx, events.EventLoginFailed, nil, events.LoginPayload{Email: email})
			return nil, domain.IssuedToken{}, ErrInvalidCredentials
		}
		return nil, domain.IssuedToken{}, err
	}
	if !s.hasher.Compare(password, account.PasswordHash) {
		s.publish(ctx, events.EventLoginFailed, &account.ID, events.LoginPayload{Email: email})
		return nil, domain.IssuedToken{}, ErrInvalidCredentials
	}

	token, err := s.codec.Issue(strconv.FormatInt(account.ID, 10), account.Roles)
	if err != nil {
		return nil, domain.IssuedToken{}, err
	}
	s.transport.Attach(ex, token.Value)

	s.publish(ctx, events.EventLoginSucceeded, &account.ID, events.LoginPayload{Email: email, Roles: token.Claims.Roles})
	return &account.Identity, token, nil
}

// Logout clears the session cookie. identity may be nil for anonymous callers.
func (s *AuthService) Logout(ctx context.Context, ex auth.Exchange, identity *domain.Identity) {
	s.transport.Detach(ex)

	var id *int64
	if identity != nil {
		id = &identity.ID
	}
	s.publish(ctx, events.EventLogout, id, nil)
}

func (s *AuthService) publish(ctx context.Context, eventType events.EventType, identityID *int64, payload any) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		IdentityID: identityID,
		Timestamp:  time.Now().UTC(),
		Payload:    payload,
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
