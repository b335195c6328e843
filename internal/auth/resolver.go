package auth

import (
	"context"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/spec-kit/session-auth/internal/domain"
	"github.com/spec-kit/session-auth/internal/repository"
)

// IdentityFinder is the part of the directory the resolver needs.
type IdentityFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.Identity, error)
}

// Recorder receives auth outcomes for metrics.
type Recorder interface {
	RecordInvalidToken(reason string)
	RecordDecision(granted bool)
}

type nopRecorder struct{}

func (nopRecorder) RecordInvalidToken(string) {}
func (nopRecorder) RecordDecision(bool)       {}

// IdentityResolver turns the session cookie of an exchange into a live identity.
// Every failure collapses to anonymous; reasons are only logged.
type IdentityResolver struct {
	codec     *TokenCodec
	transport *SessionTransport
	directory IdentityFinder
	logger    *zap.Logger
	recorder  Recorder
}

// NewIdentityResolver wires the resolver. logger and recorder may be nil.
func NewIdentityResolver(codec *TokenCodec, transport *SessionTransport, directory IdentityFinder, logger *zap.Logger, recorder Recorder) *IdentityResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &IdentityResolver{
		codec:     codec,
		transport: transport,
		directory: directory,
		logger:    logger,
		recorder:  recorder,
	}
}

// Resolve returns the caller's current identity, or false when anonymous.
// Roles come from the directory, not from the token.
func (r *IdentityResolver) Resolve(ex Exchange) (domain.Identity, bool) {
	token, ok := r.transport.CurrentToken(ex)
	if !ok {
		return domain.Identity{}, false
	}

	result := r.codec.Parse(token)
	if !result.Valid() {
		r.recorder.RecordInvalidToken(string(result.Reason))
		r.logger.Debug("session token rejected", zap.String("reason", string(result.Reason)))
		return domain.Identity{}, false
	}

	id, err := strconv.ParseInt(result.Claims.Subject, 10, 64)
	if err != nil {
		r.recorder.RecordInvalidToken(string(ReasonClaims))
		r.logger.Debug("session subject is not an identity id")
		return domain.Identity{}, false
	}

	identity, err := r.directory.FindByID(ex.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			r.logger.Debug("session subject no longer exists", zap.Int64("identity_id", id))
		} else {
			r.logger.Error("directory lookup failed", zap.Int64("identity_id", id), zap.Error(err))
		}
		return domain.Identity{}, false
	}
	if identity == nil {
		return domain.Identity{}, false
	}
	return *identity, true
}
