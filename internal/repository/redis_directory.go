package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/session-auth/internal/domain"
)

// Key layout:
//
//	<prefix>seq            INCR counter for identity ids
//	<prefix>id:<id>        hash {email, password_hash, created_at}
//	<prefix>id:<id>:roles  set of role names granted to the identity
//	<prefix>email:<email>  identity id
//	<prefix>roles          set of known role names
type redisDirectory struct {
	client *redis.Client
	prefix string
}

// NewRedisDirectory returns a Redis-backed Directory.
func NewRedisDirectory(client *redis.Client) Directory {
	return &redisDirectory{client: client, prefix: "identity:"}
}

func (d *redisDirectory) idKey(id int64) string {
	return d.prefix + "id:" + strconv.FormatInt(id, 10)
}

func (d *redisDirectory) rolesKey(id int64) string {
	return d.idKey(id) + ":roles"
}

func (d *redisDirectory) emailKey(email string) string {
	return d.prefix + "email:" + email
}

func (d *redisDirectory) FindByID(ctx context.Context, id int64) (*domain.Identity, error) {
	account, err := d.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &account.Identity, nil
}

func (d *redisDirectory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	id, err := d.client.Get(ctx, d.emailKey(email)).Int64()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return d.load(ctx, id)
}

func (d *redisDirectory) load(ctx context.Context, id int64) (*domain.Account, error) {
	pipe := d.client.Pipeline()
	fieldsCmd := pipe.HGetAll(ctx, d.idKey(id))
	rolesCmd := pipe.SMembers(ctx, d.rolesKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	fields := fieldsCmd.Val()
	if len(fields) == 0 {
		return nil, ErrNotFound
	}

	createdAt, err := time.Parse(time.RFC3339, fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode created_at for identity %d: %w", id, err)
	}
	return &domain.Account{
		Identity:     domain.Identity{ID: id, Email: fields["email"], Roles: sortedRoles(rolesCmd.Val())},
		PasswordHash: fields["password_hash"],
		CreatedAt:    createdAt,
	}, nil
}

func (d *redisDirectory) Create(ctx context.Context, account *domain.Account) error {
	id, err := d.client.Incr(ctx, d.prefix+"seq").Result()
	if err != nil {
		return err
	}

	claimed, err := d.client.SetNX(ctx, d.emailKey(account.Email), id, 0).Result()
	if err != nil {
		return err
	}
	if !claimed {
		return ErrEmailTaken
	}

	account.ID = id
	account.CreatedAt = time.Now().UTC().Truncate(time.Second)
	account.Roles = sortedRoles(account.Roles)
	if err := d.store(ctx, account); err != nil {
		_ = d.client.Del(ctx, d.emailKey(account.Email)).Err()
		return err
	}
	return nil
}

func (d *redisDirectory) store(ctx context.Context, account *domain.Account) error {
	pipe := d.client.TxPipeline()
	pipe.HSet(ctx, d.idKey(account.ID),
		"email", account.Email,
		"password_hash", account.PasswordHash,
		"created_at", account.CreatedAt.Format(time.RFC3339),
	)
	d.grant(ctx, pipe, account.ID, account.Roles)
	_, err := pipe.Exec(ctx)
	return err
}

func (d *redisDirectory) grant(ctx context.Context, pipe redis.Pipeliner, id int64, roles []string) {
	if len(roles) == 0 {
		return
	}
	pipe.SAdd(ctx, d.rolesKey(id), toAny(roles)...)
	pipe.SAdd(ctx, d.prefix+"roles", toAny(roles)...)
}

// AssignRoles adds to the identity's role set with SADD, so concurrent grants
// never overwrite each other.
func (d *redisDirectory) AssignRoles(ctx context.Context, id int64, roles ...string) error {
	exists, err := d.client.Exists(ctx, d.idKey(id)).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}

	pipe := d.client.TxPipeline()
	d.grant(ctx, pipe, id, sortedRoles(roles))
	_, err = pipe.Exec(ctx)
	return err
}

func (d *redisDirectory) EnsureRoles(ctx context.Context, roles ...string) error {
	roles = sortedRoles(roles)
	if len(roles) == 0 {
		return nil
	}
	return d.client.SAdd(ctx, d.prefix+"roles", toAny(roles)...).Err()
}

func (d *redisDirectory) Ping(ctx context.Context) error {
	return d.client.Ping(ctx).Err()
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
