package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/session-auth/internal/domain"
)

const pgUniqueViolation = "23505"

type postgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory returns a Postgres-backed Directory.
func NewPostgresDirectory(pool *pgxpool.Pool) Directory {
	return &postgresDirectory{pool: pool}
}

const pgSelectIdentity = `
        SELECT u.id, u.email, u.password_hash, u.created_at,
               COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}')
        FROM users u
        LEFT JOIN user_roles ur ON ur.user_id = u.id
        LEFT JOIN roles r ON r.id = ur.role_id`

func (d *postgresDirectory) FindByID(ctx context.Context, id int64) (*domain.Identity, error) {
	account, err := d.scanAccount(d.pool.QueryRow(ctx, pgSelectIdentity+`
        WHERE u.id = $1
        GROUP BY u.id`, id))
	if err != nil {
		return nil, err
	}
	return &account.Identity, nil
}

func (d *postgresDirectory) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return d.scanAccount(d.pool.QueryRow(ctx, pgSelectIdentity+`
        WHERE u.email = $1
        GROUP BY u.id`, email))
}

func (d *postgresDirectory) scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.Roles,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (d *postgresDirectory) Create(ctx context.Context, account *domain.Account) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO users (email, password_hash)
        VALUES ($1, $2)
        RETURNING id, created_at`

	if err := tx.QueryRow(ctx, query, account.Email, account.PasswordHash).
		Scan(&account.ID, &account.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrEmailTaken
		}
		return err
	}

	account.Roles = sortedRoles(account.Roles)
	if err := pgGrantRoles(ctx, tx, account.ID, account.Roles); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (d *postgresDirectory) AssignRoles(ctx context.Context, id int64, roles ...string) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var exists bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	if err := pgGrantRoles(ctx, tx, id, sortedRoles(roles)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (d *postgresDirectory) EnsureRoles(ctx context.Context, roles ...string) error {
	for _, role := range sortedRoles(roles) {
		if _, err := d.pool.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, role); err != nil {
			return fmt.Errorf("ensure role %s: %w", role, err)
		}
	}
	return nil
}

func (d *postgresDirectory) Ping(ctx context.Context) error {
	if d.pool == nil {
		return errors.New("postgres pool not configured")
	}
	return d.pool.Ping(ctx)
}

func pgGrantRoles(ctx context.Context, tx pgx.Tx, userID int64, roles []string) error {
	for _, role := range roles {
		if _, err := tx.Exec(ctx, `INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, role); err != nil {
			return fmt.Errorf("ensure role %s: %w", role, err)
		}
		const grant = `
            INSERT INTO user_roles (user_id, role_id)
            SELECT $1, id FROM roles WHERE name = $2
            ON CONFLICT DO NOTHING`
		if _, err := tx.Exec(ctx, grant, userID, role); err != nil {
			return fmt.Errorf("grant role %s: %w", role, err)
		}
	}
	return nil
}
