// internal/store/postgres.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"repohub/internal/model"
)

// Postgres implements Store on a pgx connection pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// compile-time check that *Postgres implements Store
var _ Store = (*Postgres)(nil)

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

const repositoryColumns = `id, name, description, language, license, owner_kind, owner_id, block_reason, blocked_at, created_at, updated_at`

func scanRepository(row pgx.Row) (model.Repository, error) {
	var (
		r           model.Repository
		language    *string
		license     *string
		blockReason *string
		ownerKind   string
	)
	err := row.Scan(&r.ID, &r.Name, &r.Description, &language, &license, &ownerKind, &r.OwnerID, &blockReason, &r.BlockedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return model.Repository{}, err
	}
	r.OwnerKind = model.OwnerKind(ownerKind)
	if language != nil {
		l := model.Language(*language)
		r.Language = &l
	}
	if license != nil {
		l := model.License(*license)
		r.License = &l
	}
	if blockReason != nil {
		b := model.BlockReason(*blockReason)
		r.BlockReason = &b
	}
	return r, nil
}

// CreateRepositoryIfAbsent returns the existing row for (owner, id) unchanged
// when present; only on a miss does it insert. A lost creation race surfaces
// as the driver's unique-violation error, which callers treat as recoverable.
func (p *Postgres) CreateRepositoryIfAbsent(ctx context.Context, arg CreateRepositoryParams) (model.Repository, error) {
	if !arg.Language.Valid() {
		return model.Repository{}, fmt.Errorf("store: unknown language %q", arg.Language)
	}
	if !arg.License.Valid() {
		return model.Repository{}, fmt.Errorf("store: unknown license %q", arg.License)
	}

	existing, err := scanRepository(p.pool.QueryRow(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE id = $1 AND owner_kind = $2 AND owner_id = $3`,
		arg.ID, arg.OwnerKind, arg.OwnerID,
	))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Repository{}, err
	}

	return scanRepository(p.pool.QueryRow(ctx,
		`INSERT INTO repositories (id, name, description, language, license, owner_kind, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+repositoryColumns,
		arg.ID, arg.Name, arg.Description, arg.Language, arg.License, arg.OwnerKind, arg.OwnerID,
	))
}

func (p *Postgres) GetRepositoryByName(ctx context.Context, name string) (model.Repository, error) {
	return scanRepository(p.pool.QueryRow(ctx,
		`SELECT `+repositoryColumns+` FROM repositories WHERE LOWER(name) = LOWER($1)`,
		name,
	))
}

// ListRepositories always returns repositories in ascending name order; the
// ordering is part of the listing contract, not a caller convenience.
func (p *Postgres) ListRepositories(ctx context.Context) ([]model.Repository, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+repositoryColumns+` FROM repositories ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		r, err := scanRepository(rows)
		if err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

func (p *Postgres) SetRepositoryBlockReason(ctx context.Context, id int64, reason *model.BlockReason) (model.Repository, error) {
	if reason != nil && !reason.Valid() {
		return model.Repository{}, errors.New("store: invalid block reason")
	}
	reasonStr, blockedAt := blockState(reason, time.Now())
	return scanRepository(p.pool.QueryRow(ctx,
		`UPDATE repositories SET block_reason = $2, blocked_at = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+repositoryColumns,
		id, reasonStr, blockedAt,
	))
}

func (p *Postgres) AddContributor(ctx context.Context, repositoryID, userID int64) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO repository_user (repository_id, user_id)
		 VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`,
		repositoryID, userID,
	)
	return err
}

func (p *Postgres) ListContributors(ctx context.Context, repositoryID int64) ([]model.User, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT `+userColumns+` FROM users u
		 JOIN repository_user ru ON ru.user_id = u.id
		 WHERE ru.repository_id = $1
		 ORDER BY u.login ASC`,
		repositoryID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

const userColumns = `id, login, email, full_name, github_access_token, email_verified_at, block_reason, blocked_at, created_at, updated_at`

func scanUser(row pgx.Row) (model.User, error) {
	var (
		u           model.User
		blockReason *string
	)
	err := row.Scan(&u.ID, &u.Login, &u.Email, &u.FullName, &u.GithubAccessToken, &u.EmailVerifiedAt, &blockReason, &u.BlockedAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if blockReason != nil {
		b := model.BlockReason(*blockReason)
		u.BlockReason = &b
	}
	return u, nil
}

// UpsertUser creates or refreshes a user by external ID. Optional params left
// nil keep the stored value, and the blocked timestamp is re-derived from the
// stored block_reason on every update.
func (p *Postgres) UpsertUser(ctx context.Context, arg UpsertUserParams) (model.User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		`INSERT INTO users (id, login, email, full_name, github_access_token)
		 VALUES ($1, $2, $3, $4, COALESCE($5, ''))
		 ON CONFLICT (id) DO UPDATE SET
		   login = EXCLUDED.login,
		   email = COALESCE($3, users.email),
		   full_name = COALESCE($4, users.full_name),
		   github_access_token = COALESCE($5, users.github_access_token),
		   blocked_at = CASE WHEN users.block_reason IS NULL THEN NULL ELSE now() END,
		   updated_at = now()
		 RETURNING `+userColumns,
		arg.ID, arg.Login, arg.Email, arg.FullName, arg.AccessToken,
	))
}

func (p *Postgres) GetUser(ctx context.Context, id int64) (model.User, error) {
	return scanUser(p.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (p *Postgres) SetUserBlockReason(ctx context.Context, id int64, reason *model.BlockReason) (model.User, error) {
	if reason != nil && !reason.Valid() {
		return model.User{}, errors.New("store: invalid block reason")
	}
	reasonStr, blockedAt := blockState(reason, time.Now())
	return scanUser(p.pool.QueryRow(ctx,
		`UPDATE users SET block_reason = $2, blocked_at = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, reasonStr, blockedAt,
	))
}

func (p *Postgres) MarkEmailVerified(ctx context.Context, id int64) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE users SET email_verified_at = now(), updated_at = now()
		 WHERE id = $1 AND email_verified_at IS NULL`,
		id,
	)
	return err
}

const organizationColumns = `id, login, created_at, updated_at`

func (p *Postgres) UpsertOrganization(ctx context.Context, arg UpsertOrganizationParams) (model.Organization, error) {
	var o model.Organization
	err := p.pool.QueryRow(ctx,
		`INSERT INTO organizations (id, login)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET
		   login = EXCLUDED.login,
		   updated_at = now()
		 RETURNING `+organizationColumns,
		arg.ID, arg.Login,
	).Scan(&o.ID, &o.Login, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}
