// internal/store/store.go
package store

import (
	"context"

	"repohub/internal/model"
)

// CreateRepositoryParams carries the attributes persisted when a reconciled
// payload is accepted. ID is the external repository ID.
type CreateRepositoryParams struct {
	ID          int64
	Name        string
	Description *string
	Language    model.Language
	License     model.License
	OwnerKind   model.OwnerKind
	OwnerID     int64
}

// UpsertUserParams upserts a user by external ID. Nil optional fields leave
// the stored column untouched, so resolving an owner from a nested payload
// never clobbers profile data captured at sign-in.
type UpsertUserParams struct {
	ID          int64
	Login       string
	Email       *string
	FullName    *string
	AccessToken *string
}

type UpsertOrganizationParams struct {
	ID    int64
	Login string
}

// Store is the persistence contract for the reconciliation subsystem. All
// create-or-fetch and upsert operations are keyed by external numeric IDs;
// duplicate prevention relies on database uniqueness constraints, so the
// methods are safe to call from concurrent uncoordinated workers.
type Store interface {
	// CreateRepositoryIfAbsent creates the repository under the given owner
	// or returns the existing row unmodified. Existing rows are deliberately
	// not refreshed on repeat reconciliation.
	CreateRepositoryIfAbsent(ctx context.Context, arg CreateRepositoryParams) (model.Repository, error)
	// GetRepositoryByName looks a repository up by qualified name,
	// case-insensitively. Returns pgx.ErrNoRows on miss.
	GetRepositoryByName(ctx context.Context, name string) (model.Repository, error)
	// ListRepositories returns all repositories in ascending name order.
	ListRepositories(ctx context.Context) ([]model.Repository, error)
	// SetRepositoryBlockReason sets or clears the moderation reason. The
	// blocked timestamp is derived from the reason, never passed in.
	SetRepositoryBlockReason(ctx context.Context, id int64, reason *model.BlockReason) (model.Repository, error)
	AddContributor(ctx context.Context, repositoryID, userID int64) error
	ListContributors(ctx context.Context, repositoryID int64) ([]model.User, error)

	UpsertUser(ctx context.Context, arg UpsertUserParams) (model.User, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	SetUserBlockReason(ctx context.Context, id int64, reason *model.BlockReason) (model.User, error)
	MarkEmailVerified(ctx context.Context, id int64) error

	UpsertOrganization(ctx context.Context, arg UpsertOrganizationParams) (model.Organization, error)
}
