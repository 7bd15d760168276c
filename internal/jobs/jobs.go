// internal/jobs/jobs.go
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"repohub/internal/model"
	"repohub/internal/store"
)

// Provider is the subset of the GitHub client the jobs depend on. Each call
// runs with the credential of the owner the batch belongs to, falling back
// to the service default when the owner carries none.
type Provider interface {
	GetAuthenticatedUser(ctx context.Context, token string) (*model.AccountPayload, error)
	ListUserOrganizations(ctx context.Context, token string) ([]model.OwnerPayload, error)
	ListUserRepositories(ctx context.Context, token string) ([]model.RepoPayload, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, payload *model.RepoPayload, force bool) (*model.Repository, error)
}

// Runner holds the three post-sign-in synchronization jobs. The jobs of one
// batch run with no ordering guarantee relative to each other, so each is
// written to be re-entrant against partial completion of its siblings.
type Runner struct {
	store      store.Store
	provider   Provider
	reconciler Reconciler
	logger     *slog.Logger
}

func NewRunner(st store.Store, provider Provider, reconciler Reconciler, logger *slog.Logger) *Runner {
	return &Runner{
		store:      st,
		provider:   provider,
		reconciler: reconciler,
		logger:     logger,
	}
}

// DispatchBatch submits the post-sign-in batch for a user: refresh the
// profile, sync organizations, load repositories. The triggering request
// does not wait for any of them.
func (r *Runner) DispatchBatch(q *Queue, user model.User) {
	q.Enqueue(Task{
		Name: fmt.Sprintf("update-user-details(%d)", user.ID),
		Run:  func(ctx context.Context) error { return r.UpdateUserDetails(ctx, user) },
	})
	q.Enqueue(Task{
		Name: fmt.Sprintf("sync-user-organizations(%d)", user.ID),
		Run:  func(ctx context.Context) error { return r.SyncUserOrganizations(ctx, user) },
	})
	q.Enqueue(Task{
		Name: fmt.Sprintf("load-user-repositories(%d)", user.ID),
		Run:  func(ctx context.Context) error { return r.LoadUserRepositories(ctx, user) },
	})
}

// UpdateUserDetails refetches the user's profile with their own credential
// and refreshes the stored record.
func (r *Runner) UpdateUserDetails(ctx context.Context, user model.User) error {
	token, _ := model.UserOwner(user).Credential()
	account, err := r.provider.GetAuthenticatedUser(ctx, token)
	if err != nil {
		return err
	}
	_, err = r.store.UpsertUser(ctx, store.UpsertUserParams{
		ID:       account.ID,
		Login:    account.Login,
		Email:    account.Email,
		FullName: account.Name,
	})
	return err
}

// SyncUserOrganizations upserts every organization the user belongs to.
func (r *Runner) SyncUserOrganizations(ctx context.Context, user model.User) error {
	token, _ := model.UserOwner(user).Credential()
	orgs, err := r.provider.ListUserOrganizations(ctx, token)
	if err != nil {
		return err
	}
	for _, org := range orgs {
		if _, err := r.store.UpsertOrganization(ctx, store.UpsertOrganizationParams{
			ID:    org.ID,
			Login: org.Login,
		}); err != nil {
			return err
		}
	}
	r.logger.Info("Synced user organizations", "user", user.Login, "count", len(orgs))
	return nil
}

// LoadUserRepositories reconciles every repository the user owns and records
// the user as a contributor on each accepted one. Rejected payloads are
// skipped; the reconciler has already reported them.
func (r *Runner) LoadUserRepositories(ctx context.Context, user model.User) error {
	token, _ := model.UserOwner(user).Credential()
	payloads, err := r.provider.ListUserRepositories(ctx, token)
	if err != nil {
		return err
	}

	var accepted int
	for i := range payloads {
		repo, err := r.reconciler.Reconcile(ctx, &payloads[i], false)
		if err != nil {
			return err
		}
		if repo == nil {
			continue
		}
		if err := r.store.AddContributor(ctx, repo.ID, user.ID); err != nil {
			return err
		}
		accepted++
	}
	r.logger.Info("Loaded user repositories", "user", user.Login, "fetched", len(payloads), "accepted", accepted)
	return nil
}
