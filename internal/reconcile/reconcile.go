// internal/reconcile/reconcile.go
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"repohub/internal/apperrors"
	"repohub/internal/model"
	"repohub/internal/store"
)

// Provider is the subset of the GitHub client the reconciler depends on.
type Provider interface {
	GetRepository(ctx context.Context, fullName string) (*model.RepoPayload, error)
	HasReleases(ctx context.Context, fullName string) (bool, error)
}

// Reconciler turns raw GitHub repository payloads into persisted
// repositories. It is best-effort: data-quality rejections and persistence
// failures report diagnostics and yield no repository instead of failing the
// caller. Only transport errors and contract violations propagate.
type Reconciler struct {
	store    store.Store
	provider Provider
	reporter Reporter
	logger   *slog.Logger
}

func New(st store.Store, provider Provider, reporter Reporter, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		store:    st,
		provider: provider,
		reporter: reporter,
		logger:   logger,
	}
}

// Reconcile decides whether the payload describes a repository worth keeping
// and persists it under its resolved owner.
//
// A missing language or license rejects the payload no matter what. Unless
// force is set, private, forked, issue-less, archived and disabled
// repositories are rejected too, as are repositories without a single
// published release; force skips those gates entirely, including the
// releases lookup. A rejected payload is reported for offline audit and
// yields (nil, nil): callers must treat that as a no-op, not an error.
//
// On accept, the repository is created under its owner keyed by the external
// ID. If a row for (owner, id) already exists it is returned unmodified —
// this path intentionally never refreshes attributes, so moderation edits
// survive re-reconciliation. Owner records, by contrast, are upserted.
func (r *Reconciler) Reconcile(ctx context.Context, payload *model.RepoPayload, force bool) (*model.Repository, error) {
	if payload.Language == nil || payload.LicenseSPDX == nil {
		r.reject(ctx, payload, "missing language or license")
		return nil, nil
	}

	if !force {
		if payload.Private || payload.Fork || !payload.HasIssues || payload.Archived || payload.Disabled {
			r.reject(ctx, payload, "quality gate")
			return nil, nil
		}
		released, err := r.provider.HasReleases(ctx, payload.FullName)
		if err != nil {
			return nil, err
		}
		if !released {
			r.reject(ctx, payload, "no releases")
			return nil, nil
		}
	}

	owner, err := r.resolveOwner(ctx, payload.Owner)
	if err != nil {
		return nil, err
	}

	// Enum membership is checked at persist time, after the owner upsert:
	// a payload with an out-of-set language or license still resolves its
	// owner, then fails the repository write like any other persistence
	// problem.
	language := model.Language(*payload.Language)
	license := model.License(*payload.LicenseSPDX)
	if !language.Valid() || !license.Valid() {
		r.reporter.ReportPayload(ctx, payload)
		r.reporter.ReportError(ctx, fmt.Errorf("failed to create repository %q: language %q or license %q is outside the known set",
			payload.FullName, language, license))
		return nil, nil
	}

	repo, err := r.store.CreateRepositoryIfAbsent(ctx, store.CreateRepositoryParams{
		ID:          payload.ID,
		Name:        payload.FullName,
		Description: payload.Description,
		Language:    language,
		License:     license,
		OwnerKind:   owner.Kind,
		OwnerID:     owner.ID,
	})
	if err != nil {
		r.reporter.ReportPayload(ctx, payload)
		r.reporter.ReportError(ctx, fmt.Errorf("failed to create repository %q: %w", payload.FullName, err))
		return nil, nil
	}

	return &repo, nil
}

// ReconcileByName resolves a repository by qualified name: an existing row
// (matched case-insensitively) wins, otherwise the payload is fetched from
// the API and reconciled.
func (r *Reconciler) ReconcileByName(ctx context.Context, name string, force bool) (*model.Repository, error) {
	repo, err := r.store.GetRepositoryByName(ctx, name)
	if err == nil {
		return &repo, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	payload, err := r.provider.GetRepository(ctx, name)
	if err != nil {
		return nil, err
	}
	return r.Reconcile(ctx, payload, force)
}

// resolveOwner dispatches on the payload's owner type and upserts the
// matching owner variant. An unrecognized type is a contract violation from
// the API and propagates; nothing is written in that case.
func (r *Reconciler) resolveOwner(ctx context.Context, payload model.OwnerPayload) (model.OwnerRef, error) {
	switch payload.Type {
	case "Organization":
		org, err := r.store.UpsertOrganization(ctx, store.UpsertOrganizationParams{
			ID:    payload.ID,
			Login: payload.Login,
		})
		if err != nil {
			return model.OwnerRef{}, err
		}
		return model.OrganizationOwner(org), nil
	case "User":
		user, err := r.store.UpsertUser(ctx, store.UpsertUserParams{
			ID:    payload.ID,
			Login: payload.Login,
		})
		if err != nil {
			return model.OwnerRef{}, err
		}
		return model.UserOwner(user), nil
	default:
		return model.OwnerRef{}, &apperrors.ErrUnknownOwnerKind{Kind: payload.Type}
	}
}

func (r *Reconciler) reject(ctx context.Context, payload *model.RepoPayload, reason string) {
	r.logger.Debug("Rejected repository payload", "repo", payload.FullName, "reason", reason)
	r.reporter.ReportPayload(ctx, payload)
}
