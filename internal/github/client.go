// internal/github/client.go
package github

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"repohub/internal/apperrors"
	"repohub/internal/model"
)

// Client is a wrapper around the go-github client. The zero token makes
// anonymous API calls; per-user tokens are applied with the token-taking
// methods so a signed-in owner's credential can raise the rate limit.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance. token is the
// default credential used when a call carries no owner-specific token; it
// may be empty for anonymous access.
func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{
		gh:     newGithubClient(token),
		logger: logger,
	}
}

func newGithubClient(token string) *github.Client {
	if token == "" {
		return github.NewClient(nil)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)
	return github.NewClient(tc)
}

// clientFor returns a go-github client authenticated as token, preserving
// any base URL override (used by tests). Empty token falls back to the
// default client.
func (c *Client) clientFor(token string) *github.Client {
	if token == "" {
		return c.gh
	}
	ghc := newGithubClient(token)
	ghc.BaseURL = c.gh.BaseURL
	ghc.UploadURL = c.gh.UploadURL
	return ghc
}

func splitFullName(fullName string) (string, string, error) {
	owner, name, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || name == "" {
		return "", "", &apperrors.ErrInvalidRepoName{Name: fullName}
	}
	return owner, name, nil
}

// GetRepository fetches a repository by qualified name and translates it to
// the raw payload shape the reconciler consumes.
func (c *Client) GetRepository(ctx context.Context, fullName string) (*model.RepoPayload, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return nil, err
	}
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, err
	}
	return toRepoPayload(repo), nil
}

// HasReleases reports whether a repository has published at least one
// release. A single-item page is enough: only emptiness is meaningful.
func (c *Client) HasReleases(ctx context.Context, fullName string) (bool, error) {
	owner, name, err := splitFullName(fullName)
	if err != nil {
		return false, err
	}
	releases, _, err := c.gh.Repositories.ListReleases(ctx, owner, name, &github.ListOptions{PerPage: 1})
	if err != nil {
		return false, err
	}
	return len(releases) > 0, nil
}

// GetAuthenticatedUser fetches the profile of the user the token belongs to.
func (c *Client) GetAuthenticatedUser(ctx context.Context, token string) (*model.AccountPayload, error) {
	u, _, err := c.clientFor(token).Users.Get(ctx, "")
	if err != nil {
		return nil, err
	}
	return &model.AccountPayload{
		ID:    u.GetID(),
		Login: u.GetLogin(),
		Name:  u.Name,
		Email: u.Email,
	}, nil
}

// ListUserOrganizations lists the organizations of the token's user. It
// handles API pagination transparently.
func (c *Client) ListUserOrganizations(ctx context.Context, token string) ([]model.OwnerPayload, error) {
	gh := c.clientFor(token)
	opts := &github.ListOptions{PerPage: 100}

	var all []model.OwnerPayload
	for {
		orgs, resp, err := gh.Organizations.List(ctx, "", opts)
		if err != nil {
			return nil, err
		}
		for _, org := range orgs {
			all = append(all, model.OwnerPayload{
				ID:    org.GetID(),
				Type:  "Organization",
				Login: org.GetLogin(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// ListUserRepositories lists the repositories the token's user owns,
// translated to raw payloads ready for reconciliation.
func (c *Client) ListUserRepositories(ctx context.Context, token string) ([]model.RepoPayload, error) {
	gh := c.clientFor(token)
	opts := &github.RepositoryListByAuthenticatedUserOptions{
		Type:        "owner",
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var all []model.RepoPayload
	for {
		c.logger.Debug("Fetching repositories page", "page", opts.Page)

		repos, resp, err := gh.Repositories.ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			return nil, err
		}
		for _, repo := range repos {
			all = append(all, *toRepoPayload(repo))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// toRepoPayload translates a github.Repository object to the internal raw
// payload shape.
func toRepoPayload(r *github.Repository) *model.RepoPayload {
	p := &model.RepoPayload{
		ID:          r.GetID(),
		FullName:    r.GetFullName(),
		Description: r.Description,
		Private:     r.GetPrivate(),
		Fork:        r.GetFork(),
		HasIssues:   r.GetHasIssues(),
		Archived:    r.GetArchived(),
		Disabled:    r.GetDisabled(),
		Language:    r.Language,
		Owner: model.OwnerPayload{
			ID:    r.GetOwner().GetID(),
			Type:  r.GetOwner().GetType(),
			Login: r.GetOwner().GetLogin(),
		},
	}
	if r.License != nil {
		p.LicenseSPDX = r.License.SPDXID
	}
	return p
}
