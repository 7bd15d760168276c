// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/rs/xid"

	"repohub/internal/auth"
	"repohub/internal/jobs"
	"repohub/internal/model"
	"repohub/internal/store"
)

const stateCookie = "oauth_state"
const sessionCookie = "session"

// OAuthProvider is the part of the OAuth flow the handler needs; the
// concrete implementation talks to GitHub.
type OAuthProvider interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*auth.GithubAccount, error)
}

// Reconciler resolves a repository by qualified name, fetching and running
// the payload through the acceptance gates on a miss.
type Reconciler interface {
	ReconcileByName(ctx context.Context, name string, force bool) (*model.Repository, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	db         store.Store
	oauth      OAuthProvider
	sessions   *auth.Sessions
	reconciler Reconciler
	runner     *jobs.Runner
	queue      *jobs.Queue
	logger     *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(db store.Store, oauth OAuthProvider, sessions *auth.Sessions, reconciler Reconciler, runner *jobs.Runner, queue *jobs.Queue, logger *slog.Logger) http.Handler {
	h := &Handler{
		db:         db,
		oauth:      oauth,
		sessions:   sessions,
		reconciler: reconciler,
		runner:     runner,
		queue:      queue,
		logger:     logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)

	r.Get("/auth/github", h.githubRedirect)
	r.Get("/auth/github/callback", h.githubCallback)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/repos", h.listRepositories)
		r.Get("/repos/{vendor}/{name}", h.getRepository)
		r.Get("/repos/{vendor}/{name}/contributors", h.getContributors)
		r.Post("/repos/{vendor}/{name}/sync", h.syncRepository)
		r.Post("/repos/{vendor}/{name}/block", h.blockRepository)
		r.Delete("/repos/{vendor}/{name}/block", h.unblockRepository)
	})

	return r
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// githubRedirect starts the sign-in flow: store an anti-forgery state in a
// short-lived cookie and send the browser to GitHub.
// GET /auth/github
func (h *Handler) githubRedirect(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   600,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, h.oauth.AuthURL(state), http.StatusTemporaryRedirect)
}

// githubCallback completes the sign-in flow.
// GET /auth/github/callback?code=...&state=...
//
// A state mismatch (replayed or forged callback) silently redirects home.
// A blocked user is refused with 403 before any session is established. The
// heavy synchronization work is dispatched as a background batch; the
// response never waits for it and never reflects its failures.
func (h *Handler) githubCallback(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || r.URL.Query().Get("state") != cookie.Value {
		h.logger.Warn("OAuth callback state mismatch")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	// State is single-use
	http.SetCookie(w, &http.Cookie{Name: stateCookie, Value: "", Path: "/", MaxAge: -1})

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Missing OAuth code")
		return
	}

	account, err := h.oauth.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("OAuth exchange failed", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	user, err := h.db.UpsertUser(r.Context(), store.UpsertUserParams{
		ID:          account.ID,
		Login:       account.Login,
		Email:       account.Email,
		FullName:    account.Name,
		AccessToken: &account.Token,
	})
	if err != nil {
		h.logger.Error("Failed to upsert user", "github_id", account.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	if user.IsBlocked() {
		respondWithError(w, http.StatusForbidden, "Account is blocked")
		return
	}

	if !user.HasVerifiedEmail() {
		if err := h.db.MarkEmailVerified(r.Context(), user.ID); err != nil {
			h.logger.Error("Failed to mark email verified", "user", user.ID, "error", err)
		}
	}

	h.runner.DispatchBatch(h.queue, user)

	token, err := h.sessions.Issue(user.ID)
	if err != nil {
		h.logger.Error("Failed to issue session", "user", user.ID, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Authentication failed")
		return
	}

	// No Max-Age: the session cookie dies with the browser session.
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("User signed in", "user", user.ID, "login", user.Login)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type repositoryResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Vendor      string  `json:"vendor"`
	Repository  string  `json:"repository"`
	Description *string `json:"description"`
	Language    *string `json:"language"`
	License     *string `json:"license"`
	GithubURL   string  `json:"github_url"`
	Blocked     bool    `json:"blocked"`
}

func toRepositoryResponse(r model.Repository) repositoryResponse {
	resp := repositoryResponse{
		ID:          r.ID,
		Name:        r.Name,
		Vendor:      r.VendorName(),
		Repository:  r.RepositoryName(),
		Description: r.Description,
		GithubURL:   r.GithubURL(),
		Blocked:     r.IsBlocked(),
	}
	if r.Language != nil {
		s := string(*r.Language)
		resp.Language = &s
	}
	if r.License != nil {
		s := string(*r.License)
		resp.License = &s
	}
	return resp
}

// listRepositories returns all repositories, ascending by qualified name.
// GET /v1/repos
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.db.ListRepositories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	out := make([]repositoryResponse, 0, len(repos))
	for _, repo := range repos {
		out = append(out, toRepositoryResponse(repo))
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (h *Handler) lookupRepository(w http.ResponseWriter, r *http.Request) (model.Repository, bool) {
	name := chi.URLParam(r, "vendor") + "/" + chi.URLParam(r, "name")
	repo, err := h.db.GetRepositoryByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return model.Repository{}, false
		}
		h.logger.Error("Failed to get repository", "name", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return model.Repository{}, false
	}
	return repo, true
}

// GET /v1/repos/{vendor}/{name}
func (h *Handler) getRepository(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookupRepository(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, toRepositoryResponse(repo))
}

// GET /v1/repos/{vendor}/{name}/contributors
func (h *Handler) getContributors(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookupRepository(w, r)
	if !ok {
		return
	}

	users, err := h.db.ListContributors(r.Context(), repo.ID)
	if err != nil {
		h.logger.Error("Failed to list contributors", "repo", repo.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	type contributor struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
	}
	out := make([]contributor, 0, len(users))
	for _, u := range users {
		out = append(out, contributor{ID: u.ID, Login: u.Login})
	}
	respondWithJSON(w, http.StatusOK, out)
}

// syncRepository reconciles a repository on demand. An already-tracked row
// is returned as-is; otherwise the payload is fetched from the API and run
// through the acceptance gates, which force=true skips. A rejected payload
// answers 422 since the diagnostics land in the report channel, not here.
// POST /v1/repos/{vendor}/{name}/sync?force=true
func (h *Handler) syncRepository(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "vendor") + "/" + chi.URLParam(r, "name")
	force := r.URL.Query().Get("force") == "true"

	repo, err := h.reconciler.ReconcileByName(r.Context(), name, force)
	if err != nil {
		h.logger.Error("Failed to sync repository", "name", name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if repo == nil {
		respondWithError(w, http.StatusUnprocessableEntity, "Repository was not accepted")
		return
	}
	respondWithJSON(w, http.StatusOK, toRepositoryResponse(*repo))
}

// blockRepository applies a moderation reason to a repository. The blocked
// timestamp is derived by the store, never accepted from the request.
// POST /v1/repos/{vendor}/{name}/block  {"reason": "SPAM"}
func (h *Handler) blockRepository(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookupRepository(w, r)
	if !ok {
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	reason := model.BlockReason(body.Reason)
	if !reason.Valid() {
		respondWithError(w, http.StatusUnprocessableEntity, "Unknown block reason")
		return
	}

	updated, err := h.db.SetRepositoryBlockReason(r.Context(), repo.ID, &reason)
	if err != nil {
		h.logger.Error("Failed to block repository", "repo", repo.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, toRepositoryResponse(updated))
}

// DELETE /v1/repos/{vendor}/{name}/block
func (h *Handler) unblockRepository(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookupRepository(w, r)
	if !ok {
		return
	}

	updated, err := h.db.SetRepositoryBlockReason(r.Context(), repo.ID, nil)
	if err != nil {
		h.logger.Error("Failed to unblock repository", "repo", repo.Name, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, toRepositoryResponse(updated))
}
