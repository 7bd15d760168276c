// internal/auth/oauth.go
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// GithubAccount is the slice of the GitHub /user response the sign-in flow
// needs, plus the access token obtained in the exchange. The token is stored
// with the user for elevated API calls later.
type GithubAccount struct {
	ID    int64   `json:"id"`
	Login string  `json:"login"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Token string  `json:"-"`
}

// GithubOAuth drives the GitHub authorization-code flow.
type GithubOAuth struct {
	config *oauth2.Config
	apiURL string
}

// NewGithubOAuth configures the flow for the registered OAuth app.
// callbackURL must match the app's configured authorization callback URL.
func NewGithubOAuth(clientID, clientSecret, callbackURL string) *GithubOAuth {
	return &GithubOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		apiURL: "https://api.github.com",
	}
}

// AuthURL returns the provider authorization URL carrying the given
// anti-forgery state.
func (g *GithubOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for the authenticated user's profile.
func (g *GithubOAuth) Exchange(ctx context.Context, code string) (*GithubAccount, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code: %w", err)
	}

	client := g.config.Client(ctx, token)
	resp, err := client.Get(g.apiURL + "/user")
	if err != nil {
		return nil, fmt.Errorf("auth: fetching GitHub user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: GitHub /user returned status %d", resp.StatusCode)
	}

	var account GithubAccount
	if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub user: %w", err)
	}
	if account.ID == 0 {
		return nil, fmt.Errorf("auth: GitHub returned an invalid user")
	}

	account.Token = token.AccessToken
	return &account, nil
}
