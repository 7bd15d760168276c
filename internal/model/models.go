// internal/model/models.go
package model

import (
	"fmt"
	"strings"
	"time"
)

// OwnerKind discriminates the two account variants that can hold repositories.
type OwnerKind string

const (
	OwnerKindUser         OwnerKind = "user"
	OwnerKindOrganization OwnerKind = "organization"
)

func (k OwnerKind) Valid() bool {
	return k == OwnerKindUser || k == OwnerKindOrganization
}

// OwnerRef identifies a resolved repository owner without carrying the full
// variant record. Only user owners hold an API credential.
type OwnerRef struct {
	Kind  OwnerKind
	ID    int64
	Login string
	token string
}

// UserOwner builds an OwnerRef for a user, keeping the user's access token
// available for elevated API calls.
func UserOwner(u User) OwnerRef {
	return OwnerRef{Kind: OwnerKindUser, ID: u.ID, Login: u.Login, token: u.GithubAccessToken}
}

func OrganizationOwner(o Organization) OwnerRef {
	return OwnerRef{Kind: OwnerKindOrganization, ID: o.ID, Login: o.Login}
}

// Credential returns the owner-specific API token, if the owner has one.
func (o OwnerRef) Credential() (string, bool) {
	if o.Kind == OwnerKindUser && o.token != "" {
		return o.token, true
	}
	return "", false
}

// Repository represents a synchronized GitHub repository. The ID is GitHub's
// numeric repository ID and is assigned externally, never generated.
type Repository struct {
	ID          int64
	Name        string // qualified "vendor/name"
	Description *string
	Language    *Language
	License     *License
	OwnerKind   OwnerKind
	OwnerID     int64
	BlockReason *BlockReason
	BlockedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// VendorName returns the part of the qualified name before the first slash.
func (r Repository) VendorName() string {
	vendor, _, _ := strings.Cut(r.Name, "/")
	return vendor
}

// RepositoryName returns the part of the qualified name after the first slash.
func (r Repository) RepositoryName() string {
	_, name, _ := strings.Cut(r.Name, "/")
	return name
}

func (r Repository) GithubURL() string {
	return fmt.Sprintf("https://github.com/%s", r.Name)
}

// IsBlocked reports whether the repository is hidden by moderation. BlockedAt
// is derived from BlockReason on every write, so checking it is sufficient.
func (r Repository) IsBlocked() bool {
	return r.BlockedAt != nil
}

// User is a GitHub account that signed in at least once or owns a
// synchronized repository. The ID is GitHub's numeric user ID.
type User struct {
	ID                int64
	Login             string
	Email             *string
	FullName          *string
	GithubAccessToken string
	EmailVerifiedAt   *time.Time
	BlockReason       *BlockReason
	BlockedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (u User) IsBlocked() bool {
	return u.BlockedAt != nil
}

func (u User) HasVerifiedEmail() bool {
	return u.EmailVerifiedAt != nil
}

// Organization is the non-user owner variant.
type Organization struct {
	ID        int64
	Login     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
