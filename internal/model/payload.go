// internal/model/payload.go
package model

// RepoPayload is the shape of a raw GitHub repository object as delivered by
// the REST API. Field names keep GitHub's JSON naming so a reported payload
// reads the same as the wire format.
type RepoPayload struct {
	ID          int64        `json:"id"`
	FullName    string       `json:"full_name"`
	Description *string      `json:"description"`
	Private     bool         `json:"private"`
	Fork        bool         `json:"fork"`
	HasIssues   bool         `json:"has_issues"`
	Archived    bool         `json:"archived"`
	Disabled    bool         `json:"disabled"`
	Language    *string      `json:"language"`
	LicenseSPDX *string      `json:"license_spdx_id"`
	Owner       OwnerPayload `json:"owner"`
}

// OwnerPayload is the nested owner object of a repository payload. Type is
// GitHub's discriminant and is expected to be "User" or "Organization".
type OwnerPayload struct {
	ID    int64  `json:"id"`
	Type  string `json:"type"`
	Login string `json:"login"`
}

// AccountPayload is the authenticated-user profile returned by the provider.
type AccountPayload struct {
	ID    int64   `json:"id"`
	Login string  `json:"login"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
}
