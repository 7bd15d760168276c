// internal/apperrors/apperrors.go
package apperrors

import "fmt"

// ErrUnknownOwnerKind is returned when a repository payload carries an owner
// type other than "User" or "Organization". This is a contract violation from
// the GitHub API and is never swallowed by the reconciler.
type ErrUnknownOwnerKind struct {
	Kind string
}

func (e *ErrUnknownOwnerKind) Error() string {
	return fmt.Sprintf("unknown repository owner type %q", e.Kind)
}

// ErrInvalidRepoName is returned when a qualified repository name is not in
// 'vendor/name' format.
type ErrInvalidRepoName struct {
	Name string
}

func (e *ErrInvalidRepoName) Error() string {
	return fmt.Sprintf("invalid repository name: %q, expected 'vendor/name'", e.Name)
}
