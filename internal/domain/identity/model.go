// Package identity resolves loosely specified staff references to users.
package identity

// User is the read-only projection of a staff account.
type User struct {
	ID          string `db:"id" json:"id"`
	Username    string `db:"username" json:"username"`
	DisplayName string `db:"display_name" json:"displayName"`
	IsActive    bool   `db:"is_active" json:"isActive"`
}

// Source tells how a reference was resolved.
type Source string

const (
	SourceID      Source = "id"
	SourceName    Source = "name"
	SourceDefault Source = "default_account"
)

// Resolution is the typed outcome of resolving a reference.
// The zero value is Unresolved.
type Resolution struct {
	UserID    string
	Source    Source
	Reference string
}

// Unresolved is returned by Lookup when no user matches.
var Unresolved = Resolution{}

// Resolved reports whether a user id was found.
func (r Resolution) Resolved() bool {
	return r.UserID != ""
}

// IsFallback reports whether the default account was substituted.
func (r Resolution) IsFallback() bool {
	return r.Source == SourceDefault
}
