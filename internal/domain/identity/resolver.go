package identity

import (
	"context"
	"strings"

	"salesledger/internal/core/apperror"
	"salesledger/internal/domain/audit"
	"salesledger/pkg/logger"
)

// Directory is the user catalog as seen by the resolver.
// Both lookups return an apperror not-found error when nothing matches.
type Directory interface {
	GetByID(ctx context.Context, id string) (*User, error)
	// FindByName matches username or display name, case-insensitively.
	FindByName(ctx context.Context, name string) (*User, error)
}

// Resolver maps staff references to canonical user ids, falling back to
// an explicitly configured default account.
type Resolver struct {
	dir              Directory
	defaultAccountID string
	audit            audit.Recorder
}

// NewResolver creates a resolver. defaultAccountID may be empty, in which
// case unresolvable references fail with a configuration error.
func NewResolver(dir Directory, defaultAccountID string, recorder audit.Recorder) *Resolver {
	if recorder == nil {
		recorder = audit.Nop{}
	}
	return &Resolver{
		dir:              dir,
		defaultAccountID: strings.TrimSpace(defaultAccountID),
		audit:            recorder,
	}
}

// Lookup tries the reference as a user id, then as a name.
// It never substitutes the default account.
func (r *Resolver) Lookup(ctx context.Context, ref string) (Resolution, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Unresolved, nil
	}

	u, err := r.dir.GetByID(ctx, ref)
	switch {
	case err == nil:
		return Resolution{UserID: u.ID, Source: SourceID, Reference: ref}, nil
	case !apperror.IsNotFound(err):
		return Unresolved, err
	}

	u, err = r.dir.FindByName(ctx, ref)
	switch {
	case err == nil:
		return Resolution{UserID: u.ID, Source: SourceName, Reference: ref}, nil
	case !apperror.IsNotFound(err):
		return Unresolved, err
	}

	return Unresolved, nil
}

// Resolve looks the reference up and substitutes the default account when
// nothing matches. The substitution is logged and audited.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Resolution, error) {
	res, err := r.Lookup(ctx, ref)
	if err != nil {
		return Unresolved, err
	}
	if res.Resolved() {
		return res, nil
	}
	return r.fallback(ctx, ref, "reference did not match any user")
}

// ResolveExisting checks that a stored user id still exists, falling back
// to the default account otherwise. Names are not considered.
func (r *Resolver) ResolveExisting(ctx context.Context, userID string) (Resolution, error) {
	userID = strings.TrimSpace(userID)
	if userID != "" {
		u, err := r.dir.GetByID(ctx, userID)
		if err == nil {
			return Resolution{UserID: u.ID, Source: SourceID, Reference: userID}, nil
		}
		if !apperror.IsNotFound(err) {
			return Unresolved, err
		}
	}
	return r.fallback(ctx, userID, "stored user no longer exists")
}

// DefaultAccount returns the configured default account after checking it exists.
func (r *Resolver) DefaultAccount(ctx context.Context) (string, error) {
	if r.defaultAccountID == "" {
		return "", apperror.NewConfiguration("default account is not configured")
	}
	u, err := r.dir.GetByID(ctx, r.defaultAccountID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", apperror.NewConfiguration("default account does not exist").
				WithDetail("default_account_id", r.defaultAccountID)
		}
		return "", err
	}
	return u.ID, nil
}

func (r *Resolver) fallback(ctx context.Context, ref, reason string) (Resolution, error) {
	defaultID, err := r.DefaultAccount(ctx)
	if err != nil {
		logger.Error(ctx, "staff reference unresolved and no default account",
			"reference", ref, "error", err)
		return Unresolved, err
	}

	logger.Warn(ctx, "staff reference resolved to default account",
		"reference", ref, "default_account_id", defaultID, "reason", reason)

	if err := r.audit.Record(ctx, audit.Entry{
		EntityType: "user",
		EntityID:   defaultID,
		Action:     audit.ActionIdentityFallback,
		UserID:     defaultID,
		Changes: map[string]any{
			"reference": ref,
			"reason":    reason,
		},
	}); err != nil {
		return Unresolved, err
	}

	return Resolution{UserID: defaultID, Source: SourceDefault, Reference: ref}, nil
}
