package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesledger/internal/core/apperror"
	"salesledger/internal/domain/audit"
)

type mapDirectory struct {
	users map[string]*User
	err   error
}

func (d *mapDirectory) GetByID(_ context.Context, id string) (*User, error) {
	if d.err != nil {
		return nil, d.err
	}
	if u, ok := d.users[id]; ok {
		return u, nil
	}
	return nil, apperror.NewNotFound("user", id)
}

func (d *mapDirectory) FindByName(_ context.Context, name string) (*User, error) {
	if d.err != nil {
		return nil, d.err
	}
	for _, u := range d.users {
		if strings.EqualFold(u.Username, name) || strings.EqualFold(u.DisplayName, name) {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", name)
}

type recordingAudit struct {
	entries []audit.Entry
}

func (r *recordingAudit) Record(_ context.Context, e audit.Entry) error {
	r.entries = append(r.entries, e)
	return nil
}

func newDirectory() *mapDirectory {
	return &mapDirectory{users: map[string]*User{
		"u-admin": {ID: "u-admin", Username: "admin", DisplayName: "Administrator", IsActive: true},
		"u-kim":   {ID: "u-kim", Username: "kim", DisplayName: "Kim Perera", IsActive: true},
	}}
}

func TestResolver_Resolve(t *testing.T) {
	tests := []struct {
		name       string
		ref        string
		wantID     string
		wantSource Source
	}{
		{"by id", "u-kim", "u-kim", SourceID},
		{"by username any case", "KIM", "u-kim", SourceName},
		{"by display name", "kim perera", "u-kim", SourceName},
		{"unknown falls back", "nobody", "u-admin", SourceDefault},
		{"blank falls back", "  ", "u-admin", SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recordingAudit{}
			r := NewResolver(newDirectory(), "u-admin", rec)

			res, err := r.Resolve(context.Background(), tt.ref)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, res.UserID)
			assert.Equal(t, tt.wantSource, res.Source)
			assert.Equal(t, tt.wantSource == SourceDefault, res.IsFallback())
			if res.IsFallback() {
				require.Len(t, rec.entries, 1)
				assert.Equal(t, audit.ActionIdentityFallback, rec.entries[0].Action)
			} else {
				assert.Empty(t, rec.entries)
			}
		})
	}
}

func TestResolver_LookupNeverFallsBack(t *testing.T) {
	r := NewResolver(newDirectory(), "u-admin", nil)

	res, err := r.Lookup(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, res.Resolved())
	assert.Equal(t, Unresolved, res)
}

func TestResolver_MissingDefaultIsConfigurationError(t *testing.T) {
	for _, defaultID := range []string{"", "u-ghost"} {
		r := NewResolver(newDirectory(), defaultID, nil)

		_, err := r.Resolve(context.Background(), "nobody")
		require.Error(t, err)
		assert.True(t, apperror.HasCode(err, apperror.CodeConfiguration), "default %q", defaultID)
	}
}

func TestResolver_ResolveExisting(t *testing.T) {
	r := NewResolver(newDirectory(), "u-admin", nil)
	ctx := context.Background()

	res, err := r.ResolveExisting(ctx, "u-kim")
	require.NoError(t, err)
	assert.Equal(t, "u-kim", res.UserID)

	// Names are not accepted for stored ids.
	res, err = r.ResolveExisting(ctx, "kim")
	require.NoError(t, err)
	assert.Equal(t, "u-admin", res.UserID)
	assert.True(t, res.IsFallback())
}

func TestResolver_DirectoryFailureIsNotMasked(t *testing.T) {
	dir := newDirectory()
	dir.err = errors.New("db down")
	r := NewResolver(dir, "u-admin", nil)

	_, err := r.Resolve(context.Background(), "kim")
	assert.ErrorIs(t, err, dir.err)
}
