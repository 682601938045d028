package id_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesledger/internal/core/id"
)

func TestNew_TimeOrdered(t *testing.T) {
	a, b := id.New(), id.New()
	assert.Equal(t, uuid.Version(7), a.Version())
	assert.NotEqual(t, a, b)
	assert.LessOrEqual(t, a.Time(), b.Time())
}

func TestNewString_Parses(t *testing.T) {
	s := id.NewString()
	parsed, err := uuid.Parse(s)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}
