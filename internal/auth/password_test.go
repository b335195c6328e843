package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("p")
	require.NoError(t, err)
	assert.NotEqual(t, "p", digest)

	assert.True(t, hasher.Compare("p", digest))
	assert.False(t, hasher.Compare("q", digest))
	assert.False(t, hasher.Compare("p", "not-a-digest"))
}

func TestNewBcryptHasher_OutOfRangeCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(bcrypt.MaxCost+1).cost)
}
