package auth

import (
	"testing"

	"accounts/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher_HashAndCheck(t *testing.T) {
	hasher := NewBcryptHasher(&config.Config{
		Auth: &config.AuthConfig{BcryptCost: 4}, // minimum cost keeps the test fast
	})

	hash, err := hasher.Hash("Pw123456")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.NotEqual(t, "Pw123456", hash)

	assert.True(t, hasher.Check("Pw123456", hash))
	assert.False(t, hasher.Check("wrong-password", hash))
}

func TestBcryptHasher_UniqueSalts(t *testing.T) {
	hasher := NewBcryptHasher(&config.Config{
		Auth: &config.AuthConfig{BcryptCost: 4},
	})

	hash1, err := hasher.Hash("Pw123456")
	require.NoError(t, err)
	hash2, err := hasher.Hash("Pw123456")
	require.NoError(t, err)

	assert.NotEqual(t, hash1, hash2)
}

func TestBcryptHasher_DefaultCostWithoutConfig(t *testing.T) {
	hasher := NewBcryptHasher(&config.Config{})

	hash, err := hasher.Hash("Pw123456")
	require.NoError(t, err)
	assert.True(t, hasher.Check("Pw123456", hash))
}
