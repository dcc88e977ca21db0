package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndComparePassword(t *testing.T) {
	hashed, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", hashed)

	assert.NoError(t, ComparePassword(hashed, "s3cret"))
	assert.Error(t, ComparePassword(hashed, "wrong"))
}

func TestHashPasswordClampsInvalidCost(t *testing.T) {
	// Zero and out-of-range costs use the bcrypt default instead of erroring.
	for _, cost := range []int{0, -1, 99} {
		hashed, err := HashPassword("s3cret", cost)
		require.NoError(t, err)
		assert.NoError(t, ComparePassword(hashed, "s3cret"))
	}
}
