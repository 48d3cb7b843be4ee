package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()

	h, err := HashPassword("strongpassword123")
	require.NoError(t, err)
	assert.NotEqual(t, "strongpassword123", h)

	assert.True(t, CheckPassword(h, "strongpassword123"))
	assert.False(t, CheckPassword(h, "wrong"))
	assert.False(t, CheckPassword("not-a-hash", "strongpassword123"))
}
