package keys

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoin(t *testing.T) {
	assert.Equal(t, "GET /users:alice:abc", Join("GET /users", "alice", "abc"))
	assert.Equal(t, "solo", Join("solo"))
	assert.Equal(t, "", Join())
}

func TestHashDeterministic(t *testing.T) {
	type params struct {
		Page  int
		Limit int
	}

	a, err := Hash(params{Page: 1, Limit: 20})
	require.NoError(t, err)
	b, err := Hash(params{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := Hash(params{Page: 2, Limit: 20})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestHashUnserializable(t *testing.T) {
	_, err := Hash(func() {})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnhashable))
}

func TestRequest(t *testing.T) {
	type params struct{ ID string }

	k1, err := Request("GET /users", "alice", params{ID: "1"})
	require.NoError(t, err)
	k2, err := Request("GET /users", "alice", params{ID: "1"})
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	// Different principals never collide.
	k3, err := Request("GET /users", "bob", params{ID: "1"})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	// Different parameters never collide.
	k4, err := Request("GET /users", "alice", params{ID: "2"})
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)
}
