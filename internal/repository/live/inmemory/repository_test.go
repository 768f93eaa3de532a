package inmemory

import (
	"testing"

	"github.com/bookmyseva/darshan/internal/repository/live"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepo(t *testing.T) {
	r := NewRepo[int]()

	require.NoError(t, r.Add("b", 2))
	require.NoError(t, r.Add("a", 1))
	assert.ErrorIs(t, r.Add("a", 3), live.ErrAlreadyExists)
	assert.Equal(t, []string{"a", "b"}, r.IDs())

	v, err := r.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, err = r.Remove("a")
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = r.Get("a")
	assert.ErrorIs(t, err, live.ErrNotFound)
	_, err = r.Remove("a")
	assert.ErrorIs(t, err, live.ErrNotFound)

	assert.Equal(t, []int{2}, r.Drain())
	assert.Empty(t, r.IDs())
}
