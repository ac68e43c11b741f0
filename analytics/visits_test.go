package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryVisitStore(t *testing.T) {
	store := NewMemoryVisitStore()

	count, err := store.Visits("abc")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)

	count, err = store.Increment("abc")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = store.Increment("abc")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = store.Visits("other")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count, "counters are independent per id")

	assert.NoError(t, store.Delete("abc"))
	count, err = store.Visits("abc")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestRedisVisitStoreKey(t *testing.T) {
	store := NewRedisVisitStore("localhost:6379", "", "trusted-server")
	assert.Equal(t, "trusted-server:visits:abc123", store.key("abc123"))
}
