package uuid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	id1 := New()
	id2 := New()

	parsed, err := uuid.Parse(id1)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(4), parsed.Version())
	assert.NotEqual(t, id1, id2, "UUIDs should be unique")
}

func TestShort(t *testing.T) {
	s := Short()
	assert.Len(t, s, 8)
	assert.NotContains(t, s, "-")
}
