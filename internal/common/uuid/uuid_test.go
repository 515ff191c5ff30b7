package uuid

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDefaultUUID(t *testing.T) {
	id := New().NewUUID()

	_, err := uuid.Parse(id)
	assert.NoError(t, err)
	assert.NotEqual(t, id, New().NewUUID())
}

func TestSequential(t *testing.T) {
	gen := NewSequential("gift")

	assert.Equal(t, "gift-1", gen.NewUUID())
	assert.Equal(t, "gift-2", gen.NewUUID())
}
