package netlink

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupsMask(t *testing.T) {
	assert.Equal(t, uint32(0), GroupsMask())
	assert.Equal(t, uint32(0b1010), GroupsMask(1, 3))
	assert.Equal(t, uint32(1), GroupsMask(0))
	assert.Equal(t, uint32(1<<31), GroupsMask(31))

	// Ids past the mask width are left to JoinGroup.
	assert.Equal(t, uint32(0), GroupsMask(32, 100))
	assert.Equal(t, uint32(0b10), GroupsMask(1, 64))
}
