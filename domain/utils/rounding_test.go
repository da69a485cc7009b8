package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorTo(t *testing.T) {
	assert.Equal(t, 1.234567, FloorTo(1.2345678, 6))
	assert.Equal(t, 1.23, FloorTo(1.239, 2))
	assert.Equal(t, 40.833333, FloorTo(40.83333333333, 6))
	assert.Equal(t, 0.0, FloorTo(0.0000009, 6))
	assert.Equal(t, 5.0, FloorTo(5, 6))
}
