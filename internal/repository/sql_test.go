package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildSet(t *testing.T) {
	set, args := buildSet(map[string]interface{}{
		"price":    597.0,
		"name":     "Updated",
		"duration": 7,
	})

	// Column order is sorted, so placeholder numbering is stable
	assert.Equal(t, "duration = $1, name = $2, price = $3", set)
	assert.Equal(t, []interface{}{7, "Updated", 597.0}, args)
}

func TestBuildSetEmpty(t *testing.T) {
	set, args := buildSet(map[string]interface{}{})
	assert.Empty(t, set)
	assert.Empty(t, args)
}
