package randid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	pattern := regexp.MustCompile(`^[a-z0-9]*$`)

	for _, n := range []int{-1, 0, 1, 8, 16} {
		id := Generate(n)
		assert.Len(t, id, max(n, 0))
		assert.True(t, pattern.MatchString(id), "Generate(%d) = %q", n, id)
	}
}

func TestGenerate_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		seen[Generate(8)] = true
	}
	// 36^8 possibilities; a handful of collisions would already be suspicious
	assert.GreaterOrEqual(t, len(seen), 95)
}
