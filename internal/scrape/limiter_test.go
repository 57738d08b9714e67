// File: internal/scrape/limiter_test.go
package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLimiterCap(t *testing.T) {
	l := NewLimiter(3)
	assert.False(t, l.Unbounded())

	for i := 0; i < 3; i++ {
		assert.False(t, l.Satisfied(), "iteration %d", i)
		assert.True(t, l.Admit(), "iteration %d", i)
	}
	assert.True(t, l.Satisfied())
	assert.False(t, l.Admit())
	assert.Equal(t, int64(3), l.Count())
}

func TestLimiterUnbounded(t *testing.T) {
	l := NewLimiter(0)
	assert.True(t, l.Unbounded())
	for i := 0; i < 1000; i++ {
		assert.True(t, l.Admit())
	}
	assert.False(t, l.Satisfied())
	assert.Equal(t, int64(1000), l.Count())
}
