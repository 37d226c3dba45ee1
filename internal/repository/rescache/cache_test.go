package rescache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomtom-odat/odat-go/internal/result"
)

func TestNilCacheAlwaysMisses(t *testing.T) {
	var c *Cache
	_, ok := c.Get(context.Background(), "anything")
	assert.False(t, ok)
}

func TestNilCacheSetIsNoop(t *testing.T) {
	var c *Cache
	assert.NotPanics(t, func() {
		c.Set(context.Background(), "anything", Entry{Result: result.OK, Fraction: 1})
	})
}
