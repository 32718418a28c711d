package parser

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"

	"paren/interpreter-go/pkg/ast"
)

// Cache memoises Parse by source text. Parsed trees are immutable, so a
// cached tree can be handed to any number of evaluations.
type Cache struct {
	cache *lru.Cache
}

// NewCache returns a cache holding up to size trees.
func NewCache(size int) (*Cache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("parser: create cache of size %d: %w", size, err)
	}
	return &Cache{cache: c}, nil
}

// Parse returns the cached tree for text, parsing and storing it on a miss.
// Failed parses are not cached. A nil cache parses every time.
func (c *Cache) Parse(text string) (ast.Expr, error) {
	if c == nil {
		return Parse(text)
	}
	if v, ok := c.cache.Get(text); ok {
		return v.(ast.Expr), nil
	}
	expr, err := Parse(text)
	if err != nil {
		return nil, err
	}
	_ = c.cache.Add(text, expr)
	return expr, nil
}

// Len reports the number of cached trees.
func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
