package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lkmbench/lkmbench/core"
)

// ResultCache memoizes evaluation results by source-content hash. Results
// are immutable once produced, so an identical snapshot can reuse the stored
// record directly (this also keeps repeat evaluations byte-identical).
type ResultCache struct {
	cache *lru.Cache[string, core.EvaluationResult]
}

// New creates a cache holding up to size results.
func New(size int) (*ResultCache, error) {
	c, err := lru.New[string, core.EvaluationResult](size)
	if err != nil {
		return nil, fmt.Errorf("create result cache: %w", err)
	}
	return &ResultCache{cache: c}, nil
}

// Key derives the cache key for a source snapshot.
func Key(code []byte) string {
	sum := sha256.Sum256(code)
	return hex.EncodeToString(sum[:])
}

// Get returns the cached result for a snapshot, if present.
func (c *ResultCache) Get(key string) (core.EvaluationResult, bool) {
	if c == nil {
		return core.EvaluationResult{}, false
	}
	return c.cache.Get(key)
}

// Add stores a result for a snapshot.
func (c *ResultCache) Add(key string, result core.EvaluationResult) {
	if c == nil {
		return
	}
	c.cache.Add(key, result)
}

// Len reports the number of cached results.
func (c *ResultCache) Len() int {
	if c == nil {
		return 0
	}
	return c.cache.Len()
}
