package svd

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/gonum/mat"
)

const DefaultCacheSize = 32

// Cache keeps recent decompositions so that changing only the truncation
// rank reuses one factorization.
type Cache struct {
	data *lru.Cache[string, *Decomposition]
}

func NewCache(size int) *Cache {
	if size < 1 {
		size = DefaultCacheSize
	}
	// lru.New only fails on a non-positive size.
	data, _ := lru.New[string, *Decomposition](size)
	return &Cache{data: data}
}

func Key(method Method, k int, parts ...any) string {
	return fmt.Sprintf("%s-%d-%v", method, k, parts)
}

// Exec returns the cached decomposition for key or factorizes a with d and
// stores the result.
func (c *Cache) Exec(key string, d *Decomposer, a mat.Matrix) (*Decomposition, error) {
	if v, ok := c.data.Get(key); ok {
		return v, nil
	}
	dec, err := d.Exec(a)
	if err != nil {
		return nil, err
	}
	c.data.Add(key, dec)
	return dec, nil
}

func (c *Cache) Len() int { return c.data.Len() }

func (c *Cache) Purge() { c.data.Purge() }
