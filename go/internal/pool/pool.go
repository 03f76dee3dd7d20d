// Package pool tracks which catalog items are still selectable.
package pool

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/mcdev12/champdraft/go/internal/models"
)

// ErrInsufficientPool is returned when a sample cannot be filled from eligible items.
var ErrInsufficientPool = errors.New("insufficient pool")

// Pool is the catalog universe minus an exclusion set.
// It is not safe for concurrent use; the owning session serializes access.
type Pool struct {
	catalog  []models.Item
	excluded map[string]struct{}
	rng      *rand.Rand
}

// New builds a pool over a catalog snapshot. The catalog is copied and never modified.
func New(catalog []models.Item, rng *rand.Rand) *Pool {
	c := make([]models.Item, len(catalog))
	copy(c, catalog)
	return &Pool{
		catalog:  c,
		excluded: make(map[string]struct{}),
		rng:      rng,
	}
}

// Sample returns n distinct eligible items chosen uniformly without replacement.
func (p *Pool) Sample(n int) ([]models.Item, error) {
	if n < 0 {
		return nil, fmt.Errorf("sample size must not be negative, got %d", n)
	}
	eligible := p.eligible(p.catalog)
	if len(eligible) < n {
		return nil, fmt.Errorf("%w: want %d items, %d eligible", ErrInsufficientPool, n, len(eligible))
	}

	// partial Fisher-Yates over the eligible copy
	for i := 0; i < n; i++ {
		j := i + p.rng.Intn(len(eligible)-i)
		eligible[i], eligible[j] = eligible[j], eligible[i]
	}
	return eligible[:n:n], nil
}

// Pick chooses uniformly among the candidates that are not excluded.
func (p *Pool) Pick(candidates []models.Item) (models.Item, bool) {
	eligible := p.eligible(candidates)
	if len(eligible) == 0 {
		return models.Item{}, false
	}
	return eligible[p.rng.Intn(len(eligible))], true
}

// Exclude marks an item unavailable. Excluding twice is a no-op.
func (p *Pool) Exclude(name string) {
	p.excluded[name] = struct{}{}
}

// Release makes an item available again. Releasing an item that is not excluded is a no-op.
func (p *Pool) Release(name string) {
	delete(p.excluded, name)
}

// Excluded reports whether the item is currently unavailable.
func (p *Pool) Excluded(name string) bool {
	_, ok := p.excluded[name]
	return ok
}

// ExcludedNames returns the exclusion set sorted by name.
func (p *Pool) ExcludedNames() []string {
	names := make([]string, 0, len(p.excluded))
	for name := range p.excluded {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Remaining counts catalog items that are still eligible.
func (p *Pool) Remaining() int {
	return len(p.eligible(p.catalog))
}

// Contains reports whether the catalog universe has an item with that name.
func (p *Pool) Contains(name string) bool {
	for _, it := range p.catalog {
		if it.Name == name {
			return true
		}
	}
	return false
}

func (p *Pool) eligible(items []models.Item) []models.Item {
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		if !p.Excluded(it.Name) {
			out = append(out, it)
		}
	}
	return out
}
