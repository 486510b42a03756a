package cafe

import (
	"context"
	"fmt"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

// Source supplies the cafe records the discovery pipeline works on.
// Implementations may be static, local or remote.
type Source interface {
	Cafes(ctx context.Context) ([]Cafe, error)
}

// Collection is an immutable, validated set of cafes. Every accessor returns
// copies so callers can never mutate the snapshot.
type Collection struct {
	cafes []Cafe
	byID  map[string]int
}

// NewCollection validates cafes and takes a private copy of them.
func NewCollection(cafes []Cafe) (*Collection, error) {
	if err := Validate(cafes); err != nil {
		return nil, err
	}
	c := &Collection{
		cafes: CloneAll(cafes),
		byID:  make(map[string]int, len(cafes)),
	}
	for i, cf := range c.cafes {
		c.byID[cf.ID] = i
	}
	return c, nil
}

// Len returns the number of cafes.
func (c *Collection) Len() int {
	return len(c.cafes)
}

// All returns the cafes in load order.
func (c *Collection) All() []Cafe {
	return CloneAll(c.cafes)
}

// Get looks a cafe up by id.
func (c *Collection) Get(id string) (Cafe, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Cafe{}, false
	}
	return c.cafes[i].Clone(), true
}

// Cafes implements Source.
func (c *Collection) Cafes(ctx context.Context) ([]Cafe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.All(), nil
}

// Find looks id up in a plain slice, for sources that are not a Collection.
func Find(cafes []Cafe, id string) (Cafe, error) {
	for _, c := range cafes {
		if c.ID == id {
			return c.Clone(), nil
		}
	}
	return Cafe{}, fmt.Errorf("cafe %s: %w", id, errors.ErrNotFound)
}
