// Package collection is the write-through collection (C5): the
// authoritative, ordered, in-memory list of Person records. Every
// mutation is mirrored to the persistence gateway synchronously before
// it is reflected to readers; a coarse lock serializes mutations while
// letting Snapshot run concurrently with other readers.
package collection

import (
	"context"
	"sync"

	"github.com/nikshvein/personhub/internal/domain"
	"github.com/nikshvein/personhub/internal/errs"
)

// Gateway is the slice of the persistence gateway the collection
// depends on. Implemented by internal/store.Gateway.
type Gateway interface {
	FindAllPersons(ctx context.Context) ([]domain.Person, error)
	SavePerson(ctx context.Context, p domain.Person) (domain.Person, error)
	RemovePersonByID(ctx context.Context, id int64) (bool, error)
}

// Collection holds the ordered Person list, guarded by a single-writer,
// many-readers lock.
type Collection struct {
	mu    sync.RWMutex
	items []domain.Person
	gw    Gateway
}

// New loads the full Person set from gw, ordered by id, and returns a
// ready Collection.
func New(ctx context.Context, gw Gateway) (*Collection, error) {
	items, err := gw.FindAllPersons(ctx)
	if err != nil {
		return nil, err
	}
	return &Collection{items: items, gw: gw}, nil
}

// Snapshot returns a copy of the ordered Person list.
func (c *Collection) Snapshot() []domain.Person {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Person, len(c.items))
	copy(out, c.items)
	return out
}

// Add appends p to the collection. The store assigns the id; p is only
// appended in memory after the store write succeeds.
func (c *Collection) Add(ctx context.Context, p domain.Person) (domain.Person, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	saved, err := c.gw.SavePerson(ctx, p)
	if err != nil {
		return domain.Person{}, err
	}
	c.items = append(c.items, saved)
	return saved, nil
}

// RemoveAt removes the item at index, returning it. It reports false
// with a zero Person if index is out of range.
func (c *Collection) RemoveAt(ctx context.Context, index int) (domain.Person, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if index < 0 || index >= len(c.items) {
		return domain.Person{}, false, nil
	}
	victim := c.items[index]

	removed, err := c.gw.RemovePersonByID(ctx, victim.ID)
	if err != nil {
		return domain.Person{}, false, err
	}
	if !removed {
		return domain.Person{}, false, nil
	}

	c.items = append(c.items[:index:index], c.items[index+1:]...)
	return victim, true, nil
}

// RemoveByID removes the person with the given id. If enforceOwner is
// true, the removal is refused with errs.ErrNotOwner when the person's
// OwnerID does not match ownerID.
func (c *Collection) RemoveByID(ctx context.Context, id int64, ownerID int64, enforceOwner bool) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	idx := -1
	for i, p := range c.items {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, nil
	}
	if enforceOwner && c.items[idx].OwnerID != ownerID {
		return false, errs.ErrNotOwner
	}

	removed, err := c.gw.RemovePersonByID(ctx, id)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	c.items = append(c.items[:idx:idx], c.items[idx+1:]...)
	return true, nil
}

// RemoveWhere deletes every person matching pred. It iterates a stable
// snapshot, computes the victims, deletes them from the store in
// ascending-id order, and mirrors in memory only the ones the store
// actually removed. It returns the persons that were removed.
func (c *Collection) RemoveWhere(ctx context.Context, pred func(domain.Person) bool) ([]domain.Person, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]domain.Person, len(c.items))
	copy(snapshot, c.items)

	var victims []domain.Person
	for _, p := range snapshot {
		if pred(p) {
			victims = append(victims, p)
		}
	}
	sortByIDAscending(victims)

	removedIDs := make(map[int64]bool, len(victims))
	var removed []domain.Person
	var storeErr error
	for _, v := range victims {
		ok, err := c.gw.RemovePersonByID(ctx, v.ID)
		if err != nil {
			storeErr = err
			break
		}
		if ok {
			removedIDs[v.ID] = true
			removed = append(removed, v)
		}
	}

	if len(removedIDs) > 0 {
		kept := c.items[:0:0]
		for _, p := range c.items {
			if !removedIDs[p.ID] {
				kept = append(kept, p)
			}
		}
		c.items = kept
	}

	return removed, storeErr
}

// Clear is explicitly unsupported: the collection has no notion of
// "every person regardless of owner". Commands that need a scoped clear
// build it on RemoveWhere instead (see internal/command).
func (c *Collection) Clear(context.Context) error {
	return errs.ErrClearUnsupported
}

func sortByIDAscending(ps []domain.Person) {
	for i := 1; i < len(ps); i++ {
		for j := i; j > 0 && ps[j-1].ID > ps[j].ID; j-- {
			ps[j-1], ps[j] = ps[j], ps[j-1]
		}
	}
}
