package store

import (
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

const favoritePrefix = "favorite"

// AddFavorite saves cafeID for userID. Adding an existing favorite keeps its
// original position.
func (s *Store) AddFavorite(userID, cafeID string) error {
	if userID == "" || cafeID == "" {
		return fmt.Errorf("%w: user and cafe are required", errors.ErrInvalidInput)
	}
	return s.update(func(txn *badger.Txn) error {
		k := key(favoritePrefix, userID, cafeID)
		var existing Favorite
		err := getRecord(txn, k, &existing)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errors.ErrNotFound) {
			return err
		}
		return putRecord(txn, k, Favorite{CafeID: cafeID, AddedAt: s.now().UTC()})
	})
}

// RemoveFavorite deletes a favorite. Removing a missing one is ErrNotFound.
func (s *Store) RemoveFavorite(userID, cafeID string) error {
	return s.update(func(txn *badger.Txn) error {
		k := key(favoritePrefix, userID, cafeID)
		if _, err := txn.Get(k); err == badger.ErrKeyNotFound {
			return fmt.Errorf("favorite %s: %w", cafeID, errors.ErrNotFound)
		} else if err != nil {
			return err
		}
		return txn.Delete(k)
	})
}

// Favorites lists userID's favorites in the order they were added.
func (s *Store) Favorites(userID string) ([]Favorite, error) {
	var out []Favorite
	err := s.view(func(txn *badger.Txn) error {
		return scanPrefix(txn, prefix(favoritePrefix, userID), func(k []byte, _ *badger.Item) error {
			var f Favorite
			if err := getRecord(txn, k, &f); err != nil {
				return err
			}
			out = append(out, f)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AddedAt.Before(out[j].AddedAt)
	})
	return out, nil
}

// IsFavorite reports whether userID saved cafeID.
func (s *Store) IsFavorite(userID, cafeID string) (bool, error) {
	err := s.view(func(txn *badger.Txn) error {
		_, err := txn.Get(key(favoritePrefix, userID, cafeID))
		return err
	})
	switch {
	case err == nil:
		return true, nil
	case err == badger.ErrKeyNotFound:
		return false, nil
	default:
		return false, err
	}
}
