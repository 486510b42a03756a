package store

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

const profilePrefix = "profile"

// GetProfile returns the profile of userID.
func (s *Store) GetProfile(userID string) (Profile, error) {
	var p Profile
	err := s.view(func(txn *badger.Txn) error {
		return getRecord(txn, key(profilePrefix, userID), &p)
	})
	if err != nil {
		return Profile{}, fmt.Errorf("profile %s: %w", userID, err)
	}
	return p, nil
}

// PutProfile creates or replaces a profile. Empty visibility and status
// default to public and available.
func (s *Store) PutProfile(p Profile) (Profile, error) {
	if p.ID == "" {
		return Profile{}, fmt.Errorf("%w: profile id is required", errors.ErrInvalidInput)
	}
	if p.Visibility == "" {
		p.Visibility = VisibilityPublic
	}
	if p.Status == "" {
		p.Status = Available
	}
	switch p.Visibility {
	case VisibilityPublic, VisibilityConnections, VisibilityPrivate:
	default:
		return Profile{}, fmt.Errorf("%w: unknown visibility %q", errors.ErrInvalidInput, p.Visibility)
	}
	switch p.Status {
	case Available, Busy, DoNotDisturb:
	default:
		return Profile{}, fmt.Errorf("%w: unknown status %q", errors.ErrInvalidInput, p.Status)
	}

	p.UpdatedAt = s.now().UTC()
	err := s.update(func(txn *badger.Txn) error {
		return putRecord(txn, key(profilePrefix, p.ID), p)
	})
	if err != nil {
		return Profile{}, err
	}
	return p, nil
}
