package store

import (
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

const (
	checkInPrefix    = "checkin"
	activeUserPrefix = "checkin_user"
	activeCafePrefix = "checkin_cafe"
)

// CheckIn starts a check-in of userID at cafeID. A user has at most one
// active check-in; an existing one is completed first.
func (s *Store) CheckIn(userID, cafeID string) (CheckIn, error) {
	if userID == "" || cafeID == "" {
		return CheckIn{}, fmt.Errorf("%w: user and cafe are required", errors.ErrInvalidInput)
	}

	now := s.now().UTC()
	ci := CheckIn{
		ID:          uuid.NewString(),
		UserID:      userID,
		CafeID:      cafeID,
		Status:      CheckInActive,
		CheckInTime: now,
	}

	err := s.update(func(txn *badger.Txn) error {
		prev, err := activeCheckIn(txn, userID)
		switch {
		case err == nil:
			if _, err := closeCheckIn(txn, prev, CheckInCompleted, now); err != nil {
				return err
			}
			s.logger.Debug("completed previous check-in",
				zap.String("user", userID), zap.String("cafe", prev.CafeID))
		case !errors.Is(err, errors.ErrNotFound):
			return err
		}

		if err := putRecord(txn, key(checkInPrefix, ci.ID), ci); err != nil {
			return err
		}
		if err := txn.Set(key(activeUserPrefix, userID), []byte(ci.ID)); err != nil {
			return err
		}
		return txn.Set(key(activeCafePrefix, cafeID, userID), []byte(ci.ID))
	})
	if err != nil {
		return CheckIn{}, err
	}
	return ci, nil
}

// CheckOut completes the active check-in of userID.
func (s *Store) CheckOut(userID string) (CheckIn, error) {
	return s.finish(userID, CheckInCompleted)
}

// CancelCheckIn cancels the active check-in of userID.
func (s *Store) CancelCheckIn(userID string) (CheckIn, error) {
	return s.finish(userID, CheckInCancelled)
}

func (s *Store) finish(userID string, status CheckInStatus) (CheckIn, error) {
	var ci CheckIn
	now := s.now().UTC()
	err := s.update(func(txn *badger.Txn) error {
		active, err := activeCheckIn(txn, userID)
		if err != nil {
			return err
		}
		ci, err = closeCheckIn(txn, active, status, now)
		return err
	})
	if err != nil {
		return CheckIn{}, fmt.Errorf("check-in of %s: %w", userID, err)
	}
	return ci, nil
}

// ActiveCheckIn returns the current check-in of userID.
func (s *Store) ActiveCheckIn(userID string) (CheckIn, error) {
	var ci CheckIn
	err := s.view(func(txn *badger.Txn) error {
		var err error
		ci, err = activeCheckIn(txn, userID)
		return err
	})
	return ci, err
}

// ActiveCheckIns lists the active check-ins at cafeID, oldest first.
func (s *Store) ActiveCheckIns(cafeID string) ([]CheckIn, error) {
	var out []CheckIn
	err := s.view(func(txn *badger.Txn) error {
		return scanPrefix(txn, prefix(activeCafePrefix, cafeID), func(_ []byte, item *badger.Item) error {
			id, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			var ci CheckIn
			if err := getRecord(txn, key(checkInPrefix, string(id)), &ci); err != nil {
				return err
			}
			out = append(out, ci)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CheckInTime.Before(out[j].CheckInTime)
	})
	return out, nil
}

func activeCheckIn(txn *badger.Txn, userID string) (CheckIn, error) {
	item, err := txn.Get(key(activeUserPrefix, userID))
	if err == badger.ErrKeyNotFound {
		return CheckIn{}, errors.ErrNotFound
	}
	if err != nil {
		return CheckIn{}, err
	}
	id, err := item.ValueCopy(nil)
	if err != nil {
		return CheckIn{}, err
	}
	var ci CheckIn
	if err := getRecord(txn, key(checkInPrefix, string(id)), &ci); err != nil {
		return CheckIn{}, err
	}
	return ci, nil
}

// closeCheckIn moves ci out of the active state and drops its indexes.
func closeCheckIn(txn *badger.Txn, ci CheckIn, status CheckInStatus, at time.Time) (CheckIn, error) {
	ci.Status = status
	ci.CheckOutTime = &at
	if err := putRecord(txn, key(checkInPrefix, ci.ID), ci); err != nil {
		return CheckIn{}, err
	}
	if err := txn.Delete(key(activeUserPrefix, ci.UserID)); err != nil {
		return CheckIn{}, err
	}
	if err := txn.Delete(key(activeCafePrefix, ci.CafeID, ci.UserID)); err != nil {
		return CheckIn{}, err
	}
	return ci, nil
}
