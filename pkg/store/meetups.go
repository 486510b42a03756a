package store

import (
	"fmt"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

const (
	meetupPrefix     = "meetup"
	meetupUserPrefix = "meetup_user"
)

// CreateMeetup stores a new pending request and indexes it for both
// participants.
func (s *Store) CreateMeetup(m MeetupRequest) (MeetupRequest, error) {
	if m.SenderID == "" || m.ReceiverID == "" || m.CafeID == "" {
		return MeetupRequest{}, fmt.Errorf("%w: sender, receiver and cafe are required", errors.ErrInvalidInput)
	}
	now := s.now().UTC()
	m.ID = uuid.NewString()
	m.Status = MeetupPending
	m.CreatedAt = now
	m.UpdatedAt = now

	err := s.update(func(txn *badger.Txn) error {
		if err := putRecord(txn, key(meetupPrefix, m.ID), m); err != nil {
			return err
		}
		if err := txn.Set(key(meetupUserPrefix, m.SenderID, m.ID), nil); err != nil {
			return err
		}
		return txn.Set(key(meetupUserPrefix, m.ReceiverID, m.ID), nil)
	})
	if err != nil {
		return MeetupRequest{}, err
	}
	return m, nil
}

// GetMeetup returns the request with the given id.
func (s *Store) GetMeetup(id string) (MeetupRequest, error) {
	var m MeetupRequest
	err := s.view(func(txn *badger.Txn) error {
		return getRecord(txn, key(meetupPrefix, id), &m)
	})
	if err != nil {
		return MeetupRequest{}, fmt.Errorf("meetup %s: %w", id, err)
	}
	return m, nil
}

// ResolveMeetup moves a pending request to accepted or declined. A request
// that was already resolved is a conflict.
func (s *Store) ResolveMeetup(id string, status MeetupStatus) (MeetupRequest, error) {
	if status != MeetupAccepted && status != MeetupDeclined {
		return MeetupRequest{}, fmt.Errorf("%w: cannot resolve to %q", errors.ErrInvalidInput, status)
	}

	var m MeetupRequest
	err := s.update(func(txn *badger.Txn) error {
		if err := getRecord(txn, key(meetupPrefix, id), &m); err != nil {
			return fmt.Errorf("meetup %s: %w", id, err)
		}
		if m.Status != MeetupPending {
			return fmt.Errorf("%w: meetup %s is already %s", errors.ErrConflict, id, m.Status)
		}
		m.Status = status
		m.UpdatedAt = s.now().UTC()
		return putRecord(txn, key(meetupPrefix, id), m)
	})
	if err != nil {
		return MeetupRequest{}, err
	}
	return m, nil
}

// ListMeetups returns the requests userID sent or received, newest first.
func (s *Store) ListMeetups(userID string) ([]MeetupRequest, error) {
	var out []MeetupRequest
	err := s.view(func(txn *badger.Txn) error {
		p := prefix(meetupUserPrefix, userID)
		return scanPrefix(txn, p, func(k []byte, _ *badger.Item) error {
			var m MeetupRequest
			if err := getRecord(txn, key(meetupPrefix, string(k[len(p):])), &m); err != nil {
				return err
			}
			out = append(out, m)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// HasPendingMeetup reports whether sender already has an unanswered
// request to receiver.
func (s *Store) HasPendingMeetup(senderID, receiverID string) (bool, error) {
	sent, err := s.ListMeetups(senderID)
	if err != nil {
		return false, err
	}
	for _, m := range sent {
		if m.SenderID == senderID && m.ReceiverID == receiverID && m.Status == MeetupPending {
			return true, nil
		}
	}
	return false, nil
}
