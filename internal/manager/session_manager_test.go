package manager

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/common/errors"
	"github.com/soshbru/soshbru/pkg/filter"
)

func newTestManager(t *testing.T, max int) *SessionManager {
	t.Helper()
	m, err := NewSessionManager(max)
	require.NoError(t, err)
	return m
}

func TestCreateAndGet(t *testing.T) {
	m := newTestManager(t, 4)

	s := m.Create([]string{"fastWifi", "bogus"}, "")
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, filter.MatchAny, s.Mode)
	assert.Equal(t, []string{"fastWifi"}, s.Selection.Strings())

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.True(t, got.Selection.Equal(s.Selection))

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestLRUEviction(t *testing.T) {
	m := newTestManager(t, 2)

	s1 := m.Create(nil, filter.MatchAny)
	s2 := m.Create(nil, filter.MatchAny)

	// Touch s1 so s2 becomes the oldest.
	_, err := m.Get(s1.ID)
	require.NoError(t, err)

	m.Create(nil, filter.MatchAny)
	assert.Equal(t, 2, m.Len())

	_, err = m.Get(s2.ID)
	assert.ErrorIs(t, err, errors.ErrNotFound)
	_, err = m.Get(s1.ID)
	assert.NoError(t, err)
}

func TestUpdateRollsBackOnError(t *testing.T) {
	m := newTestManager(t, 4)
	s := m.Create(nil, filter.MatchAny)

	_, err := m.Update(s.ID, func(s *Session) error {
		s.Query = "brew"
		return errors.ErrInvalidInput
	})
	require.ErrorIs(t, err, errors.ErrInvalidInput)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Query)

	got, err = m.Update(s.ID, func(s *Session) error {
		s.Query = "brew"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "brew", got.Query)
}

func TestLastRequestWins(t *testing.T) {
	m := newTestManager(t, 4)
	s := m.Create(nil, filter.MatchAny)

	first, err := m.Begin(s.ID)
	require.NoError(t, err)
	second, err := m.Begin(s.ID)
	require.NoError(t, err)

	assert.False(t, m.Current(first))
	assert.True(t, m.Current(second))

	// The newer response lands first; the older one must not overwrite it.
	_, err = m.Commit(second, func(s *Session) {
		s.RemoteQuery = "latte"
		s.Remote = []cafe.Cafe{{ID: "b"}}
	})
	require.NoError(t, err)

	_, err = m.Commit(first, func(s *Session) {
		s.RemoteQuery = "espresso"
		s.Remote = []cafe.Cafe{{ID: "a"}}
	})
	assert.ErrorIs(t, err, ErrStale)
	assert.ErrorIs(t, err, errors.ErrConflict)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "latte", got.RemoteQuery)
	require.Len(t, got.Remote, 1)
	assert.Equal(t, "b", got.Remote[0].ID)
}

func TestUpdateKeepsGeneration(t *testing.T) {
	m := newTestManager(t, 4)
	s := m.Create(nil, filter.MatchAny)

	ticket, err := m.Begin(s.ID)
	require.NoError(t, err)
	_, err = m.Update(s.ID, func(s *Session) error {
		s.Generation = 0
		return nil
	})
	require.NoError(t, err)
	assert.True(t, m.Current(ticket))
}

func TestGetReturnsCopy(t *testing.T) {
	m := newTestManager(t, 4)
	s := m.Create(nil, filter.MatchAny)
	ticket, err := m.Begin(s.ID)
	require.NoError(t, err)
	_, err = m.Commit(ticket, func(s *Session) { s.Remote = []cafe.Cafe{{ID: "a", Name: "A"}} })
	require.NoError(t, err)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	got.Remote[0].Name = "mutated"

	again, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Remote[0].Name)
}

func TestConcurrentBegins(t *testing.T) {
	m := newTestManager(t, 4)
	s := m.Create(nil, filter.MatchAny)

	var wg sync.WaitGroup
	tickets := make([]Ticket, 50)
	for i := range tickets {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tk, err := m.Begin(s.ID)
			assert.NoError(t, err)
			tickets[i] = tk
		}(i)
	}
	wg.Wait()

	current := 0
	for _, tk := range tickets {
		if m.Current(tk) {
			current++
		}
	}
	assert.Equal(t, 1, current)
}

func TestClockIsUsed(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	m, err := NewSessionManager(2, WithClock(func() time.Time { return at }))
	require.NoError(t, err)
	s := m.Create(nil, filter.MatchAll)
	assert.Equal(t, at, s.CreatedAt)
	assert.Equal(t, filter.MatchAll, s.Mode)
}
