// Package store persists the social side of the app: profiles, check-ins,
// meetup requests and favorites. Records are JSON, s2 compressed, in an
// embedded badger database.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/s2"
	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/common/errors"
)

// Store is safe for concurrent use; badger serializes conflicting
// transactions.
type Store struct {
	db     *badger.DB
	logger *zap.Logger
	now    func() time.Time
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open opens the database described by cfg.
func Open(cfg *Config, opts ...Option) (*Store, error) {
	db, err := openBadger(cfg)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db, logger: zap.NewNop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.logger.Info("store opened", zap.String("dir", cfg.DataDir), zap.Bool("in_memory", cfg.InMemory))
	return s, nil
}

// Close flushes and closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) update(fn func(txn *badger.Txn) error) error {
	err := s.db.Update(fn)
	if err == badger.ErrConflict {
		return fmt.Errorf("%w: concurrent update, retry", errors.ErrConflict)
	}
	return err
}

func (s *Store) view(fn func(txn *badger.Txn) error) error {
	return s.db.View(fn)
}

func putRecord(txn *badger.Txn, key []byte, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	return txn.Set(key, s2.Encode(nil, raw))
}

// getRecord decodes key into v. A missing key is ErrNotFound.
func getRecord(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return errors.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	compressed, err := item.ValueCopy(nil)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	raw, err := s2.Decode(nil, compressed)
	if err != nil {
		return fmt.Errorf("failed to decompress %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

// scanPrefix calls fn with every key under prefix, in key order.
func scanPrefix(txn *badger.Txn, prefix []byte, fn func(key []byte, item *badger.Item) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = prefix
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		if err := fn(item.KeyCopy(nil), item); err != nil {
			return err
		}
	}
	return nil
}

func key(parts ...string) []byte {
	n := 0
	for _, p := range parts {
		n += len(p) + 1
	}
	b := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			b = append(b, '/')
		}
		b = append(b, p...)
	}
	return b
}

// prefix is key with a trailing separator, for scans.
func prefix(parts ...string) []byte {
	return append(key(parts...), '/')
}
