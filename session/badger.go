package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// BadgerProvider stores every session in one Badger database under
// "session/<id>/<key>".
type BadgerProvider struct {
	db  *badger.DB
	ttl time.Duration
}

// OpenBadger opens (or creates) a Badger database. An empty dir keeps the
// data in memory. A zero ttl keeps entries forever.
func OpenBadger(dir string, ttl time.Duration, logger badger.Logger) (*BadgerProvider, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts = opts.WithLogger(logger)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}
	return &BadgerProvider{db: db, ttl: ttl}, nil
}

// Close flushes and closes the database.
func (p *BadgerProvider) Close() error {
	return p.db.Close()
}

// Open returns the store for sessionID.
func (p *BadgerProvider) Open(sessionID string) Store {
	return &badgerStore{p: p, prefix: "session/" + sessionID + "/"}
}

type badgerStore struct {
	p      *BadgerProvider
	prefix string
}

func (s *badgerStore) key(k string) []byte {
	return []byte(s.prefix + k)
}

func (s *badgerStore) Get(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	var value string
	err := s.p.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("session get %s: %w", key, err)
	}
	return value, true, nil
}

func (s *badgerStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.p.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry(s.key(key), []byte(value))
		if s.p.ttl > 0 {
			e = e.WithTTL(s.p.ttl)
		}
		return txn.SetEntry(e)
	})
	if err != nil {
		return fmt.Errorf("session set %s: %w", key, err)
	}
	return nil
}

func (s *badgerStore) Clear(ctx context.Context, keys ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.p.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(s.key(k)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("session clear: %w", err)
	}
	return nil
}
