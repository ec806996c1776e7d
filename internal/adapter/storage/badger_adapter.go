package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/rl1809/things-api/internal/core/domain"
	"github.com/rl1809/things-api/internal/port"
)

// BadgerOptions configures the embedded store.
type BadgerOptions struct {
	// Path to the database directory. If empty, uses in-memory mode.
	Path string
	// InMemory forces in-memory mode even if Path is set.
	InMemory bool
}

// BadgerStore is an embedded document store for reference deployments and
// tests. Documents are JSON-encoded under ordered id keys; a badger
// sequence hands out ids.
type BadgerStore struct {
	db  *badger.DB
	seq *badger.Sequence
}

func NewBadgerStore(opts BadgerOptions) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.Path == "" || opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}

	seq, err := db.GetSequence([]byte("seq/things"), 64)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open id sequence: %w", err)
	}

	return &BadgerStore{db: db, seq: seq}, nil
}

func (s *BadgerStore) Collection(ctx context.Context, name string) (port.Collection, error) {
	if name != "things" {
		return nil, fmt.Errorf("%w: unknown collection %s", port.ErrUnavailable, name)
	}
	if s.db.IsClosed() {
		return nil, fmt.Errorf("%w: database closed", port.ErrUnavailable)
	}
	return &badgerCollection{db: s.db, seq: s.seq, prefix: name + "/"}, nil
}

func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		s.db.Close()
		return err
	}
	return s.db.Close()
}

type badgerCollection struct {
	db     *badger.DB
	seq    *badger.Sequence
	prefix string
}

func (c *badgerCollection) key(id int64) []byte {
	// zero-padded so byte order equals id order
	return fmt.Appendf(nil, "%s%020d", c.prefix, id)
}

func (c *badgerCollection) Find(ctx context.Context, q port.Query) (port.Cursor, error) {
	var items []domain.Thing

	err := c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(c.prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		skipped := 0
		for it.Rewind(); it.Valid(); it.Next() {
			var thing domain.Thing
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &thing)
			})
			if err != nil {
				return fmt.Errorf("decode document: %w", err)
			}

			if !matchesTerm(q.Term, thing) {
				continue
			}
			if skipped < q.Skip {
				skipped++
				continue
			}

			items = append(items, thing)
			if q.Limit > 0 && len(items) == q.Limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &sliceCursor{items: items}, nil
}

func (c *badgerCollection) FindOne(ctx context.Context, id int64) (*domain.Thing, error) {
	var thing domain.Thing

	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(c.key(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &thing)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get thing %d: %w", id, err)
	}
	return &thing, nil
}

func (c *badgerCollection) Insert(ctx context.Context, thing *domain.Thing) error {
	next, err := c.seq.Next()
	if err != nil {
		return fmt.Errorf("next id: %w", err)
	}

	thing.ID = int64(next) + 1
	thing.Metadata = newTokens()

	return c.put(thing)
}

func (c *badgerCollection) Replace(ctx context.Context, id int64, thing *domain.Thing) error {
	if _, err := c.FindOne(ctx, id); err != nil {
		return err
	}

	thing.ID = id
	thing.Metadata = newTokens()

	return c.put(thing)
}

func (c *badgerCollection) Remove(ctx context.Context, id int64) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		key := c.key(id)
		if _, err := txn.Get(key); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return port.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete thing %d: %w", id, err)
	}
	return nil
}

func (c *badgerCollection) put(thing *domain.Thing) error {
	doc, err := json.Marshal(thing)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(thing.ID), doc)
	})
	if err != nil {
		return fmt.Errorf("write thing %d: %w", thing.ID, err)
	}
	return nil
}

// matchesTerm applies the wildcard contains match the SQL backend gets
// from LIKE: the term arrives wrapped in % markers.
func matchesTerm(term string, thing domain.Thing) bool {
	needle := strings.ToUpper(strings.Trim(term, "%"))
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToUpper(thing.Name), needle) ||
		strings.Contains(strings.ToUpper(thing.Description), needle)
}

// sliceCursor is a one-shot cursor over an already-materialized snapshot.
type sliceCursor struct {
	items []domain.Thing
	pos   int
}

func (c *sliceCursor) Next() (*domain.Thing, bool) {
	if c.pos >= len(c.items) {
		return nil, false
	}
	thing := c.items[c.pos]
	c.pos++
	return &thing, true
}

func (c *sliceCursor) Err() error { return nil }

func (c *sliceCursor) Close() error { return nil }
