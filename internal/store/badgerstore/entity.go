package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"

	"github.com/dgraph-io/badger/v4"

	"github.com/imagevault/imagevault-server/internal/store"
)

// indexNamespace keeps secondary index keys out of every entity prefix, so
// client-chosen IDs can never collide with them.
const indexNamespace = "idx:"

// entity provides generic CRUD for one JSON-encoded document type.
type entity[T any] struct {
	db      *badger.DB
	prefix  string
	indexes []index[T]
}

// index is a unique secondary index on an entity.
type index[T any] struct {
	name            string
	keyGen          func(*T) []string
	lookupTransform func(string) string
}

func newEntity[T any](db *badger.DB, prefix string) *entity[T] {
	return &entity[T]{db: db, prefix: prefix}
}

// withIndex adds a unique secondary index. lookupTransform, when set, is
// applied to values passed to getByIndex.
func (e *entity[T]) withIndex(name string, keyGen func(*T) []string, lookupTransform func(string) string) *entity[T] {
	e.indexes = append(e.indexes, index[T]{name: name, keyGen: keyGen, lookupTransform: lookupTransform})
	return e
}

func (e *entity[T]) key(id string) []byte {
	return []byte(e.prefix + id)
}

func (e *entity[T]) indexKey(name, value string) []byte {
	return []byte(indexNamespace + e.prefix + name + ":" + value)
}

// create stores a new entity. Returns store.ErrAlreadyExists if the ID or any
// unique index value is taken.
func (e *entity[T]) create(ctx context.Context, id string, v *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(e.key(id)); err == nil {
			return store.ErrAlreadyExists
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check existing key: %w", err)
		}

		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(v) {
				if err := e.checkIndexFree(txn, idx.name, value); err != nil {
					return err
				}
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.setIndexes(txn, id, v)
	})
}

// get retrieves an entity by ID. Returns store.ErrNotFound if absent.
func (e *entity[T]) get(ctx context.Context, id string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var v *T
	err := e.db.View(func(txn *badger.Txn) error {
		var err error
		v, err = e.read(txn, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// getByIndex resolves a secondary index value to its entity.
func (e *entity[T]) getByIndex(ctx context.Context, name, value string) (*T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, idx := range e.indexes {
		if idx.name == name && idx.lookupTransform != nil {
			value = idx.lookupTransform(value)
			break
		}
	}

	var v *T
	err := e.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(e.indexKey(name, value))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get index key: %w", err)
		}

		id, err := item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("failed to read index value: %w", err)
		}
		v, err = e.read(txn, string(id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// update replaces an existing entity, moving its index entries.
// Returns store.ErrNotFound if the entity does not exist.
func (e *entity[T]) update(ctx context.Context, id string, v *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal entity: %w", err)
	}

	return e.db.Update(func(txn *badger.Txn) error {
		old, err := e.read(txn, id)
		if err != nil {
			return err
		}

		for _, idx := range e.indexes {
			oldValues := make(map[string]bool)
			for _, value := range idx.keyGen(old) {
				oldValues[value] = true
				if err := txn.Delete(e.indexKey(idx.name, value)); err != nil {
					return fmt.Errorf("failed to delete old index key: %w", err)
				}
			}
			for _, value := range idx.keyGen(v) {
				if oldValues[value] {
					continue
				}
				if err := e.checkIndexFree(txn, idx.name, value); err != nil {
					return err
				}
			}
		}

		if err := txn.Set(e.key(id), data); err != nil {
			return fmt.Errorf("failed to set key: %w", err)
		}
		return e.setIndexes(txn, id, v)
	})
}

// delete removes an entity and its index entries.
// Returns store.ErrNotFound if the entity does not exist.
func (e *entity[T]) delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.db.Update(func(txn *badger.Txn) error {
		old, err := e.read(txn, id)
		if err != nil {
			return err
		}

		for _, idx := range e.indexes {
			for _, value := range idx.keyGen(old) {
				if err := txn.Delete(e.indexKey(idx.name, value)); err != nil {
					return fmt.Errorf("failed to delete index key: %w", err)
				}
			}
		}

		if err := txn.Delete(e.key(id)); err != nil {
			return fmt.Errorf("failed to delete key: %w", err)
		}
		return nil
	})
}

// list returns an iterator over all entities in key order.
func (e *entity[T]) list(ctx context.Context) iter.Seq2[*T, error] {
	return func(yield func(*T, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}

		stopped := false
		err := e.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(e.prefix)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}

				var v T
				if err := it.Item().Value(func(val []byte) error {
					return json.Unmarshal(val, &v)
				}); err != nil {
					return fmt.Errorf("failed to unmarshal entity: %w", err)
				}

				if !yield(&v, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(nil, err)
		}
	}
}

func (e *entity[T]) read(txn *badger.Txn, id string) (*T, error) {
	item, err := txn.Get(e.key(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get key: %w", err)
	}

	var v T
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &v)
	}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	return &v, nil
}

func (e *entity[T]) checkIndexFree(txn *badger.Txn, name, value string) error {
	_, err := txn.Get(e.indexKey(name, value))
	if err == nil {
		return store.ErrAlreadyExists.WithMessage(fmt.Sprintf("%s %q already in use", name, value))
	}
	if !errors.Is(err, badger.ErrKeyNotFound) {
		return fmt.Errorf("failed to check index key: %w", err)
	}
	return nil
}

func (e *entity[T]) setIndexes(txn *badger.Txn, id string, v *T) error {
	for _, idx := range e.indexes {
		for _, value := range idx.keyGen(v) {
			if err := txn.Set(e.indexKey(idx.name, value), []byte(id)); err != nil {
				return fmt.Errorf("failed to set index key: %w", err)
			}
		}
	}
	return nil
}
