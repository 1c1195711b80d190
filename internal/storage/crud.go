package storage

import (
	"encoding/json"
	"time"

	badger "github.com/dgraph-io/badger/v4"
)

// record is a value stored under its own key.
type record interface {
	SetKey(key string)
	GetKey() string
}

// put stores v under its key. With a positive ttl badger drops the entry
// once it is that old.
func (d *DB) put(v record, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	entry := badger.NewEntry([]byte(v.GetKey()), data)
	if ttl > 0 {
		entry = entry.WithTTL(ttl)
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(entry)
	})
}

// count returns how many live keys carry prefix.
func (d *DB) count(prefix string) (int, error) {
	n := 0
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// drop deletes every key under prefix and reports how many there were.
func (d *DB) drop(prefix string) (int, error) {
	n, err := d.count(prefix)
	if err != nil || n == 0 {
		return 0, err
	}
	if err := d.db.DropPrefix([]byte(prefix)); err != nil {
		return 0, err
	}
	return n, nil
}

// scan decodes the values under prefix in key order, or newest first when
// reverse is set. A limit of 0 means no limit.
func scan[T record](d *DB, prefix string, reverse bool, limit int, newFunc func() T) ([]T, error) {
	var out []T
	err := d.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = reverse
		opts.Prefix = []byte(prefix)
		if limit > 0 && limit < opts.PrefetchSize {
			opts.PrefetchSize = limit
		}
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := []byte(prefix)
		if reverse {
			seek = append(seek, 0xFF)
		}
		for it.Seek(seek); it.Valid(); it.Next() {
			if limit > 0 && len(out) == limit {
				break
			}
			item := it.Item()
			v := newFunc()
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, v)
			}); err != nil {
				return err
			}
			v.SetKey(string(item.KeyCopy(nil)))
			out = append(out, v)
		}
		return nil
	})
	return out, err
}
