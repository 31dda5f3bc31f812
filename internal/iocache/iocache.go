// Package iocache keeps definitive lookup results in a Badger key-value
// store, so repeated runs do not query remote services again.
package iocache

import (
	"errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gnames/gnfmt"
	"github.com/gnames/gnsys"
)

// Cache is a Badger store with expiring entries encoded with GOB.
type Cache struct {
	dir string
	ttl time.Duration
	db  *badger.DB
	enc gnfmt.GNgob
}

// Open creates the directory if needed and opens the cache. A zero ttl
// keeps entries forever.
func Open(dir string, ttl time.Duration) (*Cache, error) {
	err := gnsys.MakeDir(dir)
	if err != nil {
		return nil, OpenError(dir, err)
	}

	options := badger.DefaultOptions(dir)
	options.Logger = nil

	db, err := badger.Open(options)
	if err != nil {
		return nil, OpenError(dir, err)
	}

	slog.Info("Cache opened", "dir", dir)
	return &Cache{dir: dir, ttl: ttl, db: db}, nil
}

// Close closes the Badger database.
func (c *Cache) Close() error {
	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	if err != nil {
		slog.Error("Cannot close cache", "error", err)
		return err
	}
	return nil
}

// get decodes a cached value into v. It returns false when the key is
// not present or expired.
func (c *Cache) get(key string, v any) (bool, error) {
	if c.db == nil {
		return false, NotOpenError()
	}

	var bs []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		bs, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err = c.enc.Decode(bs, v); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) set(key string, v any) error {
	if c.db == nil {
		return NotOpenError()
	}

	bs, err := c.enc.Encode(v)
	if err != nil {
		return err
	}

	return c.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), bs)
		if c.ttl > 0 {
			e = e.WithTTL(c.ttl)
		}
		return txn.SetEntry(e)
	})
}
