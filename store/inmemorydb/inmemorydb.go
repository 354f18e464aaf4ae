package inmemorydb

import (
	"github.com/alexandre-normand/steward/store"
	"github.com/pkg/errors"
	"sync"
)

// InMemoryDB implements the store.StringStorer interface and keeps a copy of everything
// in memory while writing puts through to the wrapped (persistent) StringStorer.
// It is safe for concurrent use
type InMemoryDB struct {
	persistentStorer store.StringStorer

	sync.RWMutex
	data map[string]string
}

// New returns a new instance of InMemoryDB wrapping the persistent StringStorer.
// Note that instantiation might have some latency induced by the initial scan to load
// the current database content from the persistentStorer in memory
func New(storer store.StringStorer) (imdb *InMemoryDB, err error) {
	imdb = new(InMemoryDB)
	imdb.persistentStorer = storer

	imdb.data, err = imdb.persistentStorer.Scan()
	if err != nil {
		return nil, err
	}

	return imdb, nil
}

// GetString returns the value associated to a given key. If the value is not
// found, the zero-value string is returned along with an error wrapping store.ErrNotFound
func (imdb *InMemoryDB) GetString(key string) (value string, err error) {
	imdb.RLock()
	defer imdb.RUnlock()

	v, ok := imdb.data[key]
	if !ok {
		return "", errors.Wrapf(store.ErrNotFound, "key [%s]", key)
	}

	return v, nil
}

// PutString stores the key/value to the database. The key/value is persisted to
// persistent storage first and only kept in memory once that succeeded
func (imdb *InMemoryDB) PutString(key string, value string) (err error) {
	imdb.Lock()
	defer imdb.Unlock()

	err = imdb.persistentStorer.PutString(key, value)
	if err != nil {
		return err
	}

	imdb.data[key] = value
	return nil
}

// Scan returns all key/values from the database. This one returns a copy of the in-memory
// copy without querying the persistent storer.
func (imdb *InMemoryDB) Scan() (entries map[string]string, err error) {
	imdb.RLock()
	defer imdb.RUnlock()

	entries = make(map[string]string, len(imdb.data))
	for k, v := range imdb.data {
		entries[k] = v
	}

	return entries, nil
}

// Close closes the underlying storer
func (imdb *InMemoryDB) Close() (err error) {
	return imdb.persistentStorer.Close()
}
