package store

import (
	"fmt"
	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	leveldberrors "github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"path/filepath"
)

// LevelDB holds a datastore name and its leveldb instance
type LevelDB struct {
	Name     string
	database *leveldb.DB
	writeOpt *opt.WriteOptions
}

// LevelDBOption defines an option on a LevelDB
type LevelDBOption func(ldb *LevelDB)

// OptionSyncWrites sets whether every write is synced to disk before returning. Writes
// are synced by default
func OptionSyncWrites(sync bool) LevelDBOption {
	return func(ldb *LevelDB) {
		ldb.writeOpt = &opt.WriteOptions{Sync: sync}
	}
}

// NewLevelDB instantiates and open a new LevelDB instance backed by a leveldb database. If the
// leveldb database doesn't exist, one is created
func NewLevelDB(name string, storagePath string, options ...LevelDBOption) (ldb *LevelDB, err error) {
	// Expand '~' as the full home directory path if appropriate
	path, err := homedir.Expand(storagePath)
	if err != nil {
		return nil, err
	}

	fullPath := filepath.Join(path, name)
	db, err := leveldb.OpenFile(fullPath, nil)

	if _, ok := err.(*leveldberrors.ErrCorrupted); ok {
		return nil, errors.Wrap(err, fmt.Sprintf("leveldb corrupted. Consider deleting [%s] and restarting if you don't mind losing data", fullPath))
	} else if err != nil {
		return nil, errors.Wrap(err, fmt.Sprintf("failed to open file with path [%s]", fullPath))
	}

	ldb = &LevelDB{Name: name, database: db, writeOpt: &opt.WriteOptions{Sync: true}}
	for _, o := range options {
		o(ldb)
	}

	return ldb, nil
}

// Close closes the LevelDB
func (ldb *LevelDB) Close() (err error) {
	return ldb.database.Close()
}

// GetString retrieves a value associated to the key
func (ldb *LevelDB) GetString(key string) (value string, err error) {
	val, err := ldb.get([]byte(key))

	return string(val), err
}

// get retrieves a value associated to the key
func (ldb *LevelDB) get(key []byte) (value []byte, err error) {
	value, err = ldb.database.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, errors.Wrapf(ErrNotFound, "key [%s]", key)
	}

	if err != nil {
		return nil, err
	}

	return value, nil
}

// PutString adds or updates a value associated to the key
func (ldb *LevelDB) PutString(key string, value string) (err error) {
	return ldb.put([]byte(key), []byte(value))
}

// put adds or updates a value associated to the key
func (ldb *LevelDB) put(key []byte, value []byte) (err error) {
	return ldb.database.Put(key, value, ldb.writeOpt)
}

// Scan returns the complete set of key/values from the database
func (ldb *LevelDB) Scan() (entries map[string]string, err error) {
	entries = map[string]string{}
	iter := ldb.database.NewIterator(nil, nil)
	for iter.Next() {
		key := string(iter.Key())
		value := string(iter.Value())
		entries[key] = value
	}

	iter.Release()
	err = iter.Error()

	return entries, err
}
