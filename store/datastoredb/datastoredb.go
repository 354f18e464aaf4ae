package datastoredb

import (
	"cloud.google.com/go/datastore"
	"context"
	"github.com/alexandre-normand/steward/store"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
	"sync"
	"time"
)

const (
	// DefaultTimeout is the default maximum duration of a single datastore call
	DefaultTimeout = 5 * time.Second

	testConnectivityKey = "testConnectivity"
)

var errNotConnected = errors.New("datastore client is not connected")

// DatastoreDB implements the store.StringStorer interface. It maps
// the given name (usually a namespace such as "communitySettings") to the datastore entity Kind
// to isolate data between different namespaces
type DatastoreDB struct {
	datastorer
	kind    string
	timeout time.Duration

	// connMu is held for reading by datastore calls and for writing while reconnecting.
	// generation counts reconnects so concurrent failures only reconnect once
	connMu     sync.RWMutex
	generation uint64
}

// EntryValue represents an entity/entry value mapped to a datastore key
type EntryValue struct {
	Value string `datastore:",noindex"`
}

// Option defines an option on a DatastoreDB
type Option func(dsdb *DatastoreDB)

// OptionTimeout sets the maximum duration of each datastore call. Calls exceeding it fail
// instead of blocking
func OptionTimeout(timeout time.Duration) Option {
	return func(dsdb *DatastoreDB) {
		dsdb.timeout = timeout
	}
}

// New returns a new instance of DatastoreDB for the given name (which maps to the datastore entity "Kind" and can
// be thought of as the namespace). This function also requires a gcloudProjectID as well as at least one option to provide gcloud client credentials
func New(name string, gcloudProjectID string, options []Option, gcloudClientOpts ...option.ClientOption) (dsdb *DatastoreDB, err error) {
	gc := gcdatastore{gcloudProjectID: gcloudProjectID, gcloudClientOpts: gcloudClientOpts}

	return newWithDatastorer(name, &gc, options...)
}

// newWithDatastorer returns a new instance of DatastoreDB for the given name and datastorer
func newWithDatastorer(name string, ds datastorer, options ...Option) (dsdb *DatastoreDB, err error) {
	dsdb = new(DatastoreDB)
	dsdb.datastorer = ds
	dsdb.kind = name
	dsdb.timeout = DefaultTimeout

	for _, o := range options {
		o(dsdb)
	}

	if err = dsdb.connect(); err != nil {
		return nil, err
	}

	if err = dsdb.testDB(); err != nil {
		dsdb.Close()
		return nil, err
	}

	return dsdb, nil
}

// testDB makes a lightweight call to the datastore to validate connectivity and credentials
func (dsdb *DatastoreDB) testDB() (err error) {
	_, err = dsdb.getString(testConnectivityKey)

	if err != nil && err != datastore.ErrNoSuchEntity {
		return err
	}

	return nil
}

// reconnect creates a new client and validates it unless another caller already reconnected
// since the given generation
func (dsdb *DatastoreDB) reconnect(generation uint64) (err error) {
	dsdb.connMu.Lock()
	defer dsdb.connMu.Unlock()

	if dsdb.generation != generation {
		return nil
	}

	if err = dsdb.connect(); err != nil {
		return err
	}

	dsdb.generation++
	return dsdb.testDB()
}

// run runs op with the current client and returns the generation it ran with
func (dsdb *DatastoreDB) run(op func() error) (generation uint64, err error) {
	dsdb.connMu.RLock()
	defer dsdb.connMu.RUnlock()

	return dsdb.generation, op()
}

// withRetry runs op and, if it failed with anything other than datastore.ErrNoSuchEntity,
// reconnects and runs it once more
func (dsdb *DatastoreDB) withRetry(op func() error) (err error) {
	generation, err := dsdb.run(op)
	if err == nil || err == datastore.ErrNoSuchEntity {
		return err
	}

	if rerr := dsdb.reconnect(generation); rerr != nil {
		return err
	}

	_, err = dsdb.run(op)
	return err
}

func (dsdb *DatastoreDB) getString(key string) (value string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), dsdb.timeout)
	defer cancel()

	var e EntryValue
	k := datastore.NameKey(dsdb.kind, key, nil)
	if err := dsdb.Get(ctx, k, &e); err != nil {
		return "", err
	}

	return e.Value, nil
}

// GetString returns the value associated to a given key. If the value is not
// found or an error occurred, the zero-value string is returned along with
// the error. A missing value is reported with an error wrapping store.ErrNotFound
func (dsdb *DatastoreDB) GetString(key string) (value string, err error) {
	err = dsdb.withRetry(func() (err error) {
		value, err = dsdb.getString(key)
		return err
	})

	if err == datastore.ErrNoSuchEntity {
		return "", errors.Wrapf(store.ErrNotFound, "key [%s]", key)
	}

	return value, err
}

// PutString stores the key/value to the database
func (dsdb *DatastoreDB) PutString(key string, value string) (err error) {
	return dsdb.withRetry(func() (err error) {
		ctx, cancel := context.WithTimeout(context.Background(), dsdb.timeout)
		defer cancel()

		k := datastore.NameKey(dsdb.kind, key, nil)
		_, err = dsdb.Put(ctx, k, &EntryValue{Value: value})
		return err
	})
}

// Close closes the datastore client once in-flight calls are done
func (dsdb *DatastoreDB) Close() (err error) {
	dsdb.connMu.Lock()
	defer dsdb.connMu.Unlock()

	return dsdb.datastorer.Close()
}

// Scan returns all key/values from the database
func (dsdb *DatastoreDB) Scan() (entries map[string]string, err error) {
	var keys []*datastore.Key
	var vals []*EntryValue

	err = dsdb.withRetry(func() (err error) {
		ctx, cancel := context.WithTimeout(context.Background(), dsdb.timeout)
		defer cancel()

		vals = nil
		keys, err = dsdb.GetAll(ctx, datastore.NewQuery(dsdb.kind), &vals)
		return err
	})

	if err != nil {
		return nil, err
	}

	entries = make(map[string]string)
	for i, key := range keys {
		entries[key.Name] = vals[i].Value
	}

	return entries, nil
}
