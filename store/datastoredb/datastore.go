package datastoredb

import (
	"cloud.google.com/go/datastore"
	"context"
	"google.golang.org/api/option"
	"io"
	"sync"
)

// gcdatastore wraps an actual google cloud datastore Client for real/production datastore interaction.
// The client is replaced on reconnect so every access goes through mu
type gcdatastore struct {
	mu               sync.RWMutex
	client           *datastore.Client
	gcloudProjectID  string
	gcloudClientOpts []option.ClientOption
}

// connecter is implemented by any value that has a connect method
type connecter interface {
	connect() (err error)
}

// connect creates a new client instance from the initial gcloud project id and client options
// If the client options can be updated during the course of a process (such as option.WithCredentialsFile),
// connect should be able to reflect changes in those when it lazily reconnects on error
func (ds *gcdatastore) connect() (err error) {
	ctx := context.Background()

	client, err := datastore.NewClient(ctx, ds.gcloudProjectID, ds.gcloudClientOpts...)
	if err != nil {
		return err
	}

	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.client != nil {
		ds.client.Close()
	}

	ds.client = client
	return nil
}

// datastorer is implemented by any value that implements all of its methods. It is meant
// to allow easier testing decoupled from an actual datastore to interact with and
// the methods defined are method implemented by the datastore.Client that this package
// uses
type datastorer interface {
	connecter
	io.Closer
	Get(c context.Context, k *datastore.Key, dest interface{}) (err error)
	GetAll(c context.Context, query *datastore.Query, dest interface{}) (keys []*datastore.Key, err error)
	Put(c context.Context, k *datastore.Key, v interface{}) (key *datastore.Key, err error)
}

// Close closes the current client, if any
func (ds *gcdatastore) Close() (err error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.client == nil {
		return nil
	}

	err = ds.client.Close()
	ds.client = nil

	return err
}

// current returns the client in use, nil if there is none
func (ds *gcdatastore) current() (client *datastore.Client) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	return ds.client
}

// Get loads the entity stored for key into dst. See https://godoc.org/cloud.google.com/go/datastore#Client.Get
func (ds *gcdatastore) Get(c context.Context, k *datastore.Key, dest interface{}) (err error) {
	client := ds.current()
	if client == nil {
		return errNotConnected
	}

	return client.Get(c, k, dest)
}

// GetAll runs the provided query in the given context and returns all keys that match that query.
// See https://godoc.org/cloud.google.com/go/datastore#Client.GetAll
func (ds *gcdatastore) GetAll(c context.Context, query *datastore.Query, dest interface{}) (keys []*datastore.Key, err error) {
	client := ds.current()
	if client == nil {
		return nil, errNotConnected
	}

	return client.GetAll(c, query, dest)
}

// Put saves the entity src into the datastore with the given key. See https://godoc.org/cloud.google.com/go/datastore#Client.Put
func (ds *gcdatastore) Put(c context.Context, k *datastore.Key, v interface{}) (key *datastore.Key, err error) {
	client := ds.current()
	if client == nil {
		return nil, errNotConnected
	}

	return client.Put(c, k, v)
}
