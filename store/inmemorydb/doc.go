/*
Package inmemorydb provides an implementation of github.com/alexandre-normand/steward/store's StringStorer interface
as an in-memory data store relying on a wrapping StringStorer for actual persistence.

The main use-case for the inmemorydb is to shield the real StringStorer implementation from receiving a read on
every incoming message since the steward looks up a community's settings for each one of them. Writes are always
sent to the persistent StringStorer first and only applied in memory once they succeeded so that nothing is ever
acknowledged without being persisted.

Example code:

	import (
		"github.com/alexandre-normand/steward/store"
		"github.com/alexandre-normand/steward/store/inmemorydb"
	)

	func main() {
		// Create your persistent storer first
		persistentStorer, err := store.NewLevelDB("communitySettings", "~/.steward")
		if err != nil {
			log.Fatalf("Opening db failed: %s", err.Error())
		}

		// Create the inmemorydb
		settingsStorer, err := inmemorydb.New(persistentStorer)
		if err != nil {
			log.Fatalf("Opening creating in-memory db wrapper: %s", err.Error())
		}
		defer settingsStorer.Close()
		...
	}
*/
package inmemorydb
