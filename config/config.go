// Package config defines the steward configuration keys along with their default values
package config

import (
	"github.com/spf13/viper"
	"strings"
	"time"
)

const (
	// TokenKey is the slack token, string value
	TokenKey = "token"

	// DebugKey turns debug logging on, bool value
	DebugKey = "debug"

	// ThreadedRepliesKey makes auto-replies go in the thread of the triggering message, bool value
	ThreadedRepliesKey = "threadedReplies"

	// BroadcastThreadedRepliesKey broadcasts threaded auto-replies to the channel, bool value
	BroadcastThreadedRepliesKey = "broadcastThreadedReplies"

	// UserInfoCacheSizeKey is the number of user infos kept in cache, int value. 0 disables caching
	UserInfoCacheSizeKey = "userInfoCacheSize"

	// ProcessedMessageCacheSizeKey is the number of processed message ids remembered to ignore
	// redeliveries, int value. 0 disables deduplication
	ProcessedMessageCacheSizeKey = "processedMessageCacheSize"

	// MessageProcessingPartitionCount is the number of message processing workers, int value that must be a power of two
	MessageProcessingPartitionCount = "advanced.messageProcessing.partitionCount"

	// MessageProcessingBufferedMessageCount is the number of messages queued per worker, int value
	MessageProcessingBufferedMessageCount = "advanced.messageProcessing.bufferedMessageCount"

	// StorageBackendKey selects the persistent storage, either "leveldb" or "datastore"
	StorageBackendKey = "storage.backend"

	// StoragePathKey is the directory holding the leveldb databases, string value. '~' is expanded
	StoragePathKey = "storage.path"

	// StorageSyncWritesKey syncs every leveldb write to disk before acknowledging it, bool value
	StorageSyncWritesKey = "storage.syncWrites"

	// StorageInMemoryCacheKey keeps a write-through copy of all data in memory, bool value
	StorageInMemoryCacheKey = "storage.inMemoryCache"

	// DatastoreProjectIDKey is the gcloud project id of the datastore backend, string value
	DatastoreProjectIDKey = "storage.datastore.projectID"

	// DatastoreCredentialsFileKey is the path of the gcloud credentials json file, string value
	DatastoreCredentialsFileKey = "storage.datastore.credentialsFile"

	// DatastoreTimeoutKey bounds every datastore call, duration value
	DatastoreTimeoutKey = "storage.datastore.timeout"

	// GatewayListenAddressKey is the address the configuration gateway listens on, string value
	GatewayListenAddressKey = "gateway.listenAddress"

	// GatewaySessionSecretKey is the secret session tokens are signed with, string value
	GatewaySessionSecretKey = "gateway.sessionSecret"

	// GatewaySessionCookieKey is the name of the cookie holding the session token, string value
	GatewaySessionCookieKey = "gateway.sessionCookie"

	// EnvPrefix prefixes every environment variable overriding a configuration value
	EnvPrefix = "STEWARD"
)

const (
	// LevelDBBackend is the StorageBackendKey value for local leveldb storage
	LevelDBBackend = "leveldb"

	// DatastoreBackend is the StorageBackendKey value for google cloud datastore storage
	DatastoreBackend = "datastore"
)

var defaultValues = map[string]interface{}{
	DebugKey:                              false,
	ThreadedRepliesKey:                    false,
	BroadcastThreadedRepliesKey:           false,
	UserInfoCacheSizeKey:                  1000,
	ProcessedMessageCacheSizeKey:          5000,
	MessageProcessingPartitionCount:       16,
	MessageProcessingBufferedMessageCount: 10,
	StorageBackendKey:                     LevelDBBackend,
	StoragePathKey:                        "~/.steward",
	StorageSyncWritesKey:                  true,
	StorageInMemoryCacheKey:               true,
	DatastoreTimeoutKey:                   time.Duration(5) * time.Second,
	GatewayListenAddressKey:               ":8080",
	GatewaySessionCookieKey:               "steward_session",
}

// NewViperWithDefaults creates a new viper instance with all default values set on it
func NewViperWithDefaults() (v *viper.Viper) {
	v = viper.New()

	return LayerConfigWithDefaults(v)
}

// LayerConfigWithDefaults sets the defaults on an existing viper instance and turns on
// environment variable overrides (STEWARD_STORAGE_PATH for storage.path, for example)
func LayerConfigWithDefaults(v *viper.Viper) (lv *viper.Viper) {
	for key, value := range defaultValues {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the configuration file at path (any format supported by viper) and layers the
// defaults under it. An empty path only returns the defaults
func Load(path string) (v *viper.Viper, err error) {
	v = NewViperWithDefaults()
	if path == "" {
		return v, nil
	}

	v.SetConfigFile(path)
	if err = v.ReadInConfig(); err != nil {
		return nil, err
	}

	return v, nil
}
