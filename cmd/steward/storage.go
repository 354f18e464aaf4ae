package main

import (
	"fmt"
	"github.com/alexandre-normand/steward"
	"github.com/alexandre-normand/steward/community"
	"github.com/alexandre-normand/steward/config"
	"github.com/alexandre-normand/steward/store"
	"github.com/alexandre-normand/steward/store/datastoredb"
	"github.com/alexandre-normand/steward/store/inmemorydb"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"google.golang.org/api/option"
)

// openStore opens the settings and credits namespaces on the configured backend
func openStore(v *viper.Viper, logger steward.SLogger) (cs *community.Store, err error) {
	settings, err := openStorer(v, community.SettingsNamespace, logger)
	if err != nil {
		return nil, err
	}

	credits, err := openStorer(v, community.CreditsNamespace, logger)
	if err != nil {
		settings.Close()
		return nil, err
	}

	return community.NewStore(settings, credits), nil
}

func openStorer(v *viper.Viper, namespace string, logger steward.SLogger) (s store.StringStorer, err error) {
	backend := v.GetString(config.StorageBackendKey)

	switch backend {
	case config.LevelDBBackend:
		path := v.GetString(config.StoragePathKey)
		logger.Printf("Opening leveldb storage [%s] in [%s]\n", namespace, path)

		s, err = store.NewLevelDB(namespace, path, store.OptionSyncWrites(v.GetBool(config.StorageSyncWritesKey)))

	case config.DatastoreBackend:
		projectID := v.GetString(config.DatastoreProjectIDKey)
		if projectID == "" {
			return nil, fmt.Errorf("%s is required with the [%s] storage backend", config.DatastoreProjectIDKey, backend)
		}

		var clientOpts []option.ClientOption
		if credentialsFile := v.GetString(config.DatastoreCredentialsFileKey); credentialsFile != "" {
			clientOpts = append(clientOpts, option.WithCredentialsFile(credentialsFile))
		}

		logger.Printf("Opening datastore storage [%s] in project [%s]\n", namespace, projectID)
		s, err = datastoredb.New(namespace, projectID, []datastoredb.Option{datastoredb.OptionTimeout(v.GetDuration(config.DatastoreTimeoutKey))}, clientOpts...)

	default:
		return nil, fmt.Errorf("unknown storage backend [%s], must be one of [%s, %s]", backend, config.LevelDBBackend, config.DatastoreBackend)
	}

	if err != nil {
		return nil, errors.Wrapf(err, "opening storage [%s]", namespace)
	}

	if !v.GetBool(config.StorageInMemoryCacheKey) {
		return s, nil
	}

	cached, err := inmemorydb.New(s)
	if err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "loading storage [%s] in memory", namespace)
	}

	return cached, nil
}
