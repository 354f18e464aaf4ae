package store_test

import (
	"github.com/alexandre-normand/steward/store"
	"github.com/stretchr/testify/assert"
	"io/ioutil"
	"os"
	"testing"
)

func TestNewStoreWithInvalidPath(t *testing.T) {
	tmpfile, err := ioutil.TempFile("", "example")
	assert.Nil(t, err)

	defer os.Remove(tmpfile.Name()) // clean up

	_, err = store.NewLevelDB("test", tmpfile.Name())
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "failed to open")
	}
}

func TestNewLevelDBStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "tmpTest")
	assert.Nil(t, err)

	defer os.RemoveAll(dir)

	ldb, err := store.NewLevelDB("test", dir)
	assert.Nil(t, err)
	defer ldb.Close()

	assert.Equal(t, "test", ldb.Name)
}

func TestGetAfterCloseShouldResultInError(t *testing.T) {
	dir, err := ioutil.TempDir("", "tmpTest")
	assert.Nil(t, err)

	defer os.RemoveAll(dir)

	ldb, err := store.NewLevelDB("test", dir)
	assert.Nil(t, err)

	ldb.Close()
	_, err = ldb.GetString("testKey")

	assert.Error(t, err)
}

func TestPutGetScanAsString(t *testing.T) {
	dir, err := ioutil.TempDir("", "tmpTest")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	var sstorer store.StringStorer

	sstorer, err = store.NewLevelDB("test", dir)
	assert.Nil(t, err)
	defer sstorer.Close()

	err = sstorer.PutString("testKey", "value1")
	assert.Nil(t, err)

	v, err := sstorer.GetString("testKey")
	assert.Nil(t, err)

	assert.Equal(t, "value1", v)

	m, err := sstorer.Scan()
	assert.Nil(t, err)

	assert.Equal(t, map[string]string{"testKey": "value1"}, m)
}

func TestGetMissingKeyIsNotFound(t *testing.T) {
	dir, err := ioutil.TempDir("", "tmpTest")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	ldb, err := store.NewLevelDB("test", dir)
	assert.Nil(t, err)
	defer ldb.Close()

	_, err = ldb.GetString("missing")
	if assert.Error(t, err) {
		assert.True(t, store.IsNotFound(err))
	}
}

func TestValuesSurviveReopening(t *testing.T) {
	dir, err := ioutil.TempDir("", "tmpTest")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	ldb, err := store.NewLevelDB("test", dir, store.OptionSyncWrites(true))
	assert.Nil(t, err)

	err = ldb.PutString("T0001", `{"autoReplyEnabled":true}`)
	assert.Nil(t, err)
	assert.Nil(t, ldb.Close())

	ldb, err = store.NewLevelDB("test", dir)
	assert.Nil(t, err)
	defer ldb.Close()

	v, err := ldb.GetString("T0001")
	assert.Nil(t, err)
	assert.Equal(t, `{"autoReplyEnabled":true}`, v)
}

func TestPutWithoutSyncWrites(t *testing.T) {
	dir, err := ioutil.TempDir("", "tmpTest")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	ldb, err := store.NewLevelDB("test", dir, store.OptionSyncWrites(false))
	assert.Nil(t, err)
	defer ldb.Close()

	assert.Nil(t, ldb.PutString("U0001", "3"))

	v, err := ldb.GetString("U0001")
	assert.Nil(t, err)
	assert.Equal(t, "3", v)
}
