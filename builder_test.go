package steward_test

import (
	"errors"
	"fmt"
	"github.com/alexandre-normand/steward"
	"github.com/alexandre-normand/steward/community"
	"github.com/alexandre-normand/steward/config"
	"github.com/alexandre-normand/steward/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

type CloseTester struct {
	errorMsg string
	closed   *bool
}

func (c CloseTester) Close() (err error) {
	if c.closed != nil {
		*c.closed = true
	}

	if c.errorMsg != "" {
		return errors.New(c.errorMsg)
	}

	return nil
}

func newCommunityStore() *community.Store {
	return community.NewStore(&mocks.Storer{}, &mocks.Storer{})
}

func TestNewStewardWithStore(t *testing.T) {
	b, err := steward.NewBot("jane", config.NewViperWithDefaults()).
		WithStore(newCommunityStore()).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Empty(t, b.Communities())
}

func TestNewStewardWithoutStore(t *testing.T) {
	b, err := steward.NewBot("jane", config.NewViperWithDefaults()).
		Build()

	assert.EqualError(t, err, "steward [jane] requires a configuration store")
	assert.Nil(t, b)
}

func TestNewStewardWithStoreError(t *testing.T) {
	b, err := steward.NewBot("jane", config.NewViperWithDefaults()).
		WithStoreErr(nil, fmt.Errorf("error1")).
		WithStoreErr(newCommunityStore(), fmt.Errorf("error2")).
		Build()

	assert.EqualError(t, err, "error1")
	assert.Nil(t, b)
}

func TestNewStewardClosesClosers(t *testing.T) {
	firstClosed := false
	secondClosed := false
	b, err := steward.NewBot("jane", config.NewViperWithDefaults()).
		WithStore(newCommunityStore()).
		WithCloser(CloseTester{errorMsg: "should be called", closed: &firstClosed}).
		WithCloser(CloseTester{closed: &secondClosed}).
		Build()

	require.NoError(t, err)
	require.NotNil(t, b)

	err = b.Close()
	assert.EqualError(t, err, "should be called")
	assert.True(t, firstClosed)
	assert.True(t, secondClosed)
}

func TestNewStewardWithoutClosers(t *testing.T) {
	b, err := steward.NewBot("jane", config.NewViperWithDefaults()).
		WithStore(newCommunityStore()).
		Build()

	require.NoError(t, err)
	assert.NoError(t, b.Close())
}
