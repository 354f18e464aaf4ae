package steward

import (
	"fmt"
	"github.com/alexandre-normand/steward/config"
	"github.com/hashicorp/golang-lru"
	"github.com/slack-go/slack"
	"github.com/spf13/viper"
)

const (
	userInfoCacheSizeDisabledValue         = 0
	processedMessageCacheSizeDisabledValue = 0
)

// UserInfoFinder defines the interface for finding a slack user's info
type UserInfoFinder interface {
	GetUserInfo(userID string) (user *slack.User, err error)
}

// cachingUserInfoFinder holds a cache and a loading UserInfoFinder to implement the UserInfoFinder loading entries from cache
type cachingUserInfoFinder struct {
	loader           UserInfoFinder
	logger           SLogger
	userProfileCache *lru.ARCCache
}

// NewCachingUserInfoFinder creates a new user info service with caching if enabled via config.UserInfoCacheSizeKey. It requires an implementation
// of the interface that will do the actual loading when not in cache
func NewCachingUserInfoFinder(v *viper.Viper, loader UserInfoFinder, logger SLogger) (uf UserInfoFinder, err error) {
	cuf := new(cachingUserInfoFinder)

	cs := v.GetInt(config.UserInfoCacheSizeKey)

	if cs > userInfoCacheSizeDisabledValue {
		cuf.userProfileCache, err = lru.NewARC(cs)
		if err != nil {
			return nil, err
		}
	} else if cs < userInfoCacheSizeDisabledValue {
		return nil, fmt.Errorf("Invalid user info cache size [%d], must be >= 0", cs)
	}

	cuf.loader = loader
	cuf.logger = logger

	return cuf, nil
}

// GetUserInfo gets the user info or returns an error and a nil user is not found or
// an error occurred during retrieval
func (c cachingUserInfoFinder) GetUserInfo(userID string) (u *slack.User, err error) {
	if c.userProfileCache == nil {
		c.logger.Debugf("Cache disabled, loading user info for [%s] from slack instead\n", userID)
		return c.loader.GetUserInfo(userID)
	}

	if userProfile, exists := c.userProfileCache.Get(userID); exists {
		c.logger.Debugf("User info in cache [%s] so using that\n", userID)

		userProfile, ok := userProfile.(slack.User)
		if !ok {
			return nil, fmt.Errorf("Error converting cached value for user id [%s]", userID)
		}

		return &userProfile, nil
	}

	c.logger.Debugf("User info for [%s] not found in cache, retrieving from slack and saving\n", userID)
	u, err = c.loader.GetUserInfo(userID)
	if err != nil {
		return nil, err
	}

	c.userProfileCache.Add(userID, *u)

	return u, nil
}

// isBot returns true when the user info of memberID says it's a bot. A failed lookup is logged and
// the author is treated as a human
func isBot(finder UserInfoFinder, memberID string, logger SLogger) bool {
	if finder == nil || memberID == "" {
		return false
	}

	u, err := finder.GetUserInfo(memberID)
	if err != nil {
		logger.Printf("Unable to look up user info for [%s], treating as human: %v\n", memberID, err)
		return false
	}

	return u.IsBot
}

// processedMessages remembers the identifiers of recently processed messages so that redeliveries
// (after reconnects) aren't processed twice. It's only used from the event loop
type processedMessages struct {
	cache *lru.ARCCache
}

// newProcessedMessages returns a processedMessages of the given size. A size of 0 disables deduplication
func newProcessedMessages(size int) (pm *processedMessages, err error) {
	pm = new(processedMessages)
	if size < processedMessageCacheSizeDisabledValue {
		return nil, fmt.Errorf("Invalid processed message cache size [%d], must be >= 0", size)
	}

	if size > processedMessageCacheSizeDisabledValue {
		if pm.cache, err = lru.NewARC(size); err != nil {
			return nil, err
		}
	}

	return pm, nil
}

// markProcessed records id as processed and returns true if it had already been processed before
func (pm *processedMessages) markProcessed(id SlackMessageID) (alreadyProcessed bool) {
	if pm.cache == nil {
		return false
	}

	if pm.cache.Contains(id) {
		return true
	}

	pm.cache.Add(id, true)
	return false
}
