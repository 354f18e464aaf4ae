package steward

import (
	"fmt"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
)

// ChatClient applies chat effects on behalf of the bot
type ChatClient interface {
	// Reply posts text addressed to authorID in channelID. threadTimestamp identifies the
	// thread of the triggering message and is only used when threaded replies are on
	Reply(channelID string, threadTimestamp string, authorID string, text string) (err error)

	// DeleteMessage deletes the message identified by its channel and timestamp
	DeleteMessage(channelID string, messageID string) (err error)

	// SendDirect sends a private message to a member
	SendDirect(memberID string, text string) (err error)
}

// messagePoster is implemented by any value that has the PostMessage method.
//
// slack.Client implements this interface
type messagePoster interface {
	PostMessage(channelID string, options ...slack.MsgOption) (rChannelID string, rTimestamp string, err error)
}

// messageDeleter is implemented by any value that has the DeleteMessage method.
//
// slack.Client implements this interface
type messageDeleter interface {
	DeleteMessage(channelID string, timestamp string) (rChannelID string, rTimestamp string, err error)
}

// chatDriver encompasses the messagePoster and messageDeleter interfaces
type chatDriver interface {
	messagePoster
	messageDeleter
}

// slackChatClient is the ChatClient backed by the slack web api
type slackChatClient struct {
	driver                   chatDriver
	threadedReplies          bool
	broadcastThreadedReplies bool
}

// NewSlackChatClient returns a ChatClient sending through driver (usually a *slack.Client)
func NewSlackChatClient(driver chatDriver, threadedReplies bool, broadcastThreadedReplies bool) (cc ChatClient) {
	return &slackChatClient{driver: driver, threadedReplies: threadedReplies, broadcastThreadedReplies: broadcastThreadedReplies}
}

// Reply sends "<@author>: text" on the channel or in the thread of the triggering message
func (c *slackChatClient) Reply(channelID string, threadTimestamp string, authorID string, text string) (err error) {
	options := []slack.MsgOption{slack.MsgOptionText(fmt.Sprintf("<@%s>: %s", authorID, text), false), slack.MsgOptionAsUser(true)}
	if c.threadedReplies && threadTimestamp != "" {
		options = append(options, slack.MsgOptionTS(threadTimestamp))

		if c.broadcastThreadedReplies {
			options = append(options, slack.MsgOptionBroadcast())
		}
	}

	_, _, err = c.driver.PostMessage(channelID, options...)
	return errors.Wrapf(err, "reply on channel [%s]", channelID)
}

// DeleteMessage deletes a message
func (c *slackChatClient) DeleteMessage(channelID string, messageID string) (err error) {
	_, _, err = c.driver.DeleteMessage(channelID, messageID)
	return errors.Wrapf(err, "delete message [%s] on channel [%s]", messageID, channelID)
}

// SendDirect posts text to the member's direct message channel. Slack opens the im channel
// when posting to a user id
func (c *slackChatClient) SendDirect(memberID string, text string) (err error) {
	_, _, err = c.driver.PostMessage(memberID, slack.MsgOptionText(text, false), slack.MsgOptionAsUser(true))
	return errors.Wrapf(err, "direct message to [%s]", memberID)
}
