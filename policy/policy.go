// Package policy decides what the steward does in response to a message given the settings of
// the community it was sent in. It is pure decision logic: applying the resulting effects is up to
// the caller.
package policy

import (
	"fmt"
	"github.com/alexandre-normand/steward/community"
	"strings"
)

const (
	// SpamKeyword is the text that gets a message deleted when moderation is enabled. Matching
	// is a case-sensitive substring test
	SpamKeyword = "spam"

	// SpamNotice is sent to the author of a message deleted for spam
	SpamNotice = "Your message was deleted for spam."
)

// Kind identifies the type of an Effect
type Kind int

const (
	// Reply is an answer posted in response to the message
	Reply Kind = iota
	// DeleteMessage is the deletion of the message
	DeleteMessage
	// NotifyAuthor is a direct message sent to the author of the message
	NotifyAuthor
	// CreditDelta is a change of the author's credits
	CreditDelta
)

var kindNames = map[Kind]string{
	Reply:         "reply",
	DeleteMessage: "delete",
	NotifyAuthor:  "notify",
	CreditDelta:   "credit",
}

// String returns the name of the kind
func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}

	return fmt.Sprintf("kind(%d)", int(k))
}

// Effect is a side-effect instruction produced by Evaluate
type Effect struct {
	Kind Kind

	// Text of a Reply or NotifyAuthor
	Text string

	// Delta of a CreditDelta
	Delta int64
}

// String returns a friendly description of an Effect
func (e Effect) String() string {
	switch e.Kind {
	case Reply, NotifyAuthor:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Text)
	case CreditDelta:
		return fmt.Sprintf("%s(%+d)", e.Kind, e.Delta)
	default:
		return e.Kind.String()
	}
}

// ReplyWith returns a Reply effect
func ReplyWith(text string) Effect {
	return Effect{Kind: Reply, Text: text}
}

// Delete returns a DeleteMessage effect
func Delete() Effect {
	return Effect{Kind: DeleteMessage}
}

// Notify returns a NotifyAuthor effect
func Notify(text string) Effect {
	return Effect{Kind: NotifyAuthor, Text: text}
}

// Credit returns a CreditDelta effect
func Credit(delta int64) Effect {
	return Effect{Kind: CreditDelta, Delta: delta}
}

// Event holds the data of an inbound chat message relevant to policy evaluation and to the
// application of its effects
type Event struct {
	AuthorID    string
	AuthorIsBot bool
	CommunityID string
	ChannelID   string

	// MessageID is the slack timestamp of the message, unique within its channel
	MessageID string
	Text      string
}

// String returns a friendly description of an Event
func (e Event) String() string {
	return fmt.Sprintf("%s/%s/%s by %s", e.CommunityID, e.ChannelID, e.MessageID, e.AuthorID)
}

// Evaluate returns the effects of a message given its community's settings. The rules apply in
// this order and independently of each other:
//  1. messages from bots never produce anything
//  2. an auto-reply is sent if enabled and its text isn't empty
//  3. a message containing SpamKeyword is deleted and its author notified if moderation is enabled
//  4. the author earns one credit, whatever happened to the message
func Evaluate(e Event, settings community.Settings) (effects []Effect) {
	effects = make([]Effect, 0, 4)

	if e.AuthorIsBot {
		return effects
	}

	if settings.AutoReplies() {
		effects = append(effects, ReplyWith(settings.AutoReplyText))
	}

	if settings.ModerationEnabled && strings.Contains(e.Text, SpamKeyword) {
		effects = append(effects, Delete(), Notify(SpamNotice))
	}

	return append(effects, Credit(1))
}
