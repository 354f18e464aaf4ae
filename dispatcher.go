package steward

import (
	"context"
	"fmt"
	"github.com/alexandre-normand/steward/community"
	"github.com/alexandre-normand/steward/policy"
	"github.com/pkg/errors"
)

// ErrEffectApplicationFailed is matched (via errors.Is) by every EffectError
var ErrEffectApplicationFailed = errors.New("effect application failed")

// ConfigStore is what the dispatcher needs from the configuration store. *community.Store
// implements it
type ConfigStore interface {
	GetSettings(communityID string) (settings community.Settings, err error)
	IncrementCredits(memberID string, delta int64) (total int64, err error)
}

// EffectError describes an effect that couldn't be applied for a message
type EffectError struct {
	Effect    policy.Effect
	MessageID SlackMessageID
	Err       error
}

// Error returns the description of the failed effect
func (e *EffectError) Error() string {
	return fmt.Sprintf("%s: %s for message [%s]: %v", ErrEffectApplicationFailed, e.Effect, e.MessageID, e.Err)
}

// Unwrap returns the cause of the failure
func (e *EffectError) Unwrap() error {
	return e.Err
}

// Is makes an EffectError match ErrEffectApplicationFailed
func (e *EffectError) Is(target error) bool {
	return target == ErrEffectApplicationFailed
}

// dispatcher runs the policy for one message and applies the resulting effects
type dispatcher struct {
	store ConfigStore
	chat  ChatClient
	log   *sLogger
	*instrumenter
}

// process evaluates the message against its community settings and applies every effect in
// order. A failed effect doesn't prevent the following ones from being applied. The returned
// errors are all *EffectError
func (d *dispatcher) process(m inboundMessage) (errs []error) {
	settings, err := d.store.GetSettings(m.event.CommunityID)
	if err != nil {
		d.log.Printf("Unable to load settings of community [%s], processing message [%s] with defaults: %v\n", m.event.CommunityID, m.id, err)
		d.settingsDegraded.Add(context.Background(), 1, d.attrs)
		settings = community.DefaultSettings()
	}

	effects := policy.Evaluate(m.event, settings)
	d.log.Debugf("Message [%s] from [%s] triggered effects %v\n", m.id, m.event.AuthorID, effects)

	for _, e := range effects {
		if err := d.apply(m, e); err != nil {
			d.log.Printf("Error applying effect: %v\n", err)
			d.recordEffect(e.Kind.String(), false)
			errs = append(errs, err)
		} else {
			d.recordEffect(e.Kind.String(), true)
		}
	}

	d.eventsProcessed.Add(context.Background(), 1, d.attrs)
	return errs
}

// apply applies a single effect. No store lock is held while calling the chat client
func (d *dispatcher) apply(m inboundMessage, e policy.Effect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &EffectError{Effect: e, MessageID: m.id, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	switch e.Kind {
	case policy.Reply:
		err = d.chat.Reply(m.event.ChannelID, m.threadTimestamp, m.event.AuthorID, e.Text)
	case policy.DeleteMessage:
		err = d.chat.DeleteMessage(m.event.ChannelID, m.event.MessageID)
	case policy.NotifyAuthor:
		err = d.chat.SendDirect(m.event.AuthorID, e.Text)
	case policy.CreditDelta:
		var total int64
		total, err = d.store.IncrementCredits(m.event.AuthorID, e.Delta)
		if err == nil {
			d.log.Debugf("Member [%s] now has [%d] credits\n", m.event.AuthorID, total)
		}
	default:
		err = fmt.Errorf("unknown effect kind [%s]", e.Kind)
	}

	if err != nil {
		return &EffectError{Effect: e, MessageID: m.id, Err: err}
	}

	return nil
}
