package steward

import (
	"context"
	"fmt"
	"github.com/alexandre-normand/steward/config"
	"github.com/alexandre-normand/steward/policy"
	"github.com/pkg/errors"
	"github.com/slack-go/slack"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
)

const (
	plainMessageSubType   = ""
	threadBroadcastType   = "thread_broadcast"
	botMessageSubType     = "bot_message"
	ignoredReasonAck      = "ack"
	ignoredReasonSubType  = "subtype"
	ignoredReasonSelf     = "self"
	ignoredReasonRepeated = "redelivery"
)

// ErrInvalidAuth is returned by Run when slack rejects the token
var ErrInvalidAuth = errors.New("invalid slack credentials")

// Steward is the chat side of the bot: it receives the messages of every community it's
// a member of and applies the effects the policy decides on
type Steward struct {
	name   string
	config *viper.Viper
	store  ConfigStore

	chat           ChatClient
	userInfoFinder UserInfoFinder
	processed      *processedMessages
	meter          metric.Meter
	ins            *instrumenter
	log            *sLogger
	closers        []io.Closer

	mu          sync.RWMutex
	selfID      string
	teamID      string
	communities map[string]string
}

// Option defines an option for a Steward
type Option func(*Steward)

// OptionLog sets a logger for steward
func OptionLog(logger *log.Logger) func(*Steward) {
	return func(s *Steward) {
		s.log.logger = logger
	}
}

// OptionChatClient sets the ChatClient used to apply chat effects instead of the slack client
// created on Run
func OptionChatClient(chat ChatClient) func(*Steward) {
	return func(s *Steward) {
		s.chat = chat
	}
}

// OptionUserInfoFinder sets the UserInfoFinder used to detect bot authors instead of the
// caching slack finder created on Run
func OptionUserInfoFinder(finder UserInfoFinder) func(*Steward) {
	return func(s *Steward) {
		s.userInfoFinder = finder
	}
}

// OptionMeter sets the open telemetry meter steward records its metrics with
func OptionMeter(meter metric.Meter) func(*Steward) {
	return func(s *Steward) {
		s.meter = meter
	}
}

// OptionCloser registers a closer to close along with steward
func OptionCloser(closer io.Closer) func(*Steward) {
	return func(s *Steward) {
		s.closers = append(s.closers, closer)
	}
}

// New creates a new steward named name applying the settings of store
func New(name string, v *viper.Viper, store ConfigStore, options ...Option) (s *Steward, err error) {
	if store == nil {
		return nil, fmt.Errorf("steward [%s] requires a configuration store", name)
	}

	s = new(Steward)
	s.name = name
	s.config = v
	s.store = store
	s.communities = make(map[string]string)
	s.log = NewSLogger(newDefaultLogger(name), v.GetBool(config.DebugKey))
	s.meter = noop.NewMeterProvider().Meter(name)

	for _, opt := range options {
		opt(s)
	}

	if s.ins, err = newInstrumenter(name, s.meter); err != nil {
		return nil, errors.Wrap(err, "creating instruments")
	}

	if s.processed, err = newProcessedMessages(v.GetInt(config.ProcessedMessageCacheSizeKey)); err != nil {
		return nil, err
	}

	return s, nil
}

// Close closes all registered closers
func (s *Steward) Close() (err error) {
	for _, c := range s.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}

	return err
}

// Communities returns the ids of the communities steward is currently connected to
func (s *Steward) Communities() (ids []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids = make([]string, 0, len(s.communities))
	for id := range s.communities {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// IsMember returns true if steward is connected to communityID
func (s *Steward) IsMember(communityID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.communities[communityID]
	return ok
}

// untilTerminated returns a copy of ctx that is done on SIGINT or SIGTERM
func untilTerminated(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
}

// Run connects to slack and processes incoming messages until ctx is done, the process gets
// a termination signal or slack rejects the credentials. Messages already accepted are
// processed before Run returns.
//
// Run stops on SIGINT and SIGTERM by itself so library users don't need their own signal
// handling. Callers that already cancel ctx on those signals (such as cmd/steward) get the
// same shutdown either way
func (s *Steward) Run(ctx context.Context) (err error) {
	ctx, stop := untilTerminated(ctx)
	defer stop()

	api := slack.New(
		s.config.GetString(config.TokenKey),
		slack.OptionDebug(s.config.GetBool(config.DebugKey)),
		slack.OptionLog(log.New(os.Stdout, "slack: ", log.Lshortfile|log.LstdFlags)),
	)

	if s.chat == nil {
		s.chat = NewSlackChatClient(api, s.config.GetBool(config.ThreadedRepliesKey), s.config.GetBool(config.BroadcastThreadedRepliesKey))
	}

	if s.userInfoFinder == nil {
		if s.userInfoFinder, err = NewCachingUserInfoFinder(s.config, api, s.log); err != nil {
			return err
		}
	}

	rtm := api.NewRTM()
	go rtm.ManageConnection()
	defer rtm.Disconnect()

	return s.consume(ctx, rtm.IncomingEvents)
}

// consume is the event loop. It owns the partition router and drains it before returning
func (s *Steward) consume(ctx context.Context, events <-chan slack.RTMEvent) (err error) {
	chat, err := newChatClientWithTelemetry(s.chat, s.name, s.meter)
	if err != nil {
		return err
	}

	var finder UserInfoFinder
	if s.userInfoFinder != nil {
		if finder, err = newUserInfoFinderWithTelemetry(s.userInfoFinder, s.name, s.meter); err != nil {
			return err
		}
	}

	router, err := newPartitionRouter(s.config.GetInt(config.MessageProcessingPartitionCount), s.config.GetInt(config.MessageProcessingBufferedMessageCount), s.log, s.ins)
	if err != nil {
		return err
	}

	d := &dispatcher{store: s.store, chat: chat, log: s.log, instrumenter: s.ins}
	router.start(func(m inboundMessage) {
		elapsed := measure(func() {
			d.process(m)
		})
		s.ins.eventProcessingLatencyMillis.Record(context.Background(), elapsed.Milliseconds(), s.ins.attrs)
	})
	defer func() {
		s.log.Printf("Draining queued messages\n")
		router.drain()
	}()

	for {
		select {
		case <-ctx.Done():
			s.log.Printf("Stopping: %v\n", ctx.Err())
			return nil

		case msg, ok := <-events:
			if !ok {
				return nil
			}

			switch e := msg.Data.(type) {
			case *slack.ConnectedEvent:
				s.log.Printf("Connected, connection counter: %d\n", e.ConnectionCount)
				s.recordIdentity(e.Info)

			case *slack.MessageEvent:
				if m, ok := s.accept(e, finder); ok {
					router.route(m)
				}

			case *slack.LatencyReport:
				s.log.Debugf("Current latency: %v\n", e.Value)
				s.ins.slackLatencyMillis.Record(context.Background(), e.Value.Milliseconds(), s.ins.attrs)

			case *slack.RTMError:
				s.log.Printf("Error: %s\n", e.Error())

			case *slack.InvalidAuthEvent:
				s.log.Printf("Invalid credentials\n")
				return ErrInvalidAuth

			default:
				// Ignoring other events
			}
		}
	}
}

// recordIdentity keeps our own user id and the community we're connected to
func (s *Steward) recordIdentity(info *slack.Info) {
	if info == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if info.User != nil {
		s.selfID = info.User.ID
	}

	if info.Team != nil {
		s.teamID = info.Team.ID
		s.communities[info.Team.ID] = info.Team.Name
	}

	s.log.Debugf("Caching self id [%s] connected to community [%s]\n", s.selfID, s.teamID)
}

func (s *Steward) identity() (selfID string, teamID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.selfID, s.teamID
}

// accept filters out the message events steward doesn't act on and converts the others into
// an inboundMessage
func (s *Steward) accept(e *slack.MessageEvent, finder UserInfoFinder) (m inboundMessage, ok bool) {
	s.ins.eventsSeen.Add(context.Background(), 1, s.ins.attrs)

	// reply_to is set by slack when a message sent by us has been acknowledged
	if e.ReplyTo > 0 {
		s.ins.recordIgnored(ignoredReasonAck)
		return m, false
	}

	if e.SubType != plainMessageSubType && e.SubType != threadBroadcastType && e.SubType != botMessageSubType {
		s.log.Debugf("Ignoring message with subtype [%s]\n", e.SubType)
		s.ins.recordIgnored(ignoredReasonSubType)
		return m, false
	}

	selfID, teamID := s.identity()
	if selfID != "" && e.User == selfID {
		s.log.Debugf("Ignoring message from user [%s] because that's \"us\"\n", e.User)
		s.ins.recordIgnored(ignoredReasonSelf)
		return m, false
	}

	id := SlackMessageID{channelID: e.Channel, timestamp: e.Timestamp}
	if s.processed.markProcessed(id) {
		s.log.Debugf("Ignoring redelivered message [%s]\n", id)
		s.ins.recordIgnored(ignoredReasonRepeated)
		return m, false
	}

	communityID := e.Team
	if communityID == "" {
		communityID = teamID
	}

	threadTimestamp := e.ThreadTimestamp
	if threadTimestamp == "" {
		threadTimestamp = e.Timestamp
	}

	authorIsBot := e.BotID != "" || e.SubType == botMessageSubType || isBot(finder, e.User, s.log)

	return inboundMessage{
		id:              id,
		threadTimestamp: threadTimestamp,
		event: policy.Event{
			AuthorID:    e.User,
			AuthorIsBot: authorIsBot,
			CommunityID: communityID,
			ChannelID:   e.Channel,
			MessageID:   e.Timestamp,
			Text:        e.Text,
		},
	}, true
}
