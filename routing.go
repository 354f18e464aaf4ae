package steward

import (
	"context"
	"fmt"
	"github.com/alexandre-normand/steward/policy"
	"hash/crc32"
	"math"
	"sync"
)

// SlackMessageID holds the elements that identify a message within a community
type SlackMessageID struct {
	channelID string
	timestamp string
}

// String returns the channel/timestamp representation of a message id
func (id SlackMessageID) String() string {
	return fmt.Sprintf("%s/%s", id.channelID, id.timestamp)
}

// inboundMessage is an accepted chat message on its way to a worker
type inboundMessage struct {
	id              SlackMessageID
	threadTimestamp string
	event           policy.Event
}

type partitionRouter struct {
	// Logger
	log *sLogger

	// messageQueues with partition keyed by the hash of the community id so that all
	// messages of a community are processed in order by the same worker while
	// different communities are processed in parallel
	messageQueues []chan inboundMessage

	// workers tracks the running partition workers so that closing the queues can wait
	// for everything already queued to be processed
	workers sync.WaitGroup
	closed  bool

	hashMask int

	*instrumenter
}

func newPartitionRouter(partitionCount int, queueBufferSize int, log *sLogger, instrumenter *instrumenter) (pr *partitionRouter, err error) {
	if !isPowerOfTwo(partitionCount) {
		return nil, fmt.Errorf("A partition router can only work with a partitionCount that is a power of two but was [%d]", partitionCount)
	}

	if queueBufferSize < 0 {
		return nil, fmt.Errorf("Invalid message queue buffer size [%d], must be >= 0", queueBufferSize)
	}

	pr = new(partitionRouter)
	pr.messageQueues = make([]chan inboundMessage, partitionCount)
	for i := range pr.messageQueues {
		pr.messageQueues[i] = make(chan inboundMessage, queueBufferSize)
	}
	pr.hashMask = hashMask(partitionCount)
	pr.log = log
	pr.instrumenter = instrumenter

	return pr, nil
}

// start launches one worker per partition, each calling process for every message of its queue
func (pr *partitionRouter) start(process func(m inboundMessage)) {
	for i, q := range pr.messageQueues {
		pr.workers.Add(1)

		go func(partition int, queue <-chan inboundMessage) {
			defer pr.workers.Done()

			for m := range queue {
				process(m)
			}

			pr.log.Debugf("Worker for partition [%d] done\n", partition)
		}(i, q)
	}
}

// route sends the message to the partition of its community. It blocks when that partition's
// queue is full
func (pr *partitionRouter) route(m inboundMessage) {
	if pr.closed {
		pr.log.Printf("Dropping message [%s] received after shutdown\n", m.id)
		return
	}

	partition := pr.partitionForCommunity(m.event.CommunityID)

	pr.log.Debugf("Dispatching message [%s] of community [%s] to partition [%d]\n", m.id, m.event.CommunityID, partition)
	d := measure(func() {
		pr.messageQueues[partition] <- m
	})

	pr.eventDispatchLatencyMillis.Record(context.Background(), d.Milliseconds(), pr.attrs)
}

// drain stops accepting new messages and waits for the workers to process everything
// already queued
func (pr *partitionRouter) drain() {
	if pr.closed {
		return
	}

	pr.closed = true
	for _, q := range pr.messageQueues {
		close(q)
	}

	pr.workers.Wait()
}

// partitionForCommunity returns the partition index for a given community ID
func (pr *partitionRouter) partitionForCommunity(communityID string) (partition int) {
	res := crc32.ChecksumIEEE([]byte(communityID))

	// Keep only the rightmost bits so we have a max equal to the partition count
	return int(res) & pr.hashMask
}

// isPowerOfTwo returns true if val is a power of two or false if not
func isPowerOfTwo(val int) bool {
	return (val > 0) && (val&(val-1)) == 0
}

// hashMask builds a mask for a partitionCount (which should be a power of two) to get a hash value
// that is in the range of the number of partitions we have
func hashMask(partitionCount int) int {
	maskSize := int(math.Log2(float64(partitionCount)))
	mask := 0
	for i := 0; i < maskSize; i++ {
		mask = mask<<1 | 1
	}

	return mask
}
