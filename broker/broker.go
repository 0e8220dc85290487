package broker

import (
	"context"
	"errors"
)

var (
	// ErrQueueNotFound is returned by passive-declare backends when the
	// queue has not been created yet. The declare-based Channel variant
	// absorbs it; every other error passes through.
	ErrQueueNotFound = errors.New("broker: queue not found")

	// ErrUnsupportedBroker is returned by Detect when the connection
	// supports neither capability.
	ErrUnsupportedBroker = errors.New("broker: connection supports neither size query nor passive declare")
)

// Channel reports the current depth of named queues on a broker. Reads only;
// implementations never mutate broker state.
type Channel interface {
	// QueueDepth returns the number of messages currently enqueued on the
	// named queue. A queue that does not exist reads as zero.
	QueueDepth(ctx context.Context, queue string) (int64, error)
}

// QueueSizer is the capability of brokers that answer a direct size query.
// A missing queue reads as zero per broker semantics.
type QueueSizer interface {
	QueueSize(ctx context.Context, queue string) (int64, error)
}

// QueueInfo is the queue metadata returned by a passive declare.
type QueueInfo struct {
	Name      string
	Messages  int64
	Consumers int
}

// PassiveDeclarer is the capability of brokers that expose queue metadata
// through a passive declare: a query that fails, rather than creates, when
// the queue does not exist. Implementations report that condition as an
// error wrapping ErrQueueNotFound.
type PassiveDeclarer interface {
	DeclarePassive(ctx context.Context, queue string) (QueueInfo, error)
}

// Detect probes the connection's capabilities and returns the matching
// Channel variant. The direct size query is preferred when both capabilities
// are present.
func Detect(conn any) (Channel, error) {
	switch c := conn.(type) {
	case QueueSizer:
		return directChannel{sizer: c}, nil
	case PassiveDeclarer:
		return declareChannel{declarer: c}, nil
	}
	return nil, ErrUnsupportedBroker
}

type directChannel struct {
	sizer QueueSizer
}

func (c directChannel) QueueDepth(ctx context.Context, queue string) (int64, error) {
	return c.sizer.QueueSize(ctx, queue)
}

type declareChannel struct {
	declarer PassiveDeclarer
}

func (c declareChannel) QueueDepth(ctx context.Context, queue string) (int64, error) {
	info, err := c.declarer.DeclarePassive(ctx, queue)
	if err != nil {
		if errors.Is(err, ErrQueueNotFound) {
			// The queue has not been created yet.
			return 0, nil
		}
		return 0, err
	}
	return info.Messages, nil
}
