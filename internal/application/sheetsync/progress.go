package sheetsyncapp

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// topicKey scopes a progress topic to one (tenant, source) pair
type topicKey struct {
	tenantID uuid.UUID
	sourceID uuid.UUID
}

// ProgressBroker is the keyed publish/subscribe channel for run progress.
// Topics live for the duration of one run: the completion event tears the
// topic down and closes every subscriber channel. Publish never blocks;
// a slow subscriber loses events rather than stalling the run.
type ProgressBroker struct {
	mu         sync.Mutex
	topics     map[topicKey]map[int]chan ProgressEvent
	nextSubID  int
	bufferSize int
	logger     *zap.Logger
}

// NewProgressBroker creates a broker with the given per-subscriber buffer
func NewProgressBroker(bufferSize int, logger *zap.Logger) *ProgressBroker {
	if bufferSize <= 0 {
		bufferSize = 32
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProgressBroker{
		topics:     make(map[topicKey]map[int]chan ProgressEvent),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// Subscribe attaches to the topic for (tenant, source). The returned cancel
// function detaches and closes the channel; it is safe to call after the
// topic was already torn down by a completion event.
func (b *ProgressBroker) Subscribe(tenantID, sourceID uuid.UUID) (<-chan ProgressEvent, func()) {
	key := topicKey{tenantID: tenantID, sourceID: sourceID}
	ch := make(chan ProgressEvent, b.bufferSize)

	b.mu.Lock()
	subs, ok := b.topics[key]
	if !ok {
		subs = make(map[int]chan ProgressEvent)
		b.topics[key] = subs
	}
	id := b.nextSubID
	b.nextSubID++
	subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs, ok := b.topics[key]
		if !ok {
			return
		}
		if c, present := subs[id]; present {
			delete(subs, id)
			close(c)
		}
		if len(subs) == 0 {
			delete(b.topics, key)
		}
	}
	return ch, cancel
}

// Publish broadcasts an event to the subscribers of its (tenant, source)
// topic. Fire-and-forget: a full subscriber buffer drops the event. When
// the event carries the completion marker the topic is torn down after
// delivery.
func (b *ProgressBroker) Publish(evt ProgressEvent) {
	key := topicKey{tenantID: evt.TenantID, sourceID: evt.SourceID}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.topics[key]
	if !ok {
		return
	}
	for id, ch := range subs {
		select {
		case ch <- evt:
		default:
			b.logger.Debug("progress subscriber buffer full, dropping event",
				zap.String("source_id", evt.SourceID.String()),
				zap.Int("subscriber", id))
		}
	}

	if evt.Completed {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.topics, key)
	}
}

// SubscriberCount returns the live subscriber count for a topic
func (b *ProgressBroker) SubscriberCount(tenantID, sourceID uuid.UUID) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.topics[topicKey{tenantID: tenantID, sourceID: sourceID}])
}
