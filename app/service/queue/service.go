package queue

import (
	"clutha/app/config"
	"clutha/app/service/channel"
	"log/slog"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

// Service fans inbound messages out to a fixed set of shards. All messages
// of one conversation land on the same shard, in arrival order.
type Service struct {
	mu     sync.RWMutex
	closed bool
	shards []chan Message
}

// Message is one inbound chat message, already mapped from the platform.
type Message struct {
	ConversationID string
	Kind           channel.Kind
	MessageID      string
	AuthorID       string
	AuthorName     string
	Text           string
	// Mentioned is true when the message addresses the bot directly.
	Mentioned bool
	// FromSelf is true for messages the bot wrote itself.
	FromSelf bool
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.Engine.Workers, cfg.Engine.QueueSize), nil
}

func NewService(shards, size int) *Service {
	s := &Service{
		shards: make([]chan Message, shards),
	}
	for i := range s.shards {
		s.shards[i] = make(chan Message, size)
	}

	return s
}

// Shard returns the shard index of a conversation.
func (s *Service) Shard(conversationID string) int {
	return int(xxhash.Sum64String(conversationID) % uint64(len(s.shards)))
}

// Add enqueues msg without blocking. It reports false when the shard is
// full or the service is shut down.
func (s *Service) Add(msg Message) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.shards[s.Shard(msg.ConversationID)] <- msg:
		return true
	default:
		slog.Warn("message queue is full",
			"conversation", msg.ConversationID,
			"author", msg.AuthorName)
		return false
	}
}

func (s *Service) Shards() int {
	return len(s.shards)
}

func (s *Service) Channel(shard int) <-chan Message {
	return s.shards[shard]
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	for _, shard := range s.shards {
		close(shard)
	}

	return nil
}
