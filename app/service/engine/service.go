package engine

import (
	"clutha/app/config"
	"clutha/app/service/command"
	"clutha/app/service/conversation"
	"clutha/app/service/queue"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

type MessageHandler interface {
	HandleMessage(ctx context.Context, msg queue.Message) error
}

type CommandHandler interface {
	IsCommand(text string) bool
	Handle(ctx context.Context, msg queue.Message) error
}

// lane holds the messages of one conversation waiting for its runner.
type lane struct {
	pending []queue.Message
}

// Service drains the queue with one reader per shard. Readers never run
// handlers themselves: each conversation gets its own runner, started on
// demand, so a slow reply only delays its own conversation.
type Service struct {
	queueSvc        *queue.Service
	conversationSvc MessageHandler
	commandSvc      CommandHandler
	maxPending      int

	mu      sync.Mutex
	lanes   map[string]*lane
	runners sync.WaitGroup
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		do.MustInvoke[*queue.Service](di),
		do.MustInvoke[*conversation.Service](di),
		do.MustInvoke[*command.Service](di),
		cfg.Engine.QueueSize,
	), nil
}

func NewService(
	queueSvc *queue.Service,
	conversationSvc MessageHandler,
	commandSvc CommandHandler,
	maxPending int,
) *Service {
	return &Service{
		queueSvc:        queueSvc,
		conversationSvc: conversationSvc,
		commandSvc:      commandSvc,
		maxPending:      maxPending,
		lanes:           make(map[string]*lane),
	}
}

// Run blocks until ctx is done or the queue is shut down, then waits for
// the conversation runners to finish.
func (s *Service) Run(ctx context.Context) error {
	group, ctx := errgroup.WithContext(ctx)

	for shard := range s.queueSvc.Shards() {
		group.Go(func() error {
			s.readShard(ctx, s.queueSvc.Channel(shard))
			return nil
		})
	}

	err := group.Wait()
	s.runners.Wait()

	return err
}

func (s *Service) readShard(ctx context.Context, messages <-chan queue.Message) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			s.dispatch(ctx, msg)
		}
	}
}

// dispatch appends msg to its conversation's lane and starts a runner when
// none is active.
func (s *Service) dispatch(ctx context.Context, msg queue.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.lanes[msg.ConversationID]
	if !ok {
		l = &lane{}
		s.lanes[msg.ConversationID] = l
	}

	if ok && len(l.pending) >= s.maxPending {
		slog.Warn("conversation backlog is full",
			"conversation", msg.ConversationID,
			"author", msg.AuthorName)
		return
	}

	l.pending = append(l.pending, msg)

	if !ok {
		s.runners.Add(1)
		go s.runLane(ctx, msg.ConversationID, l)
	}
}

// runLane processes one conversation in arrival order and removes the lane
// once it runs dry.
func (s *Service) runLane(ctx context.Context, conversationID string, l *lane) {
	defer s.runners.Done()

	for {
		s.mu.Lock()
		if len(l.pending) == 0 || ctx.Err() != nil {
			delete(s.lanes, conversationID)
			s.mu.Unlock()
			return
		}

		msg := l.pending[0]
		l.pending = l.pending[1:]
		s.mu.Unlock()

		s.process(ctx, msg)
	}
}

func (s *Service) process(ctx context.Context, msg queue.Message) {
	start := time.Now()

	var err error
	if !msg.FromSelf && s.commandSvc.IsCommand(msg.Text) {
		err = s.commandSvc.Handle(ctx, msg)
	} else {
		err = s.conversationSvc.HandleMessage(ctx, msg)
	}

	if err != nil {
		slog.Warn("Failed to process message",
			"conversation", msg.ConversationID,
			"author", msg.AuthorName,
			"error", err)
		return
	}

	slog.Debug("Processed message",
		"conversation", msg.ConversationID,
		"author", msg.AuthorName,
		"duration", time.Since(start))
}
