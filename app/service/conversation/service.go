package conversation

import (
	"clutha/app/config"
	"clutha/app/service/backend"
	"clutha/app/service/channel"
	"clutha/app/service/queue"
	"clutha/app/service/segment"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/do"
)

const (
	maxThreadTitleLength = 100
	typingInterval       = 8 * time.Second
)

type Service struct {
	cfg       *config.Config
	registry  *channel.Registry
	backend   backend.Backend
	transport Transport
}

func New(di *do.Injector) (*Service, error) {
	return NewService(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*channel.Registry](di),
		do.MustInvoke[backend.Backend](di),
		do.MustInvoke[Transport](di),
	), nil
}

func NewService(cfg *config.Config, registry *channel.Registry, b backend.Backend, transport Transport) *Service {
	return &Service{
		cfg:       cfg,
		registry:  registry,
		backend:   b,
		transport: transport,
	}
}

// HandleMessage records an inbound message and, when the conversation's mode
// asks for it, generates and delivers a reply. The conversation stays locked
// until the reply is recorded, so replies never interleave.
func (s *Service) HandleMessage(ctx context.Context, msg queue.Message) error {
	var (
		forked   *channel.State
		reply    string
		segments []string
	)

	entry := s.registry.Get(msg.ConversationID, msg.Kind)

	err := entry.Do(func(state *channel.State) error {
		if !state.ShouldProcess(msg.FromSelf, msg.Mentioned) {
			return nil
		}

		state.ProcessUserText(msg.Text)

		if !state.ShouldRespond(msg.Mentioned) {
			return nil
		}

		text, err := s.generate(ctx, msg.ConversationID, state)
		if err != nil {
			s.notifyFailure(ctx, msg.ConversationID, err)
			return fmt.Errorf("failed to generate reply: %w", err)
		}

		parts := segment.PrepareResponse(text, s.cfg.Discord.SegmentLimit())

		if s.shouldFork(state, msg, parts) {
			forked = state.Fork()
			reply = text
			segments = parts
			return nil
		}

		state.ProcessModelText(text)

		return s.deliver(ctx, msg.ConversationID, text, parts)
	})
	if err != nil || forked == nil {
		return err
	}

	return s.replyInThread(ctx, msg, forked, reply, segments)
}

func (s *Service) generate(ctx context.Context, conversationID string, state *channel.State) (string, error) {
	stopTyping := s.startTyping(ctx, conversationID)
	defer stopTyping()

	start := time.Now()

	text, err := s.backend.Generate(ctx, state.AssemblePrompt())
	if err != nil {
		return "", fmt.Errorf("backend.Generate: %w", err)
	}

	slog.Debug("Generated reply",
		"conversation", conversationID,
		"length", len(text),
		"duration", time.Since(start))

	return text, nil
}

func (s *Service) shouldFork(state *channel.State, msg queue.Message, segments []string) bool {
	return segment.RenderedLen(segments) > s.cfg.Thread.Threshold &&
		state.Kind != channel.KindThread &&
		msg.MessageID != ""
}

// replyInThread moves a long reply into a new thread. The thread inherits a
// copy of the original conversation, which itself does not record the reply.
func (s *Service) replyInThread(
	ctx context.Context,
	msg queue.Message,
	forked *channel.State,
	reply string,
	segments []string,
) error {
	threadID, err := s.transport.StartThread(ctx, msg.ConversationID, msg.MessageID, threadTitle(reply))
	if err != nil {
		slog.Warn("Failed to start thread, replying in place",
			"conversation", msg.ConversationID,
			"error", err)

		return s.registry.Get(msg.ConversationID, msg.Kind).Do(func(state *channel.State) error {
			state.ProcessModelText(reply)
			return s.deliver(ctx, msg.ConversationID, reply, segments)
		})
	}

	return s.registry.Get(threadID, channel.KindThread).Do(func(state *channel.State) error {
		state.Adopt(forked)
		state.ProcessModelText(reply)

		return s.deliver(ctx, threadID, reply, segments)
	})
}

func (s *Service) deliver(ctx context.Context, conversationID, text string, segments []string) error {
	if err := s.transport.Send(ctx, conversationID, segments); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}

	slog.Info("Replied to message",
		"conversation", conversationID,
		"segments", len(segments),
		"text", text,
		"telegram", true)

	return nil
}

func (s *Service) notifyFailure(ctx context.Context, conversationID string, cause error) {
	reason := "unknown error"

	var backendErr *backend.Error
	if errors.As(cause, &backendErr) {
		reason = backendErr.Kind.String()
	}

	notice := fmt.Sprintf("*Could not generate a reply: %s*", reason)
	if err := s.transport.Send(ctx, conversationID, []string{notice}); err != nil {
		slog.Warn("Failed to send error notice",
			"conversation", conversationID,
			"error", err)
	}
}

// startTyping keeps the typing indicator alive until the returned func is
// called.
func (s *Service) startTyping(ctx context.Context, channelID string) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(typingInterval)
		defer ticker.Stop()

		for {
			if err := s.transport.Typing(ctx, channelID); err != nil && ctx.Err() == nil {
				slog.Debug("Failed to send typing indicator",
					"conversation", channelID,
					"error", err)
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func threadTitle(text string) string {
	title := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(text)

	runes := []rune(title)
	if len(runes) > maxThreadTitleLength {
		runes = runes[:maxThreadTitleLength]
	}

	return string(runes)
}
