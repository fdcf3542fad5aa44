package discord

import (
	"clutha/app/config"
	"clutha/app/service/channel"
	"clutha/app/service/conversation"
	"clutha/app/service/queue"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/do"
)

var (
	_ do.Shutdownable        = (*Client)(nil)
	_ conversation.Transport = (*Client)(nil)
)

// Client connects the bot to Discord: inbound messages go to the queue and
// replies come back through the Transport methods.
type Client struct {
	cfg      *config.Config
	session  *discordgo.Session
	queueSvc *queue.Service

	closeOnce sync.Once
}

func NewClient(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	client := &Client{
		cfg:      cfg,
		session:  session,
		queueSvc: do.MustInvoke[*queue.Service](di),
	}

	session.AddHandler(client.onReady)
	session.AddHandler(client.onMessageCreate)

	return client, nil
}

// Run keeps the gateway connection open until ctx is done.
func (c *Client) Run(ctx context.Context) error {
	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to connect to discord: %w", err)
	}

	<-ctx.Done()

	return c.Shutdown()
}

func (c *Client) Shutdown() error {
	var err error

	c.closeOnce.Do(func() {
		err = c.session.Close()
	})

	return err
}

func (c *Client) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	slog.Info("Connected to Discord",
		"user", r.User.Username,
		"guilds", len(r.Guilds))
}

func (c *Client) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || s.State.User == nil {
		return
	}

	kind := c.resolveKind(s, m.ChannelID)
	msg := toMessage(s.State.User.ID, m.Message, kind)

	if !c.queueSvc.Add(msg) {
		slog.Warn("Dropped inbound message",
			"conversation", msg.ConversationID,
			"author", msg.AuthorName)
	}
}

func (c *Client) resolveKind(s *discordgo.Session, channelID string) channel.Kind {
	ch, err := s.State.Channel(channelID)
	if err != nil {
		ch, err = s.Channel(channelID)
		if err != nil {
			slog.Warn("Failed to resolve channel",
				"channel", channelID,
				"error", err)
			return channel.KindOther
		}
	}

	return kindOf(ch)
}

func kindOf(ch *discordgo.Channel) channel.Kind {
	switch {
	case ch.IsThread():
		return channel.KindThread
	case ch.Type == discordgo.ChannelTypeDM:
		return channel.KindDirect
	case ch.Type == discordgo.ChannelTypeGuildText,
		ch.Type == discordgo.ChannelTypeGroupDM,
		ch.Type == discordgo.ChannelTypeGuildNews:
		return channel.KindChannel
	default:
		return channel.KindOther
	}
}

// toMessage maps a Discord message onto the queue. Mentions of the bot are
// removed from the text.
func toMessage(botID string, m *discordgo.Message, kind channel.Kind) queue.Message {
	mentioned := false
	for _, user := range m.Mentions {
		if user.ID == botID {
			mentioned = true
			break
		}
	}

	text := m.Content
	if mentioned {
		text = strings.NewReplacer("<@"+botID+">", "", "<@!"+botID+">", "").Replace(text)
	}

	return queue.Message{
		ConversationID: m.ChannelID,
		Kind:           kind,
		MessageID:      m.ID,
		AuthorID:       m.Author.ID,
		AuthorName:     m.Author.Username,
		Text:           strings.TrimSpace(text),
		Mentioned:      mentioned,
		FromSelf:       m.Author.ID == botID,
	}
}

func (c *Client) Send(ctx context.Context, channelID string, segments []string) error {
	for i, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			continue
		}

		if _, err := c.session.ChannelMessageSend(channelID, segment, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("failed to send segment %d/%d: %w", i+1, len(segments), err)
		}
	}

	return nil
}

func (c *Client) StartThread(ctx context.Context, channelID, messageID, title string) (string, error) {
	thread, err := c.session.MessageThreadStart(channelID, messageID, title, c.cfg.Thread.ArchiveMinutes,
		discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to start thread: %w", err)
	}

	slog.Info("Started thread",
		"channel", channelID,
		"thread", thread.ID,
		"title", title,
		"telegram", true)

	return thread.ID, nil
}

func (c *Client) Typing(ctx context.Context, channelID string) error {
	if err := c.session.ChannelTyping(channelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send typing: %w", err)
	}

	return nil
}
