package command

import (
	"clutha/app/config"
	"clutha/app/service/channel"
	"clutha/app/service/conversation"
	"clutha/app/service/prompt"
	"clutha/app/service/queue"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

// Version is reported by the version command. Overridden at build time.
var Version = "0.1.0"

type stateEntry interface {
	Do(fn func(state *channel.State) error) error
}

type handler func(ctx context.Context, msg queue.Message, args []string) (string, error)

type command struct {
	name        string
	usage       string
	description string
	run         handler
}

// Service runs operator commands. Commands act on conversation state but are
// never recorded in the dialogue.
type Service struct {
	prefix    string
	registry  *channel.Registry
	prompts   *prompt.Service
	transport conversation.Transport

	entry    func(msg queue.Message) stateEntry
	commands []command
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(
		cfg.Discord.CommandPrefix,
		do.MustInvoke[*channel.Registry](di),
		do.MustInvoke[*prompt.Service](di),
		do.MustInvoke[conversation.Transport](di),
	), nil
}

func NewService(
	prefix string,
	registry *channel.Registry,
	prompts *prompt.Service,
	transport conversation.Transport,
) *Service {
	s := &Service{
		prefix:    prefix,
		registry:  registry,
		prompts:   prompts,
		transport: transport,
	}

	s.entry = func(msg queue.Message) stateEntry {
		return s.registry.Get(msg.ConversationID, msg.Kind)
	}

	s.commands = []command{
		{"mode", "mode [off|passive|lurking|active]", "show or set when I read and answer", s.mode},
		{"prompt", "prompt [name]", "list prompts or switch to one", s.prompt},
		{"reset", "reset", "forget the conversation", s.reset},
		{"version", "version", "show my version", s.version},
		{"ping", "ping", "check that I am alive", s.ping},
		{"help", "help", "list commands", s.help},
	}

	return s
}

func (s *Service) IsCommand(text string) bool {
	return strings.HasPrefix(strings.TrimSpace(text), s.prefix)
}

// Handle runs the command in msg and sends its answer to the conversation.
func (s *Service) Handle(ctx context.Context, msg queue.Message) error {
	name, args := s.parse(msg.Text)

	idx := pie.FindFirstUsing(s.commands, func(c command) bool {
		return c.name == name
	})

	var (
		reply string
		err   error
	)
	if idx < 0 {
		reply = fmt.Sprintf("Unknown command `%s`. Try `%shelp`.", name, s.prefix)
	} else {
		reply, err = s.commands[idx].run(ctx, msg, args)
	}

	if reply != "" {
		if sendErr := s.transport.Send(ctx, msg.ConversationID, []string{reply}); sendErr != nil {
			return fmt.Errorf("failed to send command reply: %w", sendErr)
		}
	}

	if err != nil {
		return fmt.Errorf("command %s: %w", name, err)
	}

	slog.Info("Executed command",
		"conversation", msg.ConversationID,
		"author", msg.AuthorName,
		"command", name,
		"args", args)

	return nil
}

func (s *Service) parse(text string) (string, []string) {
	fields := strings.Fields(strings.TrimPrefix(strings.TrimSpace(text), s.prefix))
	if len(fields) == 0 {
		return "", nil
	}

	return strings.ToLower(fields[0]), fields[1:]
}

func (s *Service) withState(msg queue.Message, fn func(state *channel.State) error) error {
	if err := s.entry(msg).Do(fn); err != nil {
		return fmt.Errorf("conversation %s: %w", msg.ConversationID, err)
	}

	return nil
}

func (s *Service) mode(_ context.Context, msg queue.Message, args []string) (string, error) {
	if len(args) == 0 {
		var current channel.Mode
		err := s.withState(msg, func(state *channel.State) error {
			current = state.Mode
			return nil
		})
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("Mode is **%s**", current), nil
	}

	mode, err := channel.ParseMode(args[0])
	if err != nil {
		return fmt.Sprintf("Unknown mode `%s`. Modes: off, passive, lurking, active", args[0]), nil
	}

	err = s.withState(msg, func(state *channel.State) error {
		state.Mode = mode
		return nil
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Mode set to **%s**", mode), nil
}

func (s *Service) prompt(_ context.Context, msg queue.Message, args []string) (string, error) {
	if len(args) == 0 {
		names, err := s.prompts.List()
		if err != nil {
			return "Could not list prompts", err
		}

		var current string
		err = s.withState(msg, func(state *channel.State) error {
			current = state.Prompt.Name
			return nil
		})
		if err != nil {
			return "", err
		}

		var sb strings.Builder
		if current != "" {
			fmt.Fprintf(&sb, "Current prompt: **%s**\n", current)
		}
		if len(names) == 0 {
			sb.WriteString("No prompts available")
		} else {
			fmt.Fprintf(&sb, "Available prompts: %s", strings.Join(names, ", "))
		}

		return sb.String(), nil
	}

	p, err := s.prompts.Load(args[0])
	if err != nil {
		return fmt.Sprintf("Could not load prompt `%s`", args[0]), err
	}

	err = s.withState(msg, func(state *channel.State) error {
		state.ApplyPrompt(p)
		return nil
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Prompt set to **%s**", p.Name), nil
}

func (s *Service) reset(_ context.Context, msg queue.Message, _ []string) (string, error) {
	err := s.withState(msg, func(state *channel.State) error {
		state.ResetDialogue()
		return nil
	})
	if err != nil {
		return "", err
	}

	return "Dialogue reset", nil
}

func (s *Service) version(context.Context, queue.Message, []string) (string, error) {
	return fmt.Sprintf("Clutha version %s", Version), nil
}

func (s *Service) ping(_ context.Context, msg queue.Message, _ []string) (string, error) {
	return fmt.Sprintf("User **%s** used the 'ping' command in the <#%s> channel",
		escapeMarkdown(msg.AuthorName), msg.ConversationID), nil
}

func (s *Service) help(context.Context, queue.Message, []string) (string, error) {
	lines := pie.Map(s.commands, func(c command) string {
		return fmt.Sprintf("`%s%s` %s", s.prefix, c.usage, c.description)
	})

	return strings.Join(lines, "\n"), nil
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"~", `\~`,
	"|", `\|`,
)

func escapeMarkdown(text string) string {
	return markdownEscaper.Replace(text)
}
