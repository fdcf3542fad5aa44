package main

import (
	"clutha/app/client/discord"
	"clutha/app/config"
	"clutha/app/service/api"
	"clutha/app/service/backend"
	"clutha/app/service/channel"
	"clutha/app/service/command"
	"clutha/app/service/conversation"
	"clutha/app/service/dialogue"
	"clutha/app/service/engine"
	"clutha/app/service/prompt"
	"clutha/app/service/queue"
	"clutha/app/util/mylog"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:          "clutha",
		Short:        "Discord chat bot backed by an LLM",
		Version:      command.Version,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "path to the config file")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "prompt <file>",
		Short: "Parse a prompt file and print its turns",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return printPrompt(cmd, args[0])
		},
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runBot() error {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		return fmt.Errorf("logging init failed: %w", err)
	}

	do.Provide(di, queue.New)
	do.Provide(di, discord.NewClient)
	do.Provide(di, func(di *do.Injector) (conversation.Transport, error) {
		client, err := do.Invoke[*discord.Client](di)
		return client, err
	})
	do.Provide(di, prompt.New)
	do.Provide(di, channel.New)
	do.Provide(di, backend.New)
	do.Provide(di, conversation.New)
	do.Provide(di, command.New)
	do.Provide(di, engine.New)
	do.Provide(di, api.New)

	group, ctx := errgroup.WithContext(appCtx)
	group.Go(func() error {
		return do.MustInvoke[*engine.Service](di).Run(ctx)
	})
	group.Go(func() error {
		return do.MustInvoke[*discord.Client](di).Run(ctx)
	})
	group.Go(func() error {
		return do.MustInvoke[*api.Service](di).Run(ctx)
	})

	slog.Info("Service started",
		"version", command.Version,
		"backend", cfg.Backend.Kind)

	err = group.Wait()

	log.Info("Shutting down...")

	return err
}

func printPrompt(cmd *cobra.Command, path string) error {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	p, err := prompt.LoadFile(name, path)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Prompt %s: preamble %d words, initial exchange %d words\n",
		p.Name, p.Preamble.TotalLen(), p.Initial.TotalLen())

	printTurns(out, "Preamble", p.Preamble.Turns())
	printTurns(out, "Initial", p.Initial.Turns())

	return nil
}

func printTurns(out io.Writer, title string, turns []dialogue.Turn) {
	fmt.Fprintf(out, "\n## %s (%d turns)\n", title, len(turns))

	for _, turn := range turns {
		fmt.Fprintf(out, "[%s] %s\n", turn.Role, turn.Text)
	}
}
