package api

import (
	"clutha/app/config"
	"clutha/app/service/channel"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

const shutdownTimeout = 5 * time.Second

var _ do.Shutdownable = (*Service)(nil)

// Service serves the read-only status API.
type Service struct {
	listen   string
	registry *channel.Registry
	app      *fiber.App
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.HTTP.Listen, do.MustInvoke[*channel.Registry](di)), nil
}

func NewService(listen string, registry *channel.Registry) *Service {
	s := &Service{
		listen:   listen,
		registry: registry,
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
	}

	s.app.Get("/healthz", s.healthz)
	s.app.Get("/conversations", s.conversations)

	return s
}

func (s *Service) healthz(c *fiber.Ctx) error {
	return c.SendString("ok")
}

func (s *Service) conversations(c *fiber.Ctx) error {
	return c.JSON(s.registry.Snapshot())
}

// Run serves until ctx is done. It returns immediately when no listen
// address is configured.
func (s *Service) Run(ctx context.Context) error {
	if s.listen == "" {
		slog.Info("Status API disabled")
		return nil
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.listen)
	}()

	slog.Info("Status API started", "listen", s.listen)

	select {
	case err := <-errCh:
		return fmt.Errorf("status API stopped: %w", err)
	case <-ctx.Done():
		if err := s.Shutdown(); err != nil {
			return err
		}
		return <-errCh
	}
}

func (s *Service) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(ctx); err != nil {
		return fmt.Errorf("failed to shut down status API: %w", err)
	}

	return nil
}
