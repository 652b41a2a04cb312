package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/shiftswap/internal/server"
	"github.com/desertthunder/shiftswap/internal/shared"
)

// Sandbox runs the in-memory backend until interrupted.
func (r *Runner) Sandbox(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		cfg.Port = int(port)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: port %d", shared.ErrInvalidArgument, cfg.Port)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sb := server.New(server.Options{
		Secret:   cfg.JWTSecret,
		TokenTTL: cfg.TokenTTL.Duration,
		Logger:   r.logger,
	})
	defer sb.Close()

	r.writePlain("Sandbox listening on http://%s (realtime at ws://%s/ws)\n", cfg.Addr(), cfg.Addr())
	return sb.ListenAndServe(ctx, cfg.Addr())
}
