package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/dkeye/wstail/internal/adapters/console"
	"github.com/dkeye/wstail/internal/adapters/ws"
	"github.com/dkeye/wstail/internal/app"
	"github.com/dkeye/wstail/internal/config"
	"github.com/dkeye/wstail/internal/domain"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("wstail failed")
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr so stdout carries only the stream.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	fs := pflag.NewFlagSet("wstail", pflag.ContinueOnError)
	config.Flags(fs)
	if err := fs.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	zerolog.SetGlobalLevel(level)

	endpoint, err := domain.ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return err
	}
	url, err := endpoint.URL(cfg.Server, cfg.Container)
	if err != nil {
		return err
	}

	header := http.Header{}
	if auth := domain.BearerHeader(cfg.Token); auth != "" {
		header.Set("Authorization", auth)
	}

	dialer := &ws.Dialer{
		HandshakeTimeout: cfg.HandshakeTimeout,
		ReadLimit:        cfg.ReadLimit,
		ReadTimeout:      cfg.ReadTimeout,
	}
	printer := console.NewPrinter(os.Stdout, console.Options{
		Format:   console.Format(cfg.Format),
		Sanitize: cfg.Sanitize,
		Endpoint: endpoint,
	})
	session := app.NewSession(dialer, printer, app.Options{
		URL:           url,
		Endpoint:      string(endpoint),
		Header:        header,
		TextPingReply: cfg.TextPingReply,
		ReadTimeout:   cfg.ReadTimeout,
		Policy: app.BackoffPolicy{
			MaxAttempts:    cfg.Reconnect.MaxAttempts,
			InitialBackoff: cfg.Reconnect.InitialBackoff,
			MaxBackoff:     cfg.Reconnect.MaxBackoff,
		},
	})

	log.Info().Str("url", url).Str("endpoint", string(endpoint)).Msg("tailing")
	if err := session.Run(ctx); err != nil {
		return err
	}
	if ctx.Err() != nil {
		log.Info().Msg("interrupt received, connection closed")
	}
	return nil
}
