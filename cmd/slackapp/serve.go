package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/slack-go/slack"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/Efan404/slack-test-app/internal/config"
	"github.com/Efan404/slack-test-app/internal/delivery"
	"github.com/Efan404/slack-test-app/internal/fetcher"
	"github.com/Efan404/slack-test-app/internal/handlers"
	"github.com/Efan404/slack-test-app/internal/llm"
	"github.com/Efan404/slack-test-app/internal/logger"
	"github.com/Efan404/slack-test-app/internal/ocr"
	"github.com/Efan404/slack-test-app/internal/router"
	"github.com/Efan404/slack-test-app/internal/server"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideSlackClient,
			provideFetcher,
			provideOCRClient,
			provideLLMClient,
			provideDeliveryService,
			delivery.NewWebhookResponder,
			provideRouter,
			handlers.NewPingHandler,
			provideEventsHandler,
			provideCommandHandler,
			provideServer,
		),
		fx.Invoke(startServer),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func provideConfig() (config.Config, error) {
	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideSlackClient(cfg config.Config) *slack.Client {
	return slack.New(cfg.Slack.BotToken)
}

func provideFetcher(log *slog.Logger, cfg config.Config) *fetcher.Fetcher {
	return fetcher.New(log, cfg.Slack.BotToken)
}

func provideOCRClient(log *slog.Logger, cfg config.Config) *ocr.Client {
	return ocr.NewClient(log, cfg.OCR)
}

func provideLLMClient(log *slog.Logger, cfg config.Config) *llm.Client {
	return llm.NewClient(log, cfg.LLM)
}

func provideDeliveryService(log *slog.Logger, client *slack.Client) *delivery.Service {
	return delivery.NewService(log, client)
}

func provideRouter(log *slog.Logger, f *fetcher.Fetcher, o *ocr.Client, l *llm.Client, d *delivery.Service, responder *delivery.WebhookResponder) *router.Service {
	return router.NewService(log, f, o, l, d, responder)
}

func provideEventsHandler(log *slog.Logger, cfg config.Config, r *router.Service) *handlers.EventsHandler {
	return handlers.NewEventsHandler(log, cfg.Slack.SigningSecret, r)
}

func provideCommandHandler(log *slog.Logger, cfg config.Config, r *router.Service) *handlers.CommandHandler {
	return handlers.NewCommandHandler(log, cfg.Slack.SigningSecret, r)
}

func provideServer(log *slog.Logger, cfg config.Config, ping *handlers.PingHandler, events *handlers.EventsHandler, command *handlers.CommandHandler) *server.Server {
	return server.NewServer(log, cfg.Server.Addr, ping, events, command)
}

func startServer(lc fx.Lifecycle, log *slog.Logger, srv *server.Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil {
					log.Error("server stopped", slog.Any("error", err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
