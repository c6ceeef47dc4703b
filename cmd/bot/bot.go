package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/trixlive/backend/internal/bot"
	"github.com/trixlive/backend/internal/domain/cron"
	"github.com/trixlive/backend/migration"
	"github.com/trixlive/backend/pkg/prometheus"
	"github.com/trixlive/backend/pkg/xcontext"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

func (s *srv) startBot(cctx *cli.Context) error {
	if err := s.loadConfig(cctx); err != nil {
		return err
	}
	s.loadLogger()
	defer s.close()

	loaders := []func() error{
		s.loadDatabase,
		func() error { return migration.Migrate(s.ctx) },
		s.loadRedisClient,
		s.loadPublisher,
		s.loadTelegram,
		s.loadRepos,
	}
	for _, load := range loaders {
		if err := load(); err != nil {
			return err
		}
	}
	s.loadDomains()

	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := xcontext.Configs(ctx)
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return s.serveMetrics(ctx)
	})

	eg.Go(func() error {
		manager := cron.NewCronJobManager()
		manager.Register(cron.NewPromoCronJob(s.notifier, cfg.Scheduler))
		manager.Start(ctx)
		return nil
	})

	eg.Go(func() error {
		events := bot.Poll(ctx, s.botAPI, int(cfg.Telegram.PollTimeout.Seconds()))
		xcontext.Logger(ctx).Infof("Bot started with %d workers", cfg.Bot.Workers)
		return bot.NewDispatcher(s.newRouter(), cfg.Bot.Workers).Run(ctx, events)
	})

	err := eg.Wait()
	xcontext.Logger(s.ctx).Infof("Bot stopped")
	return err
}

func (s *srv) serveMetrics(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", prometheus.NewHandler())

	server := &http.Server{
		Addr:              xcontext.Configs(ctx).Metrics.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot shutdown metrics server: %v", err)
		}
	}()

	xcontext.Logger(ctx).Infof("Serving metrics on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
