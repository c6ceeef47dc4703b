package main

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/trixlive/backend/config"
	"github.com/trixlive/backend/internal/bot"
	"github.com/trixlive/backend/internal/client"
	"github.com/trixlive/backend/internal/domain"
	"github.com/trixlive/backend/internal/domain/draft"
	"github.com/trixlive/backend/internal/domain/game"
	"github.com/trixlive/backend/internal/repository"
	"github.com/trixlive/backend/pkg/kafka"
	"github.com/trixlive/backend/pkg/logger"
	"github.com/trixlive/backend/pkg/pubsub"
	"github.com/trixlive/backend/pkg/xcontext"
	"github.com/trixlive/backend/pkg/xredis"
	"github.com/urfave/cli/v2"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type srv struct {
	app *cli.App
	ctx context.Context

	// closers run in reverse order on shutdown.
	closers []func() error

	botAPI      *tgbotapi.BotAPI
	notifier    client.Notifier
	redisClient xredis.Client
	publisher   pubsub.Publisher
	node        *snowflake.Node

	userRepo          repository.UserRepository
	postRepo          repository.PostRepository
	moderationLogRepo repository.ModerationLogRepository
	restrictionRepo   repository.RestrictionLogRepository

	gate              *domain.CooldownGate
	userDomain        domain.UserDomain
	publicationDomain domain.PublicationDomain
	moderationDomain  domain.ModerationDomain
	gameDomain        domain.GameDomain
}

func (s *srv) loadConfig(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"), cctx.String("env"))
	if err != nil {
		return err
	}

	s.ctx = xcontext.WithConfigs(cctx.Context, cfg)
	return nil
}

func (s *srv) loadLogger() {
	cfg := xcontext.Configs(s.ctx).Log
	l := logger.NewLogger(logger.ParseLevel(cfg.Level), cfg.Encoding)
	s.ctx = xcontext.WithLogger(s.ctx, l)
	s.closers = append(s.closers, func() error {
		// Syncing stderr fails on some terminals, it is not worth reporting.
		_ = l.Sync()
		return nil
	})
}

func (s *srv) loadDatabase() error {
	cfg := xcontext.Configs(s.ctx).Database
	db, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       cfg.ConnectionString(),
		DefaultStringSize:         256,
		DisableDatetimePrecision:  true,
		DontSupportRenameIndex:    true,
		DontSupportRenameColumn:   true,
		SkipInitializeWithVersion: false,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	s.ctx = xcontext.WithDB(s.ctx, db)
	return nil
}

func (s *srv) loadRedisClient() error {
	redisClient, err := xredis.NewClient(s.ctx)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}

	s.redisClient = redisClient
	s.closers = append(s.closers, redisClient.Close)
	return nil
}

// loadPublisher falls back to a publisher that drops every event when no
// broker is configured.
func (s *srv) loadPublisher() error {
	cfg := xcontext.Configs(s.ctx).Kafka
	if len(cfg.Addrs) == 0 {
		xcontext.Logger(s.ctx).Infof("No kafka broker configured, domain events are dropped")
		s.publisher = pubsub.NewNopPublisher()
		return nil
	}

	publisher, err := kafka.NewPublisher(cfg.ClientID, cfg.Addrs)
	if err != nil {
		return err
	}

	s.publisher = publisher
	s.closers = append(s.closers, func() error { return publisher.Stop(s.ctx) })
	return nil
}

func (s *srv) loadTelegram() error {
	botAPI, err := tgbotapi.NewBotAPI(xcontext.Configs(s.ctx).Telegram.Token)
	if err != nil {
		return fmt.Errorf("connect telegram: %w", err)
	}

	xcontext.Logger(s.ctx).Infof("Authorized as @%s", botAPI.Self.UserName)
	s.botAPI = botAPI
	s.notifier = client.NewTelegramNotifier(botAPI)
	return nil
}

func (s *srv) loadRepos() error {
	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	s.node = node
	s.userRepo = repository.NewUserRepository()
	s.postRepo = repository.NewPostRepository()
	s.moderationLogRepo = repository.NewModerationLogRepository(node)
	s.restrictionRepo = repository.NewRestrictionLogRepository(node)
	return nil
}

func (s *srv) loadDomains() {
	cfg := xcontext.Configs(s.ctx)

	s.gate = domain.NewCooldownGate(s.userRepo, s.restrictionRepo)
	s.userDomain = domain.NewUserDomain(s.userRepo, s.postRepo, s.restrictionRepo, s.redisClient, s.notifier)
	s.publicationDomain = domain.NewPublicationDomain(
		draft.NewStore(),
		s.postRepo,
		s.userRepo,
		s.gate,
		domain.NewContentFilter(cfg.Filter.BannedSubstrings),
		s.notifier,
		s.publisher,
	)
	s.moderationDomain = domain.NewModerationDomain(
		s.postRepo, s.moderationLogRepo, s.notifier, s.publisher, s.userDomain)
	s.gameDomain = domain.NewGameDomain(
		game.NewLotteryRegistry(),
		game.NewWordContest(cfg.Game.DefaultInterval),
		s.gate,
		s.notifier,
	)
}

func (s *srv) newRouter() *bot.Router {
	return bot.NewRouter(
		s.notifier,
		s.userDomain,
		s.publicationDomain,
		s.moderationDomain,
		s.gameDomain,
		s.gate,
		s.botAPI.Self.UserName,
	)
}

func (s *srv) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && s.ctx != nil {
			xcontext.Logger(s.ctx).Warnf("Cannot close resource: %v", err)
		}
	}
}
