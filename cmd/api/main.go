package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/aniladanir/reservation-intake-service/internal/cache"
	redisCache "github.com/aniladanir/reservation-intake-service/internal/cache/redis"
	"github.com/aniladanir/reservation-intake-service/internal/classifier"
	"github.com/aniladanir/reservation-intake-service/internal/domain"
	"github.com/aniladanir/reservation-intake-service/internal/extractor"
	httpHandler "github.com/aniladanir/reservation-intake-service/internal/handler/http"
	"github.com/aniladanir/reservation-intake-service/internal/knowledge"
	applogger "github.com/aniladanir/reservation-intake-service/internal/logger"
	"github.com/aniladanir/reservation-intake-service/internal/persistant/postgresql"
	"github.com/aniladanir/reservation-intake-service/internal/repository/memory"
	messageRepo "github.com/aniladanir/reservation-intake-service/internal/repository/message"
	notificationRepo "github.com/aniladanir/reservation-intake-service/internal/repository/notification"
	reservationRepo "github.com/aniladanir/reservation-intake-service/internal/repository/reservation"
	"github.com/aniladanir/reservation-intake-service/internal/sender"
	"github.com/aniladanir/reservation-intake-service/internal/service"
)

var (
	configFile = flag.String("config", "config.json", "config file path")
)

type repositories struct {
	messages      messageRepo.Repository
	reservations  reservationRepo.Repository
	notifications notificationRepo.Repository
	close         func()
}

func main() {
	// listen for terminate signal
	notifyCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// parse flags
	flag.Parse()

	// parse config
	config, err := ReadConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to read config: %v", err)
	}

	// setup logger
	logger := applogger.New(os.Stdout, config.LogLevel)
	slog.SetDefault(logger)

	// initialize external dependencies
	repos, err := initRepositories(notifyCtx, config, logger)
	if err != nil {
		log.Fatalf("failed to initialize external dependencies: %v", err)
	}
	defer repos.close()

	// load business knowledge
	kb, err := knowledge.Load(config.KnowledgeFile)
	if err != nil {
		log.Fatalf("failed to load knowledge file: %v", err)
	}

	// init platform senders
	senders, err := initSenders(config, logger.With(slog.String("component", "sender")))
	if err != nil {
		log.Fatalf("failed to initialize senders: %v", err)
	}

	// init reservation workflow and dispatcher
	workflow := service.NewReservationWorkflow(
		repos.reservations,
		repos.notifications,
		logger.With(slog.String("component", "reservationWorkflow")),
		time.Now,
	)

	dispatcher, err := service.NewDispatcher(service.DispatcherConfig{
		History:    repos.messages,
		Workflow:   workflow,
		Classifier: classifier.NewKeyword(),
		Extractor:  extractor.NewHeuristic(time.Now),
		Knowledge:  kb,
		Replies: service.Replies{
			AgentRequested:      kb.Messages.AgentRequested,
			ReservationReceived: kb.Messages.ReservationDetected,
		},
		Senders:        senders,
		OperatorNumber: config.OperatorNumber,
	}, logger.With(slog.String("component", "dispatcher")))
	if err != nil {
		log.Fatalf("failed to initiate dispatcher: %v", err)
	}

	if config.AppSecret == "" {
		logger.Warn("app_secret is empty, every webhook delivery will be rejected")
	}

	// init http handler
	handler := httpHandler.NewHttpHandler(
		fmt.Sprintf(":%d", config.HttpPort),
		httpHandler.Config{
			AppSecret:   config.AppSecret,
			VerifyToken: config.VerifyToken,
		},
		dispatcher,
		workflow,
		logger.With(slog.String("component", "httpHandler")),
	)

	g, gCtx := errgroup.WithContext(notifyCtx)

	// run http handler
	g.Go(func() error {
		logger.Info("http server listening", "port", config.HttpPort)
		if err := handler.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	// graceful shutdown
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("application shutting down...")

		shutDownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		return handler.Shutdown(shutDownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("application stopped with error", "error", err.Error())
		repos.close()
		os.Exit(1)
	}
}

// initRepositories connects postgres and redis when configured and falls back
// to the in-process store otherwise.
func initRepositories(ctx context.Context, config *Config, logger *slog.Logger) (*repositories, error) {
	if config.DbConnString == "" {
		logger.Warn("db_conn_string is empty, records are kept in memory only")
		store := memory.NewStore(config.DedupTTL)
		return &repositories{
			messages:      store.Messages(),
			reservations:  store.Reservations(),
			notifications: store.Notifications(),
			close:         func() {},
		}, nil
	}

	// initialize database
	db, err := postgresql.Initialize(config.DbConnString, []any{
		&domain.Reservation{},
		&domain.Notification{},
		&domain.HistoryEntry{},
	})
	if err != nil {
		return nil, err
	}

	// initialize cache
	var (
		dedup  cache.Cache
		closer = func() {}
	)
	if config.RedisAddr != "" {
		rCache, err := redisCache.NewRedisCache(ctx, config.RedisAddr)
		if err != nil {
			postgresql.Close(db)
			return nil, err
		}
		dedup = rCache
		closer = func() { rCache.Close() }
	} else {
		logger.Warn("redis_addr is empty, duplicate deliveries will not be detected")
	}

	return &repositories{
		messages:      messageRepo.NewMessageRepository(db, dedup, config.DedupTTL),
		reservations:  reservationRepo.NewReservationRepository(db),
		notifications: notificationRepo.NewNotificationRepository(db),
		close:         closeAll(db, closer),
	}, nil
}

func closeAll(db *gorm.DB, closeCache func()) func() {
	return func() {
		closeCache()
		postgresql.Close(db)
	}
}

// initSenders builds one Graph API sender per platform that has credentials.
func initSenders(config *Config, logger *slog.Logger) (map[domain.Platform]service.Sender, error) {
	client, err := sender.NewClient(sender.Config{
		BaseURL:  config.GraphBaseURL,
		Version:  config.GraphVersion,
		Timeout:  config.SendTimeout,
		MaxRetry: config.SendMaxRetry,
	}, logger)
	if err != nil {
		return nil, err
	}

	senders := make(map[domain.Platform]service.Sender)
	if config.InstagramToken != "" {
		senders[domain.PlatformInstagram] = client.Instagram(config.InstagramToken)
	}
	if config.MessengerToken != "" {
		senders[domain.PlatformMessenger] = client.Messenger(config.MessengerToken)
	}
	if config.WhatsAppToken != "" && config.WhatsAppPhoneNumberID != "" {
		senders[domain.PlatformWhatsApp] = client.WhatsApp(config.WhatsAppPhoneNumberID, config.WhatsAppToken)
	}
	for _, p := range domain.Platforms {
		if _, ok := senders[p]; !ok {
			logger.Warn("no credentials for platform, replies will be dropped", "platform", p)
		}
	}

	return senders, nil
}
