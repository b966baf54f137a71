package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"courtbot/internal/api"
	"courtbot/internal/bot"
	"courtbot/internal/config"
	"courtbot/internal/database"
	"courtbot/internal/domain"
	"courtbot/internal/events"
	"courtbot/internal/google"
	"courtbot/internal/logging"
	"courtbot/internal/models"
	"courtbot/internal/repository"
	"courtbot/internal/service"
	"courtbot/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, court, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, cfg.Booking.Location(), &logger)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, stateService := initStateService(ctx, cfg, &logger)
	defer func() { _ = repository.Close(redisClient) }()

	sheetsService := initGoogleSheets(ctx, cfg, &logger)

	// Запускаем воркер аудита
	var auditWorker *worker.AuditWorker
	if sheetsService != nil {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		auditWorker = worker.NewAuditWorker(db, sheetsService, redisClient, retryPolicy, &logger)
		go auditWorker.Start(ctx)
	}

	eventBus := events.NewEventBus()
	subscribeReservationEvents(eventBus, &logger)

	// Инициализация бизнес-сервисов
	ledger := service.NewReservationService(db, eventBus, auditAdapter(auditWorker), cfg.Booking, nil, &logger)
	userService := service.NewUserService(db, cfg, &logger)
	metrics := bot.NewMetrics()
	metrics.ObserveBus(eventBus)

	if cfg.API.Enabled {
		if cfg.API.HTTP.Enabled {
			httpServer := api.NewHTTPServer(cfg.API, ledger, &logger)
			go func() {
				if err := httpServer.Start(); err != nil {
					logger.Error().Err(err).Msg("HTTP API server error")
				}
			}()
			defer func() { _ = httpServer.Shutdown(context.Background()) }()
		}

		if cfg.API.GRPC.Enabled {
			grpcServer, err := api.NewGRPCServer(&cfg.API, &logger)
			if err != nil {
				logger.Error().Err(err).Msg("Ошибка инициализации gRPC сервера")
				return err
			}
			go func() {
				if err := grpcServer.Serve(); err != nil {
					logger.Error().Err(err).Msg("gRPC server error")
				}
			}()
			defer grpcServer.Shutdown(context.Background())
		}
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	return startBot(ctx, cfg, court, ledger, stateService, userService, sheetsService, eventBus, metrics, &logger)
}

func loadConfigAndLogger() (*config.Config, models.Court, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, models.Court{}, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, models.Court{}, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	courtPath := os.Getenv("COURT_PATH")
	if courtPath == "" {
		courtPath = "configs/court.yaml"
	}
	courtData, err := os.ReadFile(courtPath)
	if err != nil {
		logger.Error().Err(err).Msgf("Ошибка чтения %s", courtPath)
		return nil, models.Court{}, zerolog.Logger{}, closer, err
	}

	var courtConfig struct {
		Court models.Court `yaml:"court"`
	}
	if err := yaml.Unmarshal(courtData, &courtConfig); err != nil {
		logger.Error().Err(err).Msg("Ошибка парсинга court.yaml")
		return nil, models.Court{}, zerolog.Logger{}, closer, err
	}

	return cfg, courtConfig.Court, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
			return err
		}
	}
	return nil
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.AuditSpreadsheetID == "" {
		logger.Info().Msg("Google Sheets audit trail is not configured, skipping")
		return nil
	}

	sheetsSvc, err := google.NewSheetsService(
		cfg.Google.CredentialsFile,
		cfg.Google.AuditSpreadsheetID,
		cfg.Booking.Location(),
	)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsSvc.TestConnection(ctx); err != nil {
		logger.Error().Err(err).Msg("Google Sheets connection test failed")
		if email, emailErr := sheetsSvc.GetServiceAccountEmail(cfg.Google.CredentialsFile); emailErr == nil {
			logger.Error().Str("service_account", email).Msg("Проверьте, что таблица расшарена на этот аккаунт")
		}
		return nil
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsSvc
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, time.Duration(models.DefaultRedisTTL)*time.Second)
	fallbackRepo := repository.NewMemoryStateRepository(time.Duration(models.DefaultRedisTTL) * time.Second)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

// auditAdapter keeps a typed nil worker from sneaking into the service
// as a non-nil interface.
func auditAdapter(w *worker.AuditWorker) domain.AuditWorker {
	if w == nil {
		return nil
	}
	return w
}

// sheetsAdapter does the same for the users sheet.
func sheetsAdapter(s *google.SheetsService) bot.UsersSheet {
	if s == nil {
		return nil
	}
	return s
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	court models.Court,
	ledger *service.ReservationService,
	stateService *service.StateService,
	userService *service.UserService,
	sheetsService *google.SheetsService,
	eventBus *events.EventBus,
	metrics *bot.Metrics,
	logger *zerolog.Logger,
) error {
	if cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Задайте токен бота в config.yaml")
		return os.ErrInvalid
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(
		tgService, cfg, court, ledger, stateService,
		userService, sheetsAdapter(sheetsService), eventBus, metrics, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	logger.Info().Msg("Бот запущен...")
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func subscribeReservationEvents(bus *events.EventBus, logger *zerolog.Logger) {
	if bus == nil {
		return
	}

	logHandler := func(ev *events.Event) error {
		var payload events.ReservationEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}

		logger.Info().
			Str("event", ev.Type).
			Int64("user_id", payload.UserID).
			Time("slot_start", payload.SlotStart).
			Msg("reservation event")
		return nil
	}

	bus.Subscribe(events.EventReservationCreated, logHandler)
	bus.Subscribe(events.EventReservationCancelled, logHandler)
	bus.Subscribe(events.EventReservationExpired, logHandler)
}
