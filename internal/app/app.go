package app

import (
	"context"
	"net/http"
	"time"

	"github.com/sprigga/WebPDTool-sub005/internal/adapters/handlers"
	"github.com/sprigga/WebPDTool-sub005/internal/adapters/planstore"
	"github.com/sprigga/WebPDTool-sub005/internal/adapters/repositories/postgres"
	"github.com/sprigga/WebPDTool-sub005/internal/config"
	"github.com/sprigga/WebPDTool-sub005/internal/domain/entities"
	"github.com/sprigga/WebPDTool-sub005/internal/interfaces"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/logging"
	"github.com/sprigga/WebPDTool-sub005/internal/middleware/swagger"
	"github.com/sprigga/WebPDTool-sub005/internal/services/instrument"
	"github.com/sprigga/WebPDTool-sub005/internal/services/kafka"
	"github.com/sprigga/WebPDTool-sub005/internal/services/protocol"
	"github.com/sprigga/WebPDTool-sub005/internal/services/sfc"
	"github.com/sprigga/WebPDTool-sub005/internal/services/testexec"
	"github.com/sprigga/WebPDTool-sub005/internal/usecases"

	"go.uber.org/fx"
)

// New создает новый экземпляр fx.App
func New() *fx.App {
	return fx.New(
		ConfigModule,
		LoggingModule,
		RepositoryModule,
		ProducerModule,
		StoreModule,
		InstrumentModule,
		ProtocolModule,
		EngineModule,
		UsecaseModule,
		HttpServerModule,
		// Invoke-функции для запуска фоновых задач и хуков жизненного цикла
		fx.Invoke(InvokeRecoverSessions),
		fx.Invoke(InvokeDrainPool),
	)
}

// --- Модули FX ---

var ConfigModule = fx.Module("config_module",
	fx.Provide(config.LoadConfiguration),
)

func ProvideLogger(cfg *config.AppConfig) *logging.Logger {
	loggerCfg := &logging.Config{
		Enabled:    cfg.Logging.Enable,
		Level:      cfg.Logging.Level,
		LogsDir:    cfg.Logging.LogsDir,
		SavingDays: uint(cfg.Logging.SavingDays),
	}
	return logging.NewLogger(loggerCfg, "WebPDToolApp")
}

var LoggingModule = fx.Module("logging_module",
	fx.Provide(ProvideLogger),
)

var RepositoryModule = fx.Module("repository_module",
	fx.Provide(postgres.NewRepository),
)

var ProducerModule = fx.Module("producer_module",
	fx.Provide(kafka.NewKafkaProducer),
)

var StoreModule = fx.Module("store_module",
	fx.Provide(
		planstore.NewFileStore,
		planstore.NewInstrumentRegistry,
	),
)

func ProvidePool(configStore interfaces.InstrumentConfigStore, logger *logging.Logger) *instrument.ConnectionPool {
	return instrument.NewConnectionPool(configStore, nil, logger)
}

func ProvideInstrumentService(cfg *config.AppConfig, pool *instrument.ConnectionPool, configStore interfaces.InstrumentConfigStore, logger *logging.Logger) interfaces.InstrumentService {
	legacyTimeout := time.Duration(cfg.Station.LegacyTimeoutMs) * time.Millisecond
	return instrument.NewService(pool, configStore, legacyTimeout, logger)
}

var InstrumentModule = fx.Module("instrument_module",
	fx.Provide(
		ProvidePool,
		ProvideInstrumentService,
	),
)

// ProvideRelay создает контроллер реле. Станция без платы реле - штатная
// конфигурация: шаги relay на ней завершаются ошибкой подготовки.
func ProvideRelay(cfg *config.AppConfig) *protocol.RelayController {
	if cfg.Station.RelayDevice == "" {
		return nil
	}
	relayCfg := protocol.RelayConfig{
		Device: cfg.Station.RelayDevice,
		Baud:   cfg.Station.RelayBaud,
	}
	return protocol.NewRelayController(relayCfg, nil, protocol.NewLogger(cfg.Station.ProtocolLogLevel))
}

// ProvideRotator создает контроллер поворотной станины, если порт задан.
func ProvideRotator(cfg *config.AppConfig) *protocol.Rotator {
	if cfg.Station.ChassisDevice == "" {
		return nil
	}
	rotatorCfg := protocol.RotatorConfig{
		Device: cfg.Station.ChassisDevice,
		Baud:   cfg.Station.ChassisBaud,
	}
	return protocol.NewRotator(rotatorCfg, nil, protocol.NewLogger(cfg.Station.ProtocolLogLevel))
}

var ProtocolModule = fx.Module("protocol_module",
	fx.Provide(
		ProvideRelay,
		ProvideRotator,
	),
)

func ProvideMeasurementDeps(instruments interfaces.InstrumentService, relay *protocol.RelayController, rotator *protocol.Rotator, logger *logging.Logger) *testexec.MeasurementDeps {
	return &testexec.MeasurementDeps{
		Instruments: instruments,
		Relay:       relay,
		Rotator:     rotator,
		Logger:      logger,
	}
}

func ProvideEngine(
	planStore interfaces.PlanStore,
	instruments interfaces.InstrumentService,
	repo interfaces.SessionRepository,
	producer interfaces.KafkaService,
	sfcClient interfaces.SFCClient,
	deps *testexec.MeasurementDeps,
	logger *logging.Logger,
) interfaces.TestEngine {
	return testexec.NewEngine(planStore, instruments, repo, producer, sfcClient, deps, logger)
}

var EngineModule = fx.Module("engine_module",
	fx.Provide(
		sfc.NewClient,
		ProvideMeasurementDeps,
		ProvideEngine,
	),
)

var UsecaseModule = fx.Module("usecases_module",
	fx.Provide(usecases.NewUsecases),
)

func NewSwaggerConfig() *swagger.Config {
	return &swagger.Config{
		Enabled: true,
		Path:    "/swagger",
	}
}

var HttpServerModule = fx.Module("http_server_module",
	fx.Provide(
		NewSwaggerConfig,
		handlers.NewHandler,
		handlers.ProvideRouter,
	),
	fx.Invoke(InvokeHttpServer),
)

// InvokeRecoverSessions закрывает сессии, оставшиеся активными в БД после
// рестарта процесса: их рантайм-состояние потеряно, восстановить прогон нельзя.
func InvokeRecoverSessions(lc fx.Lifecycle, repo interfaces.SessionRepository, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			sessions, err := repo.GetAllSessions()
			if err != nil {
				logger.Error("Failed to read sessions from DB", "error", err)
				return nil // Не фатально, просто продолжаем
			}

			recovered := 0
			for _, s := range sessions {
				if s.State != entities.StatePending && s.State != entities.StateRunning {
					continue
				}
				if err := repo.FinishSession(s.SessionID, entities.StateError); err != nil {
					logger.Warn("Failed to close orphaned session", "sessionID", s.SessionID, "error", err)
					continue
				}
				recovered++
			}
			if recovered > 0 {
				logger.Warn("Closed orphaned sessions left by previous process", "count", recovered)
			}
			return nil
		},
	})
}

// InvokeDrainPool осушает пул соединений с инструментами при остановке.
func InvokeDrainPool(lc fx.Lifecycle, instruments interfaces.InstrumentService, logger *logging.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Draining instrument connection pool...")
			instruments.DrainAll(ctx)
			return nil
		},
	})
}

// InvokeHttpServer запускает HTTP-сервер.
func InvokeHttpServer(lc fx.Lifecycle, cfg *config.AppConfig, h http.Handler, logger *logging.Logger) {
	serverAddr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      h,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.Info("HTTP Server is starting", "address", serverAddr)
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("Failed to start server", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping HTTP server...")
			return server.Shutdown(ctx)
		},
	})
}
