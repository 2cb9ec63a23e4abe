package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"taskflow/internal/config"
	"taskflow/internal/handlers"
	"taskflow/internal/logger"
	"taskflow/internal/middleware"
	"taskflow/internal/repository/task/inmemory"
	"taskflow/internal/repository/task/mongo"
	"taskflow/internal/repository/task/postgres"
	"taskflow/internal/service"
	"taskflow/internal/worker"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config     *config.Config
	server     *http.Server
	router     *chi.Mux
	repository service.TaskRepository // интерфейс!
	service    *service.TaskService
	worker     *worker.LegacyWorker
	shutdowns  []func() // функции для graceful shutdown
}

func New(cfg *config.Config) *App {
	return &App{
		config:    cfg,
		shutdowns: make([]func(), 0),
	}
}

func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	a.shutdowns = append(a.shutdowns, func() {
		logger.Info("Завершение работы логгирования...")
		logger.Sync()
	})

	repository, closeRepo, err := NewRepository(ctx, a.config)
	if err != nil {
		return fmt.Errorf("инициализация хранилища: %w", err)
	}
	a.repository = repository
	a.shutdowns = append(a.shutdowns, closeRepo)

	a.service = service.NewTaskService(a.repository,
		service.WithBulkConcurrency(a.config.Bulk.Concurrency))

	a.worker = worker.NewLegacyWorker(a.repository,
		&a.config.Worker.Interval,
		&a.config.Worker.BatchSize)

	a.router = a.newRouter()
	a.server = &http.Server{
		Addr:    a.config.GetServerAddr(),
		Handler: a.router,
	}

	logger.Info("Приложение инициализировано",
		zap.String("repository", a.config.Repository.Type),
		zap.String("addr", a.server.Addr))
	return nil
}

// NewRepository открывает хранилище по repository.type.
// Вторым значением возвращается функция закрытия соединений.
func NewRepository(ctx context.Context, cfg *config.Config) (service.TaskRepository, func(), error) {
	switch cfg.Repository.Type {
	case config.RepositoryPostgres:
		if err := postgres.MigrateUp(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		storage, err := postgres.New(ctx, cfg.Database.URL,
			postgres.WithMaxConns(int32(cfg.Database.MaxConnections)),
			postgres.WithMinConns(int32(cfg.Database.MinConnections)),
			postgres.WithMaxConnIdleTime(cfg.Database.IdleTimeout))
		if err != nil {
			return nil, nil, err
		}
		return storage, storage.Close, nil

	case config.RepositoryMongo:
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.Timeout)
		defer cancel()

		storage, err := mongo.New(connectCtx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Collection)
		if err != nil {
			return nil, nil, err
		}
		if err := storage.EnsureIndexes(connectCtx); err != nil {
			logger.Warn("Индексы MongoDB не созданы", zap.Error(err))
		}
		return storage, func() { storage.Close(context.Background()) }, nil

	case config.RepositoryInMemory:
		logger.Warn("Используется хранилище в памяти, данные не сохраняются между запусками")
		return inmemory.NewTaskStorage(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("неизвестный тип хранилища: %q", cfg.Repository.Type)
}

func (a *App) newRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(a.config.CORS.Origins))
	if a.config.Server.RequestTimeout > 0 {
		r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
	}
	if a.config.Server.RateLimit > 0 {
		r.Use(middleware.RateLimit(a.config.Server.RateLimit))
	}

	taskHandler := handlers.NewTaskHandler(a.service)
	r.Route("/api", taskHandler.Routes)

	return r
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) Service() *service.TaskService {
	return a.service
}

func (a *App) Worker() *worker.LegacyWorker {
	return a.worker
}

// Run держит сервер и воркер до отмены ctx, затем аккуратно их гасит
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Сервер запущен", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http сервер: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Остановка сервера...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.Server.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	if a.config.Worker.Enabled {
		g.Go(func() error {
			a.worker.Start(gctx)
			return nil
		})
	}

	return g.Wait()
}

// Shutdown вызывает накопленные функции в обратном порядке
func (a *App) Shutdown() {
	for i := len(a.shutdowns) - 1; i >= 0; i-- {
		a.shutdowns[i]()
	}
	a.shutdowns = nil
}
