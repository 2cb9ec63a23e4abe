package postgres

import (
	"context"
	"errors"
	"fmt"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	repo "taskflow/internal/repository"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const slowQuery = time.Millisecond * 100

type Storage struct {
	pool *pgxpool.Pool
}

type PoolOption func(*pgxpool.Config)

func WithMaxConns(n int32) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = n
		}
	}
}

func WithMinConns(n int32) PoolOption {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MinConns = n
		}
	}
}

func WithMaxConnIdleTime(d time.Duration) PoolOption {
	return func(c *pgxpool.Config) {
		if d > 0 {
			c.MaxConnIdleTime = d
		}
	}
}

func New(ctx context.Context, connString string, options ...PoolOption) (*Storage, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		logger.Error("Repository: Ошибка загрузки конфига", err)
		return nil, fmt.Errorf("загрузка конфига: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnIdleTime = time.Minute * 5
	for _, opt := range options {
		opt(config)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		logger.Error("Repository: Ошибка создания пула", err)
		return nil, fmt.Errorf("создание пула: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к PostgreSQL")
	return &Storage{pool: pool}, nil
}

func (s *Storage) Close() {
	s.pool.Close()
	logger.Info("Repository: Закрытие всех соединений PostgreSQL")
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	err := s.pool.Ping(ctx)
	if err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Insert(ctx context.Context, rec *task.Record) error {
	start := time.Now()

	id := uuid.New()
	status := rec.Status
	if status == "" {
		status = task.LegacyIncomplete
	}

	query := `INSERT INTO tasks
				(id, title, description, owner_id, status, completed, important, favorite)
				VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
				RETURNING created_at, updated_at`

	err := s.pool.QueryRow(ctx, query,
		id,
		rec.Title,
		rec.Description,
		rec.OwnerID,
		string(status),
		rec.Completed,
		rec.Important,
		rec.Favorite,
	).Scan(&rec.CreatedAt, &rec.UpdatedAt)

	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}
	rec.ID = id.String()
	rec.Status = status

	warnSlow(start, slowQuery)
	return nil
}

func (s *Storage) FindByID(ctx context.Context, id string) (*task.Record, error) {
	start := time.Now()

	parsed, err := uuid.Parse(id)
	if err != nil {
		// не UUID - такой записи быть не может
		return nil, repo.ErrNotFound
	}

	query := `SELECT ` + selectColumns + `
				FROM tasks
				WHERE id = $1`

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, parsed))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnSlow(start, slowQuery)
	return rec, nil
}

func (s *Storage) Find(ctx context.Context, filter task.Filter) ([]*task.Record, error) {
	start := time.Now()

	where, args := buildWhere(filter)
	query := `SELECT ` + selectColumns + `
				FROM tasks
				` + where + `
				ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf("\n\t\t\t\tLIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer rows.Close()

	records := []*task.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			logger.Error("Repository: Ошибка сканирования задачи", err)
			return nil, fmt.Errorf("сканирование задачи: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		logger.Error("Repository: Ошибка итерации по строкам", err)
		return nil, fmt.Errorf("итерация по строкам: %w", err)
	}

	warnSlow(start, time.Millisecond*50+time.Millisecond*time.Duration(len(records)))
	return records, nil
}

func (s *Storage) UpdateByID(ctx context.Context, id string, patch task.Patch) (*task.Record, error) {
	start := time.Now()

	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, repo.ErrNotFound
	}

	set, args := buildSet(patch)
	query := `UPDATE tasks
				SET ` + set + `
			WHERE id = $1
			RETURNING ` + selectColumns

	rec, err := scanRecord(s.pool.QueryRow(ctx, query, append([]any{parsed}, args...)...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			logger.Warn("Repository: Задача для обновления не найдена", zap.String("task_id", id))
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	warnSlow(start, slowQuery)
	return rec, nil
}

func (s *Storage) DeleteByID(ctx context.Context, id string) error {
	start := time.Now()

	parsed, err := uuid.Parse(id)
	if err != nil {
		return repo.ErrNotFound
	}

	query := `DELETE FROM tasks
				WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, parsed)
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repo.ErrNotFound
	}

	warnSlow(start, slowQuery)
	return nil
}

func scanRecord(row pgx.Row) (*task.Record, error) {
	var (
		rec    task.Record
		id     uuid.UUID
		status string
	)

	err := row.Scan(
		&id,
		&rec.Title,
		&rec.Description,
		&rec.OwnerID,
		&status,
		&rec.Completed,
		&rec.Important,
		&rec.Favorite,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.ID = id.String()
	rec.Status = task.LegacyStatus(status)
	return &rec, nil
}

func warnSlow(start time.Time, limit time.Duration) {
	if time.Since(start) > limit {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
