package worker

import (
	"context"
	"errors"
	"fmt"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	repo "taskflow/internal/repository"
	"taskflow/internal/service"
	"time"

	"go.uber.org/zap"
)

// LegacyWorker переписывает записи со старым статусом Important в
// каноническую форму. Чтение и так нормализует такие записи, воркер
// лишь убирает их из хранилища.
type LegacyWorker struct {
	repo      service.TaskRepository
	interval  time.Duration
	batchSize int
}

func NewLegacyWorker(repo service.TaskRepository, interval *time.Duration, batchSize *int) *LegacyWorker {
	intervalToSet := 5 * time.Minute
	if interval != nil && *interval > 0 {
		intervalToSet = *interval
	}

	batchToSet := 100
	if batchSize != nil && *batchSize > 0 {
		batchToSet = *batchSize
	}

	return &LegacyWorker{
		repo:      repo,
		interval:  intervalToSet,
		batchSize: batchToSet,
	}
}

func (w *LegacyWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logger.Info("Worker: Фоновая миграция устаревших задач", zap.Time("started_at", time.Now()))
			if _, err := w.Check(ctx); err != nil {
				logger.Warn("Worker: ошибка миграции", zap.Error(err))
			}
		case <-ctx.Done():
			logger.Info("Worker: Фоновая миграция останавливается")
			return
		}
	}
}

// Check мигрирует одну пачку и возвращает число переписанных записей
func (w *LegacyWorker) Check(ctx context.Context) (int, error) {
	start := time.Now()

	records, err := w.repo.Find(ctx, task.Filter{LegacyOnly: true, Limit: w.batchSize})
	if err != nil {
		return 0, fmt.Errorf("получение устаревших задач: %w", err)
	}

	migrated := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return migrated, err
		}

		if err := w.migrate(ctx, rec); err != nil {
			// запись могли удалить между чтением и записью
			if errors.Is(err, repo.ErrNotFound) {
				continue
			}
			logger.Warn("Worker: Ошибка обновления задачи",
				zap.String("task_id", rec.ID),
				zap.Error(err))
			continue
		}
		migrated++
	}

	logger.Info(
		"Worker: Завершение миграции задач",
		zap.Duration("ms", time.Since(start)),
		zap.Int("checked", len(records)),
		zap.Int("migrated", migrated),
	)
	return migrated, nil
}

// Drain гоняет Check, пока устаревшие записи не закончатся
func (w *LegacyWorker) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := w.Check(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
	}
}

func (w *LegacyWorker) migrate(ctx context.Context, rec *task.Record) error {
	patch := task.MigratePatch(rec, task.Patch{})
	if patch.IsEmpty() {
		return nil
	}

	if _, err := w.repo.UpdateByID(ctx, rec.ID, patch); err != nil {
		return fmt.Errorf("обновление статуса: %w", err)
	}
	return nil
}
