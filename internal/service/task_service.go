package service

import (
	"context"
	"errors"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	rep "taskflow/internal/repository"

	"go.uber.org/zap"
)

// здесь происходит проверка ошибок бизнес-логики и нормализация статусов

type TaskService struct {
	repo            TaskRepository
	bulkConcurrency int
}

func NewTaskService(repo TaskRepository, options ...ServiceOption) *TaskService {
	s := &TaskService{
		repo:            repo,
		bulkConcurrency: defaultBulkConcurrency,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

type ServiceOption func(*TaskService)

// WithBulkConcurrency ограничивает число одновременных операций в bulk
func WithBulkConcurrency(n int) ServiceOption {
	return func(s *TaskService) {
		if n > 0 {
			s.bulkConcurrency = n
		}
	}
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	if err := s.repo.HealthCheck(ctx); err != nil {
		return NewStoreError("health_check", err)
	}
	return nil
}

func (s *TaskService) List(ctx context.Context, params ListParams) ([]*task.Task, error) {
	filter := task.Filter{
		OwnerID:   params.OwnerID,
		Favorite:  params.Favorite,
		Important: params.Important,
	}

	if params.Status != nil {
		switch raw := task.LegacyStatus(*params.Status); raw {
		case task.LegacyIncomplete, task.LegacyComplete:
			status := task.Status(raw)
			filter.Status = &status
		case task.LegacyImportant:
			// старые клиенты фильтруют важные задачи через статус
			if params.Important != nil && !*params.Important {
				return []*task.Task{}, nil
			}
			important := true
			filter.Important = &important
		default:
			return nil, NewValidationError("status", "допустимы Incomplete, Complete")
		}
	}

	records, err := s.repo.Find(ctx, filter)
	if err != nil {
		logger.Error("Service: Ошибка получения задач", err, logger.WithRequestID(ctx))
		return nil, NewStoreError("find", err)
	}

	return task.FromRecords(records), nil
}

func (s *TaskService) GetByID(ctx context.Context, id string) (*task.Task, error) {
	rec, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	return task.FromRecord(rec), nil
}

func (s *TaskService) Create(ctx context.Context, params CreateParams) (*task.Task, error) {
	if params.Title == "" {
		return nil, NewValidationError("title", "название обязательно")
	}

	status, completed, important := task.Normalize(params.Status, params.Important)
	rec := &task.Record{
		Title:       params.Title,
		Description: params.Description,
		OwnerID:     params.OwnerID,
		Status:      task.LegacyStatus(status),
		Completed:   completed,
		Important:   important,
		Favorite:    params.Favorite,
	}

	if err := s.repo.Insert(ctx, rec); err != nil {
		logger.Error("Service: Ошибка создания задачи", err, logger.WithRequestID(ctx))
		return nil, NewStoreError("insert", err)
	}

	logger.Info("Service: Задача создана",
		zap.String("task_id", rec.ID),
		logger.WithRequestID(ctx))
	return task.FromRecord(rec), nil
}

func (s *TaskService) Update(ctx context.Context, id string, params UpdateParams) (*task.Task, error) {
	options := []task.PatchOption{}

	if params.Title != nil {
		if *params.Title == "" {
			return nil, NewValidationError("title", "название не может быть пустым")
		}
		options = append(options, task.WithTitle(*params.Title))
	}

	switch {
	case params.Description != nil:
		options = append(options, task.WithDescription(*params.Description))
	case params.Desc != nil:
		options = append(options, task.WithDescription(*params.Desc))
	}

	if params.Status != nil {
		// общий update принимает только канонические значения
		status := task.Status(*params.Status)
		if !status.Valid() {
			return nil, NewValidationError("status", "допустимы Incomplete, Complete")
		}
		options = append(options, task.WithStatus(status))
	}

	if params.OwnerID != nil {
		options = append(options, task.WithOwner(*params.OwnerID))
	}
	if params.Important != nil {
		options = append(options, task.WithImportant(*params.Important))
	}
	if params.Favorite != nil {
		options = append(options, task.WithFavorite(*params.Favorite))
	}

	return s.patch(ctx, id, func(*task.Record) task.Patch {
		return task.NewPatch(options...)
	})
}

// ToggleFavorite ставит явное значение или инвертирует текущее
func (s *TaskService) ToggleFavorite(ctx context.Context, id string, explicit *bool) (*task.Task, error) {
	return s.patch(ctx, id, func(rec *task.Record) task.Patch {
		favorite := !rec.Favorite
		if explicit != nil {
			favorite = *explicit
		}
		return task.NewPatch(task.WithFavorite(favorite))
	})
}

// ToggleImportant работает с нормализованной важностью, статус не трогает
func (s *TaskService) ToggleImportant(ctx context.Context, id string, explicit *bool) (*task.Task, error) {
	return s.patch(ctx, id, func(rec *task.Record) task.Patch {
		_, _, current := task.Normalize(rec.Status, rec.Important)
		important := !current
		if explicit != nil {
			important = *explicit
		}
		return task.NewPatch(task.WithImportant(important))
	})
}

// SetStatus - единственная операция, где Important ещё допустим на входе
func (s *TaskService) SetStatus(ctx context.Context, id string, status string) (*task.Task, error) {
	raw := task.LegacyStatus(status)
	if !raw.Valid() {
		return nil, NewValidationError("status", "допустимы Incomplete, Complete, Important")
	}

	normalized, _, _ := task.Normalize(raw, false)
	options := []task.PatchOption{task.WithStatus(normalized)}
	if raw == task.LegacyImportant {
		options = append(options, task.WithImportant(true))
	}

	return s.patch(ctx, id, func(*task.Record) task.Patch {
		return task.NewPatch(options...)
	})
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id), logger.WithRequestID(ctx))
			return NewNotFound(id, err)
		}
		logger.Error("Service: Ошибка удаления задачи", err, zap.String("target_id", id))
		return NewStoreError("delete", err)
	}

	logger.Info("Service: Задача удалена", zap.String("task_id", id), logger.WithRequestID(ctx))
	return nil
}

// Stats считает задачи владельца после нормализации
func (s *TaskService) Stats(ctx context.Context, ownerID *string) (*Stats, error) {
	tasks, err := s.List(ctx, ListParams{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			stats.Complete++
		} else {
			stats.Incomplete++
		}
		if t.Important {
			stats.Important++
		}
		if t.Favorite {
			stats.Favorite++
		}
	}
	return stats, nil
}

func (s *TaskService) findRecord(ctx context.Context, id string) (*task.Record, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			logger.Info("Service: Задача не найдена", zap.String("target_id", id), logger.WithRequestID(ctx))
			return nil, NewNotFound(id, err)
		}
		logger.Error("Service: Ошибка получения задачи", err, zap.String("target_id", id))
		return nil, NewStoreError("find_by_id", err)
	}
	return rec, nil
}

// patch читает запись, строит патч и пишет его вместе с миграцией
// устаревшего статуса. Чтение и запись не атомарны: выигрывает последняя запись.
func (s *TaskService) patch(ctx context.Context, id string, build func(*task.Record) task.Patch) (*task.Task, error) {
	rec, err := s.findRecord(ctx, id)
	if err != nil {
		return nil, err
	}

	p := task.MigratePatch(rec, build(rec))
	if p.IsEmpty() {
		return task.FromRecord(rec), nil
	}

	updated, err := s.repo.UpdateByID(ctx, id, p)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			// удалили между чтением и записью
			return nil, NewNotFound(id, err)
		}
		logger.Error("Service: Ошибка обновления задачи", err, zap.String("target_id", id))
		return nil, NewStoreError("update", err)
	}

	return task.FromRecord(updated), nil
}
