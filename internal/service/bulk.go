package service

import (
	"context"
	"sync"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultBulkConcurrency = 8

type BulkAction string

const (
	BulkComplete      BulkAction = "complete"
	BulkMarkImportant BulkAction = "markImportant"
	BulkDelete        BulkAction = "delete"
)

func (a BulkAction) Valid() bool {
	return a == BulkComplete || a == BulkMarkImportant || a == BulkDelete
}

type BulkFailure struct {
	ID      string `json:"id"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

type BulkResult struct {
	Action    BulkAction    `json:"action"`
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Failures  []BulkFailure `json:"failures"`
}

// Bulk выполняет действие для каждого id независимо.
// Ошибка по одному id не останавливает остальные, уже применённые
// изменения не откатываются. Повторяющиеся id обрабатываются один раз.
func (s *TaskService) Bulk(ctx context.Context, ids []string, action BulkAction) (*BulkResult, error) {
	if !action.Valid() {
		return nil, NewValidationError("action", "допустимы complete, markImportant, delete")
	}
	if len(ids) == 0 {
		return nil, NewValidationError("ids", "список id пуст")
	}

	unique := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	result := &BulkResult{
		Action:    action,
		Requested: len(unique),
		Failures:  []BulkFailure{},
	}
	var mtx sync.Mutex

	// группа без WithContext: ошибка одного id не отменяет остальные
	var g errgroup.Group
	g.SetLimit(s.bulkConcurrency)

	for _, id := range unique {
		g.Go(func() error {
			err := s.applyOne(ctx, id, action)

			mtx.Lock()
			defer mtx.Unlock()
			if err != nil {
				code := CodeOf(err)
				if code == "" {
					code = CodeStore
				}
				result.Failed++
				result.Failures = append(result.Failures, BulkFailure{ID: id, Code: code, Message: err.Error()})
				return nil
			}
			result.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	logger.Info("Service: Bulk операция завершена",
		zap.String("action", string(action)),
		zap.Int("requested", result.Requested),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
		logger.WithRequestID(ctx))

	return result, nil
}

func (s *TaskService) applyOne(ctx context.Context, id string, action BulkAction) error {
	if err := ctx.Err(); err != nil {
		return NewStoreError(string(action), err)
	}

	var err error
	switch action {
	case BulkComplete:
		_, err = s.SetStatus(ctx, id, string(task.StatusComplete))
	case BulkMarkImportant:
		important := true
		_, err = s.ToggleImportant(ctx, id, &important)
	case BulkDelete:
		err = s.Delete(ctx, id)
	}
	return err
}
