package service

import (
	"context"
	"taskflow/internal/models/task"
)

// TaskRepository - внешнее документное хранилище задач.
// Отсутствующая запись - repository.ErrNotFound.
type TaskRepository interface {
	HealthCheck(context.Context) error
	Find(context.Context, task.Filter) ([]*task.Record, error)
	FindByID(context.Context, string) (*task.Record, error)
	Insert(context.Context, *task.Record) error
	UpdateByID(context.Context, string, task.Patch) (*task.Record, error)
	DeleteByID(context.Context, string) error
}
