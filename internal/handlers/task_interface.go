package handlers

import (
	"context"
	"taskflow/internal/models/task"
	"taskflow/internal/service"
)

type Service interface {
	HealthCheck(context.Context) error
	List(context.Context, service.ListParams) ([]*task.Task, error)
	GetByID(context.Context, string) (*task.Task, error)
	Create(context.Context, service.CreateParams) (*task.Task, error)
	Update(context.Context, string, service.UpdateParams) (*task.Task, error)
	ToggleFavorite(context.Context, string, *bool) (*task.Task, error)
	ToggleImportant(context.Context, string, *bool) (*task.Task, error)
	SetStatus(context.Context, string, string) (*task.Task, error)
	Delete(context.Context, string) error
	Bulk(context.Context, []string, service.BulkAction) (*service.BulkResult, error)
	Stats(context.Context, *string) (*service.Stats, error)
}

var _ Service = (*service.TaskService)(nil)
