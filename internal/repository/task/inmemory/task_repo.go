package inmemory

import (
	"context"
	"slices"
	"sync"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	repo "taskflow/internal/repository"
	"time"

	"github.com/google/uuid"
)

// TaskStorage хранит записи в памяти. Наружу отдаются только копии,
// поэтому конкурентные вызовы не видят чужих изменений посреди операции.
type TaskStorage struct {
	storage map[string]*task.Record
	mtx     *sync.RWMutex
	ids     []string
	now     func() time.Time
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[string]*task.Record),
		mtx:     &sync.RWMutex{},
		ids:     []string{},
		now:     time.Now,
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	logger.Info("Repository: Соединение стабильно")
	return nil
}

// Seed кладёт запись как есть, без нормализации и новых меток времени.
// Нужен для загрузки старых данных со статусом Important.
func (s *TaskStorage) Seed(rec *task.Record) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	cp := *rec
	if cp.ID == "" {
		cp.ID = uuid.New().String()
		rec.ID = cp.ID
	}
	s.storage[cp.ID] = &cp
	s.ids = append(s.ids, cp.ID)
}

func (s *TaskStorage) Insert(ctx context.Context, rec *task.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	now := s.now()
	rec.ID = uuid.New().String()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	cp := *rec
	s.storage[rec.ID] = &cp
	s.ids = append(s.ids, rec.ID)
	return nil
}

func (s *TaskStorage) FindByID(ctx context.Context, id string) (*task.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	rec, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

// Find обходит записи от новых к старым
func (s *TaskStorage) Find(ctx context.Context, filter task.Filter) ([]*task.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Record{}
	for i := len(s.ids) - 1; i >= 0; i-- {
		rec := s.storage[s.ids[i]]
		if !filter.Matches(rec) {
			continue
		}

		cp := *rec
		res = append(res, &cp)
	}

	// засеянные записи могут прийти с произвольным created_at
	slices.SortStableFunc(res, func(a, b *task.Record) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	if filter.Limit > 0 && len(res) > filter.Limit {
		res = res[:filter.Limit]
	}
	return res, nil
}

func (s *TaskStorage) UpdateByID(ctx context.Context, id string, patch task.Patch) (*task.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	rec, ok := s.storage[id]
	if !ok {
		return nil, repo.ErrNotFound
	}

	patch.Apply(rec)
	now := s.now()
	if now.Before(rec.UpdatedAt) {
		now = rec.UpdatedAt
	}
	rec.UpdatedAt = now

	cp := *rec
	return &cp, nil
}

func (s *TaskStorage) DeleteByID(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[id]; !ok {
		return repo.ErrNotFound
	}

	delete(s.storage, id)
	for ind, val := range s.ids {
		if val == id {
			s.ids = append(s.ids[:ind], s.ids[ind+1:]...)
			break
		}
	}
	return nil
}
