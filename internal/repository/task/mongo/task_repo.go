package mongo

import (
	"context"
	"errors"
	"fmt"
	"taskflow/internal/logger"
	"taskflow/internal/models/task"
	repo "taskflow/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const slowQuery = time.Millisecond * 100

// document - формат задачи в коллекции, поля совпадают со старыми данными
type document struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	OwnerID     string             `bson:"userId,omitempty"`
	Favorite    bool               `bson:"favorite"`
	Status      string             `bson:"status"`
	Completed   bool               `bson:"completed"`
	Important   bool               `bson:"important"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *document) toRecord() *task.Record {
	return &task.Record{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		OwnerID:     d.OwnerID,
		Status:      task.LegacyStatus(d.Status),
		Completed:   d.Completed,
		Important:   d.Important,
		Favorite:    d.Favorite,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type Storage struct {
	client     *mongo.Client
	collection *mongo.Collection
	now        func() time.Time
}

func New(ctx context.Context, uri, database, collection string) (*Storage, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.Error("Repository: Ошибка подключения к MongoDB", err)
		return nil, fmt.Errorf("подключение к MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		logger.Error("Repository: Неудачная проверка ping", err)
		return nil, fmt.Errorf("проверка соединения ping: %w", err)
	}

	logger.Info("Repository: Успешное создание подключения к MongoDB",
		zap.String("database", database),
		zap.String("collection", collection))

	return &Storage{
		client:     client,
		collection: client.Database(database).Collection(collection),
		now:        time.Now,
	}, nil
}

func (s *Storage) Close(ctx context.Context) {
	if err := s.client.Disconnect(ctx); err != nil {
		logger.Warn("Repository: Ошибка отключения от MongoDB", zap.Error(err))
		return
	}
	logger.Info("Repository: Закрытие соединения MongoDB")
}

// EnsureIndexes создаёт индексы под фильтры списка
func (s *Storage) EnsureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		logger.Error("Repository: Ошибка создания индексов", err)
		return fmt.Errorf("создание индексов: %w", err)
	}
	return nil
}

func (s *Storage) HealthCheck(ctx context.Context) error {
	if err := s.client.Ping(ctx, nil); err != nil {
		logger.Error("Repository: Неудачная проверка ping", err)
		return fmt.Errorf("проверка соединения ping: %w", err)
	}
	logger.Info("Repository: Соединение стабильно")
	return nil
}

func (s *Storage) Insert(ctx context.Context, rec *task.Record) error {
	start := time.Now()

	now := s.now().UTC().Truncate(time.Millisecond)
	status := rec.Status
	if status == "" {
		status = task.LegacyIncomplete
	}

	doc := document{
		Title:       rec.Title,
		Description: rec.Description,
		OwnerID:     rec.OwnerID,
		Favorite:    rec.Favorite,
		Status:      string(status),
		Completed:   rec.Completed,
		Important:   rec.Important,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	res, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		logger.Error("Repository: Не удалось добавить задачу", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("добавление задачи: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("добавление задачи: неожиданный тип id %T", res.InsertedID)
	}

	rec.ID = oid.Hex()
	rec.Status = status
	rec.CreatedAt = now
	rec.UpdatedAt = now

	warnSlow(start)
	return nil
}

func (s *Storage) FindByID(ctx context.Context, id string) (*task.Record, error) {
	start := time.Now()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repo.ErrNotFound
	}

	var doc document
	err = s.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось получить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задачи: %w", err)
	}

	warnSlow(start)
	return doc.toRecord(), nil
}

func (s *Storage) Find(ctx context.Context, filter task.Filter) ([]*task.Record, error) {
	start := time.Now()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := s.collection.Find(ctx, buildFilter(filter), opts)
	if err != nil {
		logger.Error("Repository: Не удалось получить задачи", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("получение задач: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		logger.Error("Repository: Ошибка чтения курсора", err)
		return nil, fmt.Errorf("чтение курсора: %w", err)
	}

	records := make([]*task.Record, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].toRecord())
	}

	warnSlow(start)
	return records, nil
}

func (s *Storage) UpdateByID(ctx context.Context, id string, patch task.Patch) (*task.Record, error) {
	start := time.Now()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repo.ErrNotFound
	}

	update := bson.M{
		// $max не даёт updatedAt уйти назад
		"$max": bson.M{"updatedAt": s.now().UTC().Truncate(time.Millisecond)},
	}
	if set := buildSet(patch); len(set) > 0 {
		update["$set"] = set
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc document
	err = s.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			logger.Warn("Repository: Задача для обновления не найдена", zap.String("task_id", id))
			return nil, repo.ErrNotFound
		}
		logger.Error("Repository: Не удалось обновить задачу", err, zap.Duration("ms", time.Since(start)))
		return nil, fmt.Errorf("обновление задачи: %w", err)
	}

	warnSlow(start)
	return doc.toRecord(), nil
}

func (s *Storage) DeleteByID(ctx context.Context, id string) error {
	start := time.Now()

	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repo.ErrNotFound
	}

	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		logger.Error("Repository: Удаление задачи", err, zap.Duration("ms", time.Since(start)))
		return fmt.Errorf("удаление задачи: %w", err)
	}
	if res.DeletedCount == 0 {
		return repo.ErrNotFound
	}

	warnSlow(start)
	return nil
}

func warnSlow(start time.Time) {
	if time.Since(start) > slowQuery {
		logger.Warn("Repository: Медленный запрос", zap.Duration("ms", time.Since(start)))
	}
}
