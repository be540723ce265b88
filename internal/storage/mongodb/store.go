package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"taskd/internal/models"
)

// summaryProjection limits subtask and search reads to the summary fields.
var summaryProjection = bson.M{
	"_id":        1,
	"parent_id":  1,
	"status":     1,
	"summary":    1,
	"assignee":   1,
	"short_code": 1,
	"priority":   1,
}

// Store wraps access to the task collection and exposes high level helpers.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	tasks  *mongo.Collection
	logger *slog.Logger
}

// Open connects to MongoDB, verifies the connection and returns the store.
func Open(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("empty mongodb uri")
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(database)
	return &Store{
		client: client,
		db:     db,
		tasks:  db.Collection("tasks"),
		logger: logger,
	}, nil
}

// Close releases the client resources.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// ProjectsCollection exposes the projects collection for the project resolver.
func (s *Store) ProjectsCollection() *mongo.Collection {
	return s.db.Collection("projects")
}

// Get fetches a single task by id.
func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var t models.Task
	err := s.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.NotFoundf("task %s not found", id.Hex())
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return &t, nil
}

// Search returns summaries of all tasks matching the filter.
func (s *Store) Search(ctx context.Context, filter models.TaskFilter) ([]models.TaskSummary, error) {
	cur, err := s.tasks.Find(ctx, buildFilter(filter), options.Find().SetProjection(summaryProjection))
	if err != nil {
		return nil, fmt.Errorf("search tasks: %w", err)
	}
	var results []models.TaskSummary
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode search results: %w", err)
	}
	return results, nil
}

// Subtasks returns projected children of parentID in insertion order.
func (s *Store) Subtasks(ctx context.Context, parentID primitive.ObjectID, limit int64) ([]models.TaskSummary, error) {
	opts := options.Find().SetProjection(summaryProjection)
	if limit > 0 {
		opts = opts.SetLimit(limit)
	}
	cur, err := s.tasks.Find(ctx, bson.M{"parent_id": parentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list subtasks: %w", err)
	}
	var results []models.TaskSummary
	if err := cur.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("decode subtasks: %w", err)
	}
	return results, nil
}

// SubtaskDocs returns the full child documents of parentID.
func (s *Store) SubtaskDocs(ctx context.Context, parentID primitive.ObjectID) ([]models.Task, error) {
	cur, err := s.tasks.Find(ctx, bson.M{"parent_id": parentID})
	if err != nil {
		return nil, fmt.Errorf("read subtask documents: %w", err)
	}
	var docs []models.Task
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode subtask documents: %w", err)
	}
	return docs, nil
}

// CountSubtasks counts the children of parentID.
func (s *Store) CountSubtasks(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	n, err := s.tasks.CountDocuments(ctx, bson.M{"parent_id": parentID})
	if err != nil {
		return 0, fmt.Errorf("count subtasks: %w", err)
	}
	return n, nil
}

// Insert stores one task and returns its assigned id.
func (s *Store) Insert(ctx context.Context, t *models.Task) (primitive.ObjectID, error) {
	res, err := s.tasks.InsertOne(ctx, t)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("insert task: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return id, nil
}

// InsertMany stores the given tasks and returns the assigned ids.
func (s *Store) InsertMany(ctx context.Context, tasks []models.Task) ([]primitive.ObjectID, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	docs := make([]any, len(tasks))
	for i := range tasks {
		docs[i] = tasks[i]
	}
	res, err := s.tasks.InsertMany(ctx, docs)
	if err != nil {
		return nil, fmt.Errorf("insert tasks: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(res.InsertedIDs))
	for _, raw := range res.InsertedIDs {
		id, ok := raw.(primitive.ObjectID)
		if !ok {
			return nil, fmt.Errorf("unexpected inserted id type %T", raw)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Update applies fields with set semantics and reports matched/modified counts.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, fields map[string]any) (int64, int64, error) {
	res, err := s.tasks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return 0, 0, fmt.Errorf("update task: %w", err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// UpdateSubtasks applies fields to every child of parentID.
func (s *Store) UpdateSubtasks(ctx context.Context, parentID primitive.ObjectID, fields map[string]any) (int64, int64, error) {
	res, err := s.tasks.UpdateMany(ctx, bson.M{"parent_id": parentID}, bson.M{"$set": fields})
	if err != nil {
		return 0, 0, fmt.Errorf("update subtasks: %w", err)
	}
	return res.MatchedCount, res.ModifiedCount, nil
}

// Delete removes a task by id.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.tasks.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, fmt.Errorf("delete task: %w", err)
	}
	return res.DeletedCount, nil
}

// DeleteSubtasks removes every child of parentID.
func (s *Store) DeleteSubtasks(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	res, err := s.tasks.DeleteMany(ctx, bson.M{"parent_id": parentID})
	if err != nil {
		return 0, fmt.Errorf("delete subtasks: %w", err)
	}
	return res.DeletedCount, nil
}
