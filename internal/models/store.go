package models

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStore is the document-store surface the service depends on. All bulk
// operations are non-atomic; a failure partway leaves documents partially
// written and callers are expected to detect, not repair.
type TaskStore interface {
	// Get returns the task by id, or a NotFound error.
	Get(ctx context.Context, id primitive.ObjectID) (*Task, error)
	// Search returns summaries of all tasks matching the filter.
	Search(ctx context.Context, filter TaskFilter) ([]TaskSummary, error)
	// Subtasks returns projected summaries of the children of parentID,
	// bounded by limit, in store insertion order.
	Subtasks(ctx context.Context, parentID primitive.ObjectID, limit int64) ([]TaskSummary, error)
	// SubtaskDocs returns the full child documents of parentID.
	SubtaskDocs(ctx context.Context, parentID primitive.ObjectID) ([]Task, error)
	// CountSubtasks counts the children of parentID.
	CountSubtasks(ctx context.Context, parentID primitive.ObjectID) (int64, error)
	// Insert stores one task and returns its assigned id.
	Insert(ctx context.Context, t *Task) (primitive.ObjectID, error)
	// InsertMany stores the given tasks and returns the assigned ids.
	InsertMany(ctx context.Context, tasks []Task) ([]primitive.ObjectID, error)
	// Update applies fields to the task with set semantics and returns the
	// matched and modified document counts.
	Update(ctx context.Context, id primitive.ObjectID, fields map[string]any) (matched, modified int64, err error)
	// UpdateSubtasks applies fields to every child of parentID.
	UpdateSubtasks(ctx context.Context, parentID primitive.ObjectID, fields map[string]any) (matched, modified int64, err error)
	// Delete removes the task by id, returning the deleted count (0 or 1).
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	// DeleteSubtasks removes every child of parentID and returns the count.
	DeleteSubtasks(ctx context.Context, parentID primitive.ObjectID) (int64, error)
}

// ProjectResolver resolves a project reference to its canonical descriptor,
// creating one when necessary.
type ProjectResolver interface {
	Resolve(ctx context.Context, ref ProjectRef) (Project, error)
}

// IdentityResolver resolves a user id to a display identity.
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (Identity, error)
}
