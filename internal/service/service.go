package service

import (
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskd/internal/models"
)

// Service orchestrates task operations: resolving identities and projects at
// the boundary, delegating parent/child logic to the coordinator and issuing
// the resulting reads and writes through the store.
type Service struct {
	store    models.TaskStore
	projects models.ProjectResolver
	users    models.IdentityResolver
	sub      *Coordinator
	orgID    string
	logger   *slog.Logger
}

// Config carries the service settings.
type Config struct {
	OrgID       string
	MaxSubtasks int64
}

// New constructs the task service with explicit dependencies.
func New(store models.TaskStore, projects models.ProjectResolver, users models.IdentityResolver, cfg Config, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    store,
		projects: projects,
		users:    users,
		sub:      NewCoordinator(store, logger, cfg.MaxSubtasks),
		orgID:    cfg.OrgID,
		logger:   logger,
	}
}

// TaskChanges is a partial update payload. Nil fields are left untouched.
type TaskChanges struct {
	Summary  *string
	TaskType *string
	Priority *string
	Status   *string
	Labels   *[]string
	Location *string
	Assignee *string
	ParentID *primitive.ObjectID
	Project  *models.ProjectRef
}

// Empty reports whether the payload carries no change at all.
func (c *TaskChanges) Empty() bool {
	return c.Summary == nil && c.TaskType == nil && c.Priority == nil &&
		c.Status == nil && c.Labels == nil && c.Location == nil &&
		c.Assignee == nil && c.ParentID == nil && c.Project == nil
}

// fields translates the set scalar changes into store field assignments.
// Parent and project handling belongs to the coordinator and is excluded.
func (c *TaskChanges) fields() map[string]any {
	out := map[string]any{}
	if c.Summary != nil {
		out["summary"] = *c.Summary
	}
	if c.TaskType != nil {
		out["task_type"] = *c.TaskType
	}
	if c.Priority != nil {
		out["priority"] = *c.Priority
	}
	if c.Status != nil {
		out["status"] = *c.Status
	}
	if c.Labels != nil {
		out["labels"] = *c.Labels
	}
	if c.Location != nil {
		out["location"] = *c.Location
	}
	return out
}
