package service

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskd/internal/models"
)

// Coordinator keeps subtask documents consistent with their main task across
// every mutation path. It never resolves project references itself; callers
// hand it resolved descriptors only.
type Coordinator struct {
	store       models.TaskStore
	logger      *slog.Logger
	maxSubtasks int64
}

// NewCoordinator builds a coordinator over the given store. maxSubtasks
// bounds subtask listings.
func NewCoordinator(store models.TaskStore, logger *slog.Logger, maxSubtasks int64) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{store: store, logger: logger, maxSubtasks: maxSubtasks}
}

// Subtasks lists the children of parentID, bounded by the configured maximum.
func (c *Coordinator) Subtasks(ctx context.Context, parentID primitive.ObjectID) ([]models.TaskSummary, error) {
	return c.store.Subtasks(ctx, parentID, c.maxSubtasks)
}

// Clone copies every child of srcID under newParentID. Each clone keeps all
// fields except id, parent and audit stamps. The listing and the document
// read are separate queries; a count mismatch between them means the subtask
// set changed in between and the clone is aborted. Inserts are not rolled
// back on partial failure.
func (c *Coordinator) Clone(ctx context.Context, srcID, newParentID primitive.ObjectID, actor models.Identity, now time.Time) ([]primitive.ObjectID, error) {
	listed, err := c.store.Subtasks(ctx, srcID, 0)
	if err != nil {
		return nil, err
	}
	docs, err := c.store.SubtaskDocs(ctx, srcID)
	if err != nil {
		return nil, err
	}
	if len(listed) != len(docs) {
		return nil, models.ConsistencyRacef("subtask set of %s changed during clone: listed %d, read %d", srcID.Hex(), len(listed), len(docs))
	}
	if len(docs) == 0 {
		return nil, nil
	}

	clones := make([]models.Task, len(docs))
	for i, d := range docs {
		parent := newParentID
		d.ID = primitive.NilObjectID
		d.ParentID = &parent
		d.CreatedBy = actor
		d.CreatedAt = now
		d.LastUpdatedBy = actor
		d.LastUpdatedAt = now
		clones[i] = d
	}

	ids, err := c.store.InsertMany(ctx, clones)
	if err != nil {
		c.logger.Error("subtask clone insert failed", slog.String("source", srcID.Hex()), slog.String("error", err.Error()))
		return nil, err
	}
	return ids, nil
}

// MoveSubtask validates an update against a task that is already a subtask
// and returns the derived fields to merge into the update. The project of a
// subtask is never client-settable; re-parenting overwrites it from the new
// parent.
func (c *Coordinator) MoveSubtask(ctx context.Context, current *models.Task, changes *TaskChanges) (map[string]any, error) {
	if changes.Project != nil {
		return nil, models.InvalidTransitionf("cannot set project on a subtask; it is derived from the parent task")
	}

	fields := map[string]any{}
	if changes.ParentID != nil {
		parent, err := c.store.Get(ctx, *changes.ParentID)
		if models.KindOf(err) == models.KindNotFound {
			return nil, models.NotFoundf("parent task %s not found", changes.ParentID.Hex())
		}
		if err != nil {
			return nil, err
		}
		if !parent.IsMain() {
			return nil, models.InvalidTransitionf("parent task %s is itself a subtask", parent.ID.Hex())
		}
		fields["parent_id"] = *changes.ParentID
		fields["project"] = parent.Project
	}
	return fields, nil
}

// MainUpdate is the outcome of validating an update against a main task:
// the derived fields plus the counts of any subtask bulk update performed.
type MainUpdate struct {
	Fields   map[string]any
	Matched  int64
	Modified int64
}

// UpdateMain validates parent or project changes on a main task. Becoming a
// subtask requires having none of its own; a project change is propagated to
// every child as one bulk update stamped with the acting identity.
func (c *Coordinator) UpdateMain(ctx context.Context, current *models.Task, changes *TaskChanges, actor models.Identity, now time.Time) (*MainUpdate, error) {
	out := &MainUpdate{Fields: map[string]any{}}

	if changes.ParentID != nil {
		if *changes.ParentID == current.ID {
			return nil, models.InvalidTransitionf("task %s cannot be its own parent", current.ID.Hex())
		}
		n, err := c.store.CountSubtasks(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, models.InvalidTransitionf("task %s has %d subtasks and cannot become a subtask; move or delete them first", current.ID.Hex(), n)
		}
		parent, err := c.store.Get(ctx, *changes.ParentID)
		if models.KindOf(err) == models.KindNotFound {
			return nil, models.NotFoundf("parent task %s not found", changes.ParentID.Hex())
		}
		if err != nil {
			return nil, err
		}
		if !parent.IsMain() {
			return nil, models.InvalidTransitionf("parent task %s is itself a subtask", parent.ID.Hex())
		}
		out.Fields["parent_id"] = *changes.ParentID
		out.Fields["project"] = parent.Project
		return out, nil
	}

	if changes.Project != nil {
		proj := *changes.Project.Resolved
		matched, modified, err := c.store.UpdateSubtasks(ctx, current.ID, map[string]any{
			"project":         proj,
			"last_updated_by": actor,
			"last_updated_at": now,
		})
		if err != nil {
			return nil, err
		}
		out.Fields["project"] = proj
		out.Matched = matched
		out.Modified = modified
	}
	return out, nil
}

// DeleteSubtasks cascades the delete of id's children. Without confirmation
// an existing subtask set blocks the delete. A deleted count differing from
// the pre-count means a concurrent mutation; the documents already removed
// stay removed.
func (c *Coordinator) DeleteSubtasks(ctx context.Context, id primitive.ObjectID, confirmed bool) (int64, error) {
	n, err := c.store.CountSubtasks(ctx, id)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if !confirmed {
		return 0, models.PreconditionRequiredf("task %s has %d subtasks; pass subtasks=true to delete them as well", id.Hex(), n)
	}
	deleted, err := c.store.DeleteSubtasks(ctx, id)
	if err != nil {
		return deleted, err
	}
	if deleted != n {
		return deleted, models.ConsistencyRacef("expected to delete %d subtasks of %s, deleted %d", n, id.Hex(), deleted)
	}
	return deleted, nil
}
