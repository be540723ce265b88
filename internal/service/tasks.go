package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskd/internal/models"
)

// CreateRequest is the boundary-validated payload for a new task. A set
// ParentID makes the new task a subtask; its project is then derived from the
// parent, never from the reference.
type CreateRequest struct {
	Summary  string
	TaskType string
	Priority string
	Status   string
	Labels   []string
	Location string
	Assignee string
	ParentID *primitive.ObjectID
	Project  models.ProjectRef
}

// Create stores a new task. A subtask's parent must exist, must be a main
// task and must carry the project the request declares.
func (s *Service) Create(ctx context.Context, req CreateRequest, actor models.Identity) (primitive.ObjectID, error) {
	now := time.Now().UTC()

	var proj models.Project
	if req.ParentID != nil {
		parent, err := s.store.Get(ctx, *req.ParentID)
		if models.KindOf(err) == models.KindNotFound {
			return primitive.NilObjectID, models.NotFoundf("parent task %s not found", req.ParentID.Hex())
		}
		if err != nil {
			return primitive.NilObjectID, err
		}
		if !parent.IsMain() {
			return primitive.NilObjectID, models.InvalidTransitionf("parent task %s is itself a subtask", parent.ID.Hex())
		}
		if !req.Project.IsZero() && !refersTo(req.Project, parent.Project) {
			return primitive.NilObjectID, models.InvalidTransitionf("subtask project must match the parent task project %q", parent.Project.Name)
		}
		proj = parent.Project
	} else {
		var err error
		proj, err = s.projects.Resolve(ctx, req.Project)
		if err != nil {
			return primitive.NilObjectID, err
		}
	}

	var assignee *models.Identity
	if req.Assignee != "" {
		ident, err := s.users.Resolve(ctx, req.Assignee)
		if err != nil {
			return primitive.NilObjectID, err
		}
		assignee = &ident
	}

	t := models.Task{
		OrgID:         s.orgID,
		ParentID:      req.ParentID,
		Project:       proj,
		ShortCode:     shortCode(proj.Name),
		Summary:       req.Summary,
		TaskType:      req.TaskType,
		Priority:      req.Priority,
		Status:        req.Status,
		Labels:        req.Labels,
		Location:      req.Location,
		Assignee:      assignee,
		CreatedBy:     actor,
		CreatedAt:     now,
		LastUpdatedBy: actor,
		LastUpdatedAt: now,
	}
	return s.store.Insert(ctx, &t)
}

// refersTo reports whether the unresolved reference points at the given
// canonical project.
func refersTo(ref models.ProjectRef, p models.Project) bool {
	if ref.Resolved != nil {
		return ref.Resolved.ID == p.ID
	}
	if ref.ID != "" {
		return ref.ID == p.ID
	}
	return strings.EqualFold(ref.Name, p.Name)
}

// TaskDetail is a task plus its current subtasks when it is a main task.
// The subtask set is always recomputed, never cached on the document.
type TaskDetail struct {
	models.Task
	Subtasks []models.TaskSummary `json:"subtasks,omitempty"`
}

// Get fetches a task and attaches its subtasks when it is a main task.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*TaskDetail, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &TaskDetail{Task: *t}
	if t.IsMain() {
		subs, err := s.sub.Subtasks(ctx, t.ID)
		if err != nil {
			return nil, err
		}
		detail.Subtasks = subs
	}
	return detail, nil
}

// Update applies a partial update. Parent and project changes dispatch to the
// coordinator path matching the task's current state; everything lands as a
// single merge-update stamped with the acting identity. The returned counts
// combine the task's own update with any subtask bulk update.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, changes *TaskChanges, actor models.Identity) (matched, modified int64, err error) {
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return 0, 0, err
	}
	now := time.Now().UTC()

	fields := changes.fields()
	if changes.Assignee != nil {
		ident, err := s.users.Resolve(ctx, *changes.Assignee)
		if err != nil {
			return 0, 0, err
		}
		fields["assignee"] = ident
	}

	var subMatched, subModified int64
	if current.IsMain() {
		if changes.Project != nil && changes.ParentID == nil && changes.Project.Resolved == nil {
			proj, err := s.projects.Resolve(ctx, *changes.Project)
			if err != nil {
				return 0, 0, err
			}
			changes.Project.Resolved = &proj
		}
		res, err := s.sub.UpdateMain(ctx, current, changes, actor, now)
		if err != nil {
			return 0, 0, err
		}
		for k, v := range res.Fields {
			fields[k] = v
		}
		subMatched, subModified = res.Matched, res.Modified
	} else {
		extra, err := s.sub.MoveSubtask(ctx, current, changes)
		if err != nil {
			return 0, 0, err
		}
		for k, v := range extra {
			fields[k] = v
		}
	}

	fields["last_updated_by"] = actor
	fields["last_updated_at"] = now

	m, mod, err := s.store.Update(ctx, id, fields)
	if err != nil {
		return 0, 0, err
	}
	return m + subMatched, mod + subModified, nil
}

// Delete removes a task. Subtasks cascade per the coordinator rules; the
// returned count covers the target plus its subtasks.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID, confirmed bool) (int64, error) {
	cascaded, err := s.sub.DeleteSubtasks(ctx, id, confirmed)
	if err != nil {
		return cascaded, err
	}
	deleted, err := s.store.Delete(ctx, id)
	if err != nil {
		return cascaded, err
	}
	if deleted == 0 {
		return cascaded, models.NotFoundf("task %s not found", id.Hex())
	}
	return cascaded + deleted, nil
}

// Search returns summaries of every task matching the filter within the
// service's organization scope.
func (s *Service) Search(ctx context.Context, filter models.TaskFilter) ([]models.TaskSummary, error) {
	filter.OrgID = s.orgID
	return s.store.Search(ctx, filter)
}

// CloneResult reports the documents created by a clone.
type CloneResult struct {
	TaskID     primitive.ObjectID   `json:"task_id"`
	SubtaskIDs []primitive.ObjectID `json:"subtask_ids,omitempty"`
}

// Clone copies a task under a fresh identity with a regenerated short code;
// for a main task its subtasks are cloned under the new id as well. Partial
// failure after the main insert is surfaced, not rolled back.
func (s *Service) Clone(ctx context.Context, id primitive.ObjectID, actor models.Identity) (CloneResult, error) {
	src, err := s.store.Get(ctx, id)
	if err != nil {
		return CloneResult{}, err
	}
	now := time.Now().UTC()

	dup := *src
	dup.ID = primitive.NilObjectID
	dup.ShortCode = shortCode(dup.Project.Name)
	dup.CreatedBy = actor
	dup.CreatedAt = now
	dup.LastUpdatedBy = actor
	dup.LastUpdatedAt = now

	newID, err := s.store.Insert(ctx, &dup)
	if err != nil {
		return CloneResult{}, err
	}

	result := CloneResult{TaskID: newID}
	if src.IsMain() {
		ids, err := s.sub.Clone(ctx, src.ID, newID, actor, now)
		if err != nil {
			return result, err
		}
		result.SubtaskIDs = ids
	}
	return result, nil
}
