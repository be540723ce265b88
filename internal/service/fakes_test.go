package service

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskd/internal/models"
)

// fakeStore is an in-memory TaskStore preserving insertion order. The on*
// hooks run before the corresponding read or write so tests can interleave
// concurrent-looking mutations.
type fakeStore struct {
	order []primitive.ObjectID
	docs  map[primitive.ObjectID]models.Task

	onSubtaskDocs    func()
	onDeleteSubtasks func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{docs: map[primitive.ObjectID]models.Task{}}
}

func (f *fakeStore) add(t models.Task) primitive.ObjectID {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	f.order = append(f.order, t.ID)
	f.docs[t.ID] = t
	return t.ID
}

func (f *fakeStore) remove(id primitive.ObjectID) {
	delete(f.docs, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
}

func (f *fakeStore) children(parentID primitive.ObjectID) []models.Task {
	var out []models.Task
	for _, id := range f.order {
		t := f.docs[id]
		if t.ParentID != nil && *t.ParentID == parentID {
			out = append(out, t)
		}
	}
	return out
}

func summarize(t models.Task) models.TaskSummary {
	return models.TaskSummary{
		ID:        t.ID,
		ParentID:  t.ParentID,
		Status:    t.Status,
		Summary:   t.Summary,
		Assignee:  t.Assignee,
		ShortCode: t.ShortCode,
		Priority:  t.Priority,
	}
}

func (f *fakeStore) Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	t, ok := f.docs[id]
	if !ok {
		return nil, models.NotFoundf("task %s not found", id.Hex())
	}
	return &t, nil
}

func (f *fakeStore) Search(ctx context.Context, filter models.TaskFilter) ([]models.TaskSummary, error) {
	var out []models.TaskSummary
	for _, id := range f.order {
		t := f.docs[id]
		if t.OrgID != filter.OrgID {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		if filter.ProjectID != "" && t.Project.ID != filter.ProjectID {
			continue
		}
		if filter.Summary != "" && !strings.Contains(strings.ToLower(t.Summary), strings.ToLower(filter.Summary)) {
			continue
		}
		if filter.ParentID != nil && (t.ParentID == nil || *t.ParentID != *filter.ParentID) {
			continue
		}
		out = append(out, summarize(t))
	}
	return out, nil
}

func (f *fakeStore) Subtasks(ctx context.Context, parentID primitive.ObjectID, limit int64) ([]models.TaskSummary, error) {
	var out []models.TaskSummary
	for _, t := range f.children(parentID) {
		out = append(out, summarize(t))
		if limit > 0 && int64(len(out)) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) SubtaskDocs(ctx context.Context, parentID primitive.ObjectID) ([]models.Task, error) {
	if f.onSubtaskDocs != nil {
		f.onSubtaskDocs()
	}
	return f.children(parentID), nil
}

func (f *fakeStore) CountSubtasks(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	return int64(len(f.children(parentID))), nil
}

func (f *fakeStore) Insert(ctx context.Context, t *models.Task) (primitive.ObjectID, error) {
	return f.add(*t), nil
}

func (f *fakeStore) InsertMany(ctx context.Context, tasks []models.Task) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, 0, len(tasks))
	for _, t := range tasks {
		ids = append(ids, f.add(t))
	}
	return ids, nil
}

func (f *fakeStore) Update(ctx context.Context, id primitive.ObjectID, fields map[string]any) (int64, int64, error) {
	t, ok := f.docs[id]
	if !ok {
		return 0, 0, nil
	}
	applyFields(&t, fields)
	f.docs[id] = t
	return 1, 1, nil
}

func (f *fakeStore) UpdateSubtasks(ctx context.Context, parentID primitive.ObjectID, fields map[string]any) (int64, int64, error) {
	var n int64
	for _, t := range f.children(parentID) {
		applyFields(&t, fields)
		f.docs[t.ID] = t
		n++
	}
	return n, n, nil
}

func (f *fakeStore) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := f.docs[id]; !ok {
		return 0, nil
	}
	f.remove(id)
	return 1, nil
}

func (f *fakeStore) DeleteSubtasks(ctx context.Context, parentID primitive.ObjectID) (int64, error) {
	if f.onDeleteSubtasks != nil {
		f.onDeleteSubtasks()
	}
	var n int64
	for _, t := range f.children(parentID) {
		f.remove(t.ID)
		n++
	}
	return n, nil
}

func applyFields(t *models.Task, fields map[string]any) {
	for k, v := range fields {
		switch k {
		case "summary":
			t.Summary = v.(string)
		case "task_type":
			t.TaskType = v.(string)
		case "priority":
			t.Priority = v.(string)
		case "status":
			t.Status = v.(string)
		case "labels":
			t.Labels = v.([]string)
		case "location":
			t.Location = v.(string)
		case "assignee":
			ident := v.(models.Identity)
			t.Assignee = &ident
		case "parent_id":
			id := v.(primitive.ObjectID)
			t.ParentID = &id
		case "project":
			t.Project = v.(models.Project)
		case "last_updated_by":
			t.LastUpdatedBy = v.(models.Identity)
		case "last_updated_at":
			t.LastUpdatedAt = v.(time.Time)
		}
	}
}

// fakeProjects resolves any named reference to a deterministic descriptor.
type fakeProjects struct{}

func (fakeProjects) Resolve(ctx context.Context, ref models.ProjectRef) (models.Project, error) {
	if ref.Resolved != nil {
		return *ref.Resolved, nil
	}
	if ref.ID != "" {
		return models.Project{ID: ref.ID, Name: "project-" + ref.ID}, nil
	}
	if ref.Name == "" {
		return models.Project{}, models.InvalidTransitionf("project reference must carry an id or name")
	}
	return models.Project{ID: "p-" + strings.ToLower(ref.Name), Name: ref.Name}, nil
}

// fakeUsers resolves from a fixed directory.
type fakeUsers struct {
	known map[string]models.Identity
}

func (f fakeUsers) Resolve(ctx context.Context, userID string) (models.Identity, error) {
	ident, ok := f.known[userID]
	if !ok {
		return models.Identity{}, models.NotFoundf("user %s not found", userID)
	}
	return ident, nil
}
