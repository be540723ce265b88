package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the resolved display representation of a user reference.
type Identity struct {
	ID          string `bson:"id" json:"id"`
	DisplayName string `bson:"display_name" json:"display_name"`
}

// SystemIdentity attributes writes that carry no authenticated user.
var SystemIdentity = Identity{ID: "system", DisplayName: "system"}

// Project is the canonical descriptor stamped onto tasks.
type Project struct {
	ID   string `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// ProjectRef is a client-supplied project reference prior to resolution.
// Either field may be set; Resolved is populated exactly once at the service
// boundary and is the only form the coordinator ever reads.
type ProjectRef struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Resolved *Project
}

// IsZero reports whether the reference carries no usable value.
func (r ProjectRef) IsZero() bool {
	return r.ID == "" && r.Name == "" && r.Resolved == nil
}

// Task is a single task document. ParentID is nil for a main task and set for
// a subtask; a subtask's Project always mirrors its parent's.
type Task struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	OrgID         string              `bson:"org_id" json:"org_id"`
	ParentID      *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Project       Project             `bson:"project" json:"project"`
	ShortCode     string              `bson:"short_code" json:"short_code"`
	Summary       string              `bson:"summary" json:"summary"`
	TaskType      string              `bson:"task_type" json:"task_type"`
	Priority      string              `bson:"priority" json:"priority"`
	Status        string              `bson:"status" json:"status"`
	Labels        []string            `bson:"labels,omitempty" json:"labels,omitempty"`
	Location      string              `bson:"location,omitempty" json:"location,omitempty"`
	Assignee      *Identity           `bson:"assignee,omitempty" json:"assignee,omitempty"`
	CreatedBy     Identity            `bson:"created_by" json:"created_by"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	LastUpdatedBy Identity            `bson:"last_updated_by" json:"last_updated_by"`
	LastUpdatedAt time.Time           `bson:"last_updated_at" json:"last_updated_at"`
}

// IsMain reports whether the task can own subtasks.
func (t *Task) IsMain() bool {
	return t.ParentID == nil
}

// TaskSummary is the projected shape returned by subtask listings and search.
type TaskSummary struct {
	ID        primitive.ObjectID  `bson:"_id" json:"id"`
	ParentID  *primitive.ObjectID `bson:"parent_id,omitempty" json:"parent_id,omitempty"`
	Status    string              `bson:"status" json:"status"`
	Summary   string              `bson:"summary" json:"summary"`
	Assignee  *Identity           `bson:"assignee,omitempty" json:"assignee,omitempty"`
	ShortCode string              `bson:"short_code" json:"short_code"`
	Priority  string              `bson:"priority" json:"priority"`
}

// TaskFilter holds the optional search criteria for task lookups. Empty
// fields are not matched; OrgID is always applied.
type TaskFilter struct {
	OrgID      string
	ShortCode  string
	Summary    string // case-insensitive substring
	TaskType   string
	Priority   string
	AssigneeID string
	Label      string
	Status     string
	ProjectID  string
	ParentID   *primitive.ObjectID
	Location   string
}
