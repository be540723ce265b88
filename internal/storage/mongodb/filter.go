package mongodb

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskd/internal/models"
)

// buildFilter translates the optional search criteria into a query document.
// The org scope is always present so no query can cross tenants.
func buildFilter(f models.TaskFilter) bson.M {
	q := bson.M{"org_id": f.OrgID}

	if f.ShortCode != "" {
		q["short_code"] = f.ShortCode
	}
	if f.Summary != "" {
		// Quoted so user input is matched literally, not as a pattern.
		q["summary"] = primitive.Regex{Pattern: regexp.QuoteMeta(f.Summary), Options: "i"}
	}
	if f.TaskType != "" {
		q["task_type"] = f.TaskType
	}
	if f.Priority != "" {
		q["priority"] = f.Priority
	}
	if f.AssigneeID != "" {
		q["assignee.id"] = f.AssigneeID
	}
	if f.Label != "" {
		q["labels"] = f.Label
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	if f.ProjectID != "" {
		q["project.id"] = f.ProjectID
	}
	if f.ParentID != nil {
		q["parent_id"] = *f.ParentID
	}
	if f.Location != "" {
		q["location"] = f.Location
	}
	return q
}
