package project

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"taskd/internal/models"
)

// Resolver canonicalizes project references against the projects collection,
// creating a project when a name is seen for the first time.
type Resolver struct {
	projects *mongo.Collection
	logger   *slog.Logger
}

// NewResolver builds a resolver over the given projects collection.
func NewResolver(projects *mongo.Collection, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{projects: projects, logger: logger}
}

type document struct {
	ID   primitive.ObjectID `bson:"_id,omitempty"`
	Name string             `bson:"name"`
}

// Resolve returns the canonical descriptor for ref. An id reference must
// exist; a name reference is looked up case-insensitively and created when
// absent.
func (r *Resolver) Resolve(ctx context.Context, ref models.ProjectRef) (models.Project, error) {
	if ref.Resolved != nil {
		return *ref.Resolved, nil
	}

	if ref.ID != "" {
		oid, err := primitive.ObjectIDFromHex(ref.ID)
		if err != nil {
			return models.Project{}, models.NotFoundf("project %s not found", ref.ID)
		}
		var doc document
		err = r.projects.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Project{}, models.NotFoundf("project %s not found", ref.ID)
		}
		if err != nil {
			return models.Project{}, fmt.Errorf("get project: %w", err)
		}
		return models.Project{ID: doc.ID.Hex(), Name: doc.Name}, nil
	}

	name := strings.TrimSpace(ref.Name)
	if name == "" {
		return models.Project{}, models.InvalidTransitionf("project reference must carry an id or name")
	}

	var doc document
	err := r.projects.FindOne(ctx, bson.M{
		"name": primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"},
	}).Decode(&doc)
	if err == nil {
		return models.Project{ID: doc.ID.Hex(), Name: doc.Name}, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return models.Project{}, fmt.Errorf("find project: %w", err)
	}

	res, err := r.projects.InsertOne(ctx, document{Name: name})
	if err != nil {
		return models.Project{}, fmt.Errorf("create project: %w", err)
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return models.Project{}, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	r.logger.Info("created project", slog.String("id", id.Hex()), slog.String("name", name))
	return models.Project{ID: id.Hex(), Name: name}, nil
}
