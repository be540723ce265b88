package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskd/internal/models"
	"taskd/internal/service"
)

// Server provides the HTTP handlers for the task API.
type Server struct {
	engine *gin.Engine
	svc    *service.Service
	users  models.IdentityResolver
	logger *slog.Logger
}

// New constructs the HTTP server with routes and middleware configured.
func New(svc *service.Service, users models.IdentityResolver, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestID())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/healthz"))

	srv := &Server{
		engine: router,
		svc:    svc,
		users:  users,
		logger: logger,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all API handlers together.
func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	tasks := s.engine.Group("/tasks")
	{
		tasks.GET("", s.handleSearchTasks)
		tasks.POST("", s.handleCreateTask)
		tasks.GET(":id", s.handleGetTask)
		tasks.PUT(":id", s.handleUpdateTask)
		tasks.DELETE(":id", s.handleDeleteTask)
		tasks.POST(":id/clone", s.handleCloneTask)
	}
}

// requestID stamps every request with an id echoed in the response header.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-Id", id)
		c.Next()
	}
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// actor resolves the acting identity from the X-User-Id header, falling back
// to the system identity for unattributed requests.
func (s *Server) actor(c *gin.Context) (models.Identity, bool) {
	userID := c.GetHeader("X-User-Id")
	if userID == "" {
		return models.SystemIdentity, true
	}
	ident, err := s.users.Resolve(c.Request.Context(), userID)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return models.Identity{}, false
	}
	return ident, true
}

// parseID converts a path parameter to an object id with error handling.
func parseID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// statusFor maps service error kinds to HTTP statuses.
func statusFor(err error) int {
	switch models.KindOf(err) {
	case models.KindNotFound:
		return http.StatusNotFound
	case models.KindInvalidTransition:
		return http.StatusUnprocessableEntity
	case models.KindPreconditionRequired:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// respondSuccess wraps a payload in a JSON response for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}
