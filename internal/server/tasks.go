package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"taskd/internal/models"
	"taskd/internal/service"
)

type projectRefBody struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type createTaskRequest struct {
	Summary  string          `json:"summary" binding:"required"`
	TaskType string          `json:"task_type"`
	Priority string          `json:"priority"`
	Status   string          `json:"status"`
	Labels   []string        `json:"labels"`
	Location string          `json:"location"`
	Assignee string          `json:"assignee"`
	ParentID string          `json:"parent_id"`
	Project  *projectRefBody `json:"project"`
}

type updateTaskRequest struct {
	Summary  *string         `json:"summary"`
	TaskType *string         `json:"task_type"`
	Priority *string         `json:"priority"`
	Status   *string         `json:"status"`
	Labels   *[]string       `json:"labels"`
	Location *string         `json:"location"`
	Assignee *string         `json:"assignee"`
	ParentID *string         `json:"parent_id"`
	Project  *projectRefBody `json:"project"`
}

// handleSearchTasks filters tasks by whichever query parameters are present.
func (s *Server) handleSearchTasks(c *gin.Context) {
	filter := models.TaskFilter{
		ShortCode:  c.Query("short_code"),
		Summary:    c.Query("summary"),
		TaskType:   c.Query("task_type"),
		Priority:   c.Query("priority"),
		AssigneeID: c.Query("assignee"),
		Label:      c.Query("label"),
		Status:     c.Query("status"),
		ProjectID:  c.Query("project"),
		Location:   c.Query("location"),
	}
	if raw := c.Query("parent_id"); raw != "" {
		parentID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})
			return
		}
		filter.ParentID = &parentID
	}

	results, err := s.svc.Search(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	if results == nil {
		results = []models.TaskSummary{}
	}
	respondSuccess(c, http.StatusOK, results)
}

// handleCreateTask inserts a new main task or subtask.
func (s *Server) handleCreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	create := service.CreateRequest{
		Summary:  req.Summary,
		TaskType: req.TaskType,
		Priority: req.Priority,
		Status:   req.Status,
		Labels:   req.Labels,
		Location: req.Location,
		Assignee: req.Assignee,
	}
	if req.Project != nil {
		create.Project = models.ProjectRef{ID: req.Project.ID, Name: req.Project.Name}
	}
	if req.ParentID != "" {
		parentID, err := primitive.ObjectIDFromHex(req.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})
			return
		}
		create.ParentID = &parentID
	}

	actor, ok := s.actor(c)
	if !ok {
		return
	}

	id, err := s.svc.Create(c.Request.Context(), create, actor)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{"task_id": id})
}

// handleGetTask fetches a task with its subtasks attached when it is a main
// task.
func (s *Server) handleGetTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := s.svc.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, detail)
}

// handleUpdateTask applies a partial update; at least one field is required.
func (s *Server) handleUpdateTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	changes := service.TaskChanges{
		Summary:  req.Summary,
		TaskType: req.TaskType,
		Priority: req.Priority,
		Status:   req.Status,
		Labels:   req.Labels,
		Location: req.Location,
		Assignee: req.Assignee,
	}
	if req.Project != nil {
		changes.Project = &models.ProjectRef{ID: req.Project.ID, Name: req.Project.Name}
	}
	if req.ParentID != nil {
		parentID, err := primitive.ObjectIDFromHex(*req.ParentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid parent_id"})
			return
		}
		changes.ParentID = &parentID
	}
	if changes.Empty() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "no fields to update"})
		return
	}

	actor, ok := s.actor(c)
	if !ok {
		return
	}

	matched, modified, err := s.svc.Update(c.Request.Context(), id, &changes, actor)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"matched": matched, "modified": modified})
}

// handleDeleteTask removes a task; subtasks cascade only with subtasks=true.
func (s *Server) handleDeleteTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	confirmed := false
	if raw := c.Query("subtasks"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subtasks flag"})
			return
		}
		confirmed = v
	}

	deleted, err := s.svc.Delete(c.Request.Context(), id, confirmed)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"deleted": deleted})
}

// handleCloneTask duplicates a task; a main task's subtasks come with it.
func (s *Server) handleCloneTask(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	actor, ok := s.actor(c)
	if !ok {
		return
	}

	result, err := s.svc.Clone(c.Request.Context(), id, actor)
	if err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusCreated, result)
}
