package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ErlanBelekov/taskapi/internal/domain"
	"github.com/ErlanBelekov/taskapi/internal/transport/http/middleware"
	"github.com/ErlanBelekov/taskapi/internal/usecase"
)

type taskUsecaser interface {
	CreateTask(ctx context.Context, input usecase.CreateTaskInput) (*domain.Task, error)
	ListTasks(ctx context.Context, userID int64) ([]*domain.Task, error)
	GetTask(ctx context.Context, id int64) (*domain.Task, error)
	UpdateTask(ctx context.Context, patch domain.TaskPatch) (*domain.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type TaskHandler struct {
	uc     taskUsecaser
	logger *slog.Logger
}

func NewTaskHandler(uc taskUsecaser, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{uc: uc, logger: logger.With("component", "task_handler")}
}

type createTaskRequest struct {
	Name        string `json:"name"        binding:"required,max=256"`
	Description string `json:"description" binding:"required"`
}

type updateTaskRequest struct {
	ID          int64   `json:"id"`
	Name        *string `json:"name"        binding:"omitempty,max=256"`
	Description *string `json:"description"`
	Completed   *bool   `json:"completed"`
}

type taskResponse struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Completed   bool      `json:"completed"`
	CreatedAt   time.Time `json:"createdAt"`
	UserID      int64     `json:"userId"`
}

func toTaskResponse(t *domain.Task) taskResponse {
	return taskResponse{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt,
		UserID:      t.UserID,
	}
}

// GET /tasks
func (h *TaskHandler) List(ctx *gin.Context) {
	user := middleware.CurrentUser(ctx)

	tasks, err := h.uc.ListTasks(ctx.Request.Context(), user.ID)
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "list tasks", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	items := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		items[i] = toTaskResponse(t)
	}
	ctx.JSON(http.StatusOK, items)
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidTaskID})
		return
	}

	task, err := h.uc.GetTask(ctx.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errTaskNotFound})
			return
		}
		h.logger.ErrorContext(ctx.Request.Context(), "get task", "task_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toTaskResponse(task))
}

// POST /tasks
func (h *TaskHandler) Create(ctx *gin.Context) {
	var req createTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.uc.CreateTask(ctx.Request.Context(), usecase.CreateTaskInput{
		UserID:      middleware.CurrentUser(ctx).ID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.logger.ErrorContext(ctx.Request.Context(), "create task", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Header("Location", "/tasks/"+strconv.FormatInt(task.ID, 10))
	ctx.JSON(http.StatusCreated, toTaskResponse(task))
}

// PUT /tasks
// Omitted fields keep their stored value. A missing id is 0, which matches no task.
func (h *TaskHandler) Update(ctx *gin.Context) {
	var req updateTaskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task, err := h.uc.UpdateTask(ctx.Request.Context(), domain.TaskPatch{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errInvalidTaskID})
			return
		}
		h.logger.ErrorContext(ctx.Request.Context(), "update task", "task_id", req.ID, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.JSON(http.StatusOK, toTaskResponse(task))
}

// DELETE /tasks?id=<id>
// A missing id is 0, which matches no task.
func (h *TaskHandler) Delete(ctx *gin.Context) {
	id, err := strconv.ParseInt(ctx.DefaultQuery("id", "0"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": errInvalidTaskID})
		return
	}

	if err := h.uc.DeleteTask(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": errInvalidTaskID})
			return
		}
		h.logger.ErrorContext(ctx.Request.Context(), "delete task", "task_id", id, "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	ctx.Status(http.StatusOK)
}
