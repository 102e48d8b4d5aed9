package sync

import (
	"errors"

	"dirsync/core/bean"
	"dirsync/core/logger"
	"dirsync/core/reconcile"
	"dirsync/core/syncoptions"
	"dirsync/core/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for synchronization tasks.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the sync routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/sync/tasks")
	group.Get("/", h.HandleListTasks)
	group.Get("/:task", h.HandleGetTask)
	group.Post("/:task/preview", h.HandlePreview)
	group.Post("/:task/run", h.HandleRun)
	group.Get("/:task/audit", h.HandleAuditLogs)
	group.Delete("/:task/audit", h.HandlePruneAudit)
	group.Delete("/:task/cache", h.HandleInvalidate)
}

// errorStatus maps service errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, syncoptions.ErrTaskNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrNoConnectors), errors.Is(err, ErrNoAudit):
		return fiber.StatusNotImplemented
	case reconcile.IsKind(err, reconcile.KindConfiguration):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// HandleListTasks returns the available task names.
func (h *Handler) HandleListTasks(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	names, err := h.service.ListTasks(c.Context())
	if err != nil {
		l.Error("Failed to list tasks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(fiber.Map{"tasks": names})
}

// HandleGetTask returns the policy of a task.
func (h *Handler) HandleGetTask(c *fiber.Ctx) error {
	name := c.Params("task")
	if !syncoptions.ValidTaskName(name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task name"})
	}
	l := logger.WithTask(logger.WithRayID(h.service.logger, c), name)

	task, err := h.service.GetTask(c.Context(), name)
	if err != nil {
		l.Warn("Failed to load task", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(task)
}

// HandlePreview computes the operation for the posted source and destination.
// The operation is null when the entry is already synchronized.
func (h *Handler) HandlePreview(c *fiber.Ctx) error {
	name := c.Params("task")
	if !syncoptions.ValidTaskName(name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task name"})
	}
	l := logger.WithTask(logger.WithRayID(h.service.logger, c), name)

	var req PreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body", "details": err.Error()})
	}
	for _, b := range []*bean.Bean{req.Source, req.Destination} {
		if b == nil {
			continue
		}
		if err := b.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	op, err := h.service.Preview(c.Context(), name, req)
	if err != nil {
		l.Warn("Preview failed", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(fiber.Map{"operation": op})
}

// HandleRun plans the task and applies it unless dry_run is set.
func (h *Handler) HandleRun(c *fiber.Ctx) error {
	name := c.Params("task")
	if !syncoptions.ValidTaskName(name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task name"})
	}
	l := logger.WithTask(logger.WithRayID(h.service.logger, c), name)

	opts := RunOptions{
		DryRun: utils.ToBool(c.Query("dry_run")),
		Clean:  utils.ToBool(c.Query("clean")),
	}
	l.Info("Task run requested", zap.Bool("dry_run", opts.DryRun), zap.Bool("clean", opts.Clean))

	result, err := h.service.Run(c.Context(), name, opts)
	if err != nil {
		l.Error("Task run failed", zap.Error(err))
		body := fiber.Map{"error": err.Error()}
		if result != nil {
			body["result"] = result
		}
		return c.Status(errorStatus(err)).JSON(body)
	}
	return c.JSON(result)
}

// HandleAuditLogs lists the audit objects of a task.
func (h *Handler) HandleAuditLogs(c *fiber.Ctx) error {
	name := c.Params("task")
	if !syncoptions.ValidTaskName(name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task name"})
	}
	l := logger.WithTask(logger.WithRayID(h.service.logger, c), name)

	names, err := h.service.AuditLogs(c.Context(), name, utils.ToInt(c.Query("limit")))
	if err != nil {
		l.Error("Failed to list audit logs", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	if names == nil {
		names = []string{}
	}
	return c.JSON(fiber.Map{"task": name, "audit": names})
}

// HandlePruneAudit deletes old audit objects, keeping the newest ?keep=N.
func (h *Handler) HandlePruneAudit(c *fiber.Ctx) error {
	name := c.Params("task")
	if !syncoptions.ValidTaskName(name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task name"})
	}
	l := logger.WithTask(logger.WithRayID(h.service.logger, c), name)

	deleted, err := h.service.PruneAudit(c.Context(), name, utils.ToInt(c.Query("keep")))
	if err != nil {
		l.Error("Failed to prune audit logs", zap.Error(err))
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error(), "deleted": deleted})
	}
	return c.JSON(fiber.Map{"task": name, "deleted": deleted})
}

// HandleInvalidate drops the cached policy of a task.
func (h *Handler) HandleInvalidate(c *fiber.Ctx) error {
	name := c.Params("task")
	if !syncoptions.ValidTaskName(name) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid task name"})
	}
	h.service.InvalidateTask(name)
	return c.SendStatus(fiber.StatusNoContent)
}
