package controller

import (
	"support-chatbot-be/internal/pkg/logger"
	"support-chatbot-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
)

type IOpsController interface {
	RegisterRoutes(r fiber.Router)
	GetLogs(ctx *fiber.Ctx) error
	GetLogById(ctx *fiber.Ctx) error
}

type opsController struct {
	logger logger.ILogger
}

func NewOpsController(log logger.ILogger) IOpsController {
	return &opsController{
		logger: log,
	}
}

func (c *opsController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/ops/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Get("logs", c.GetLogs)
	h.Get("logs/:id", c.GetLogById)
}

func (c *opsController) GetLogs(ctx *fiber.Ctx) error {
	level := ctx.Query("level", "")
	limit := ctx.QueryInt("limit", 50)
	offset := ctx.QueryInt("offset", 0)

	logs, err := c.logger.GetLogs(level, limit, offset)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show logs", logs))
}

func (c *opsController) GetLogById(ctx *fiber.Ctx) error {
	id := ctx.Params("id")

	entry, err := c.logger.GetLogById(id)
	if err != nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Log not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show log", entry))
}
