package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"support-chatbot-be/internal/dto"
	"support-chatbot-be/internal/pkg/serverutils"
	"support-chatbot-be/internal/service"
	internalWS "support-chatbot-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	Embed(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	LatestRoom(ctx *fiber.Ctx) error
	DeleteHistory(ctx *fiber.Ctx) error
	Feedback(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService  service.IChatService
	embedService service.IEmbedService
	hub          *internalWS.Hub
}

func NewChatController(chatService service.IChatService, embedService service.IEmbedService, hub *internalWS.Hub) IChatController {
	return &chatController{
		chatService:  chatService,
		embedService: embedService,
		hub:          hub,
	}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Post("stream", c.Stream)
	h.Post("embed", c.Embed)
	h.Get("history/latest", c.LatestRoom)
	h.Get("history/:roomId", c.History)
	h.Delete("history/:roomId", c.DeleteHistory)
	h.Post("feedback", c.Feedback)
	h.Get("ws/:roomId", c.ServeWs)
}

// Stream answers a question over SSE. The response is written by a stream
// writer after this handler returns, so the request payload is captured first
// and the pipeline runs on a detached context.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	var req dto.ChatStreamRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	chatService := c.chatService
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		emit := func(event string, data interface{}) error {
			payload, err := json.Marshal(data)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
				return err
			}
			return w.Flush()
		}

		// Errors inside the stream are already reported as error events;
		// transport failures just end the stream.
		_ = chatService.Stream(context.Background(), &req, emit)
	}))

	return nil
}

// Embed advances an embedding session without streaming, for clients that
// drive the session over plain requests.
func (c *chatController) Embed(ctx *fiber.Ctx) error {
	var req dto.EmbedMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.embedService.HandleMessage(ctx.Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success process embed message", res))
}

func (c *chatController) History(ctx *fiber.Ctx) error {
	roomId := ctx.Params("roomId")
	chatbotId := ctx.Query("chatbot_id", "")

	res, err := c.chatService.GetHistory(ctx.Context(), chatbotId, roomId)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Conversation not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show conversation", res))
}

func (c *chatController) LatestRoom(ctx *fiber.Ctx) error {
	chatbotId := ctx.Query("chatbot_id", "")
	userEmail := ctx.Query("user_email", "")
	if userEmail == "" {
		return fiber.NewError(fiber.StatusBadRequest, "user_email is required")
	}

	res, err := c.chatService.GetLatestRoom(ctx.Context(), chatbotId, userEmail)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "No conversations found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show latest conversation", res))
}

func (c *chatController) DeleteHistory(ctx *fiber.Ctx) error {
	roomId := ctx.Params("roomId")
	chatbotId := ctx.Query("chatbot_id", "")

	if err := c.chatService.DeleteHistory(ctx.Context(), chatbotId, roomId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse[any]("Success delete conversation", nil))
}

func (c *chatController) Feedback(ctx *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SubmitFeedback(ctx.Context(), &req)
	if err != nil {
		return err
	}
	if res == nil {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "Answer not found"))
	}

	return ctx.JSON(serverutils.SuccessResponse("Success submit feedback", res))
}

// ServeWs joins the caller to their room's event feed: token streams, stage
// updates and upload status all arrive here.
func (c *chatController) ServeWs(ctx *fiber.Ctx) error {
	roomId := ctx.Params("roomId")
	if roomId == "" {
		return fiber.NewError(fiber.StatusBadRequest, "roomId is required")
	}

	if websocket.IsWebSocketUpgrade(ctx) {
		hub := c.hub
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(hub, conn, roomId)
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
