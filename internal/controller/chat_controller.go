package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"sparklink-ai-be/internal/constant"
	"sparklink-ai-be/internal/dto"
	"sparklink-ai-be/internal/pkg/serverutils"
	"sparklink-ai-be/internal/service"
	"sparklink-ai-be/pkg/retrieval/stream"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	CreateSession(ctx *fiber.Ctx) error
	GetSessions(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	UpdateTitle(ctx *fiber.Ctx) error
	DeleteSession(ctx *fiber.Ctx) error
	Stream(ctx *fiber.Ctx) error
	Send(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
}

type chatController struct {
	chatService service.IChatService
}

func NewChatController(chatService service.IChatService) IChatController {
	return &chatController{chatService: chatService}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/session", c.CreateSession)
	h.Get("/sessions", c.GetSessions)
	h.Get("/session/:id/history", c.GetHistory)
	h.Put("/session/:id/title", c.UpdateTitle)
	h.Delete("/session/:id", c.DeleteSession)
	h.Post("/stream", c.Stream)
	h.Post("/send", c.Send)
	h.Post("/cancel/:request_id", c.Cancel)
}

func (c *chatController) CreateSession(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)

	var req dto.CreateSessionRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.CreateSession(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create session", res))
}

func (c *chatController) GetSessions(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)

	res, err := c.chatService.GetSessions(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get sessions", res))
}

func (c *chatController) GetHistory(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)
	limit := ctx.QueryInt("limit", 0)

	res, err := c.chatService.GetHistory(ctx.Context(), userId, id, limit)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success get history", res))
}

func (c *chatController) UpdateTitle(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	var req dto.UpdateSessionTitleRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	req.Id = id

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.chatService.UpdateSessionTitle(ctx.Context(), userId, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update title", nil))
}

func (c *chatController) DeleteSession(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	if err := c.chatService.DeleteSession(ctx.Context(), userId, id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete session", nil))
}

// Stream runs the chat turn over SSE. The handler returns immediately;
// generation continues in the stream writer, which is why the request
// payload is copied out of fiber's reusable buffers first.
func (c *chatController) Stream(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)
	groupId := groupIdFromLocals(ctx)

	var req dto.ChatStreamRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	req.Message = strings.Clone(req.Message)
	req.Strategy = strings.Clone(req.Strategy)

	ctx.Set("Content-Type", "text/event-stream")
	ctx.Set("Cache-Control", "no-cache")
	ctx.Set("Connection", "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	chatService := c.chatService
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		emit := func(ev stream.Event) error {
			data, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return err
			}
			return w.Flush()
		}

		// The fiber context dies with the handler; the stream needs its own.
		if err := chatService.StreamChat(context.Background(), userId, groupId, &req, emit); err != nil {
			data, _ := json.Marshal(stream.Event{Type: stream.EventError, Error: err.Error()})
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.Flush()
		}
	}))

	return nil
}

func (c *chatController) Send(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)
	groupId := groupIdFromLocals(ctx)

	var req dto.SendChatRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.chatService.SendChat(ctx.Context(), userId, groupId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success send chat", res))
}

func (c *chatController) Cancel(ctx *fiber.Ctx) error {
	requestId := ctx.Params("request_id")

	res, err := c.chatService.CancelStream(ctx.Context(), requestId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Stream cancelled", res))
}

func userIdFromLocals(ctx *fiber.Ctx) uuid.UUID {
	userIdStr, _ := ctx.Locals(constant.LocalsUserId).(string)
	userId, _ := uuid.Parse(userIdStr)
	return userId
}

// groupIdFromLocals reads the optional group claim. JWT numbers arrive
// as float64 from the json decoder.
func groupIdFromLocals(ctx *fiber.Ctx) *int64 {
	switch v := ctx.Locals(constant.LocalsGroupId).(type) {
	case float64:
		id := int64(v)
		return &id
	case int64:
		return &v
	default:
		return nil
	}
}
