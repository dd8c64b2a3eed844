package controller

import (
	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/pkg/serverutils"
	"trend-finder-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router)
	GetChat(ctx *fiber.Ctx) error
	SendMessage(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IDiscourseService
	auth    fiber.Handler
}

func NewChatController(service service.IDiscourseService, auth fiber.Handler) IChatController {
	return &chatController{service: service, auth: auth}
}

func (c *chatController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/chat", c.auth)
	h.Get("/", c.GetChat)
	h.Post("/", c.SendMessage)
}

func (c *chatController) GetChat(ctx *fiber.Ctx) error {
	res := c.service.Chat(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Chat transcript", res))
}

func (c *chatController) SendMessage(ctx *fiber.Ctx) error {
	var req dto.SendMessageRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.SendMessage(ctx.UserContext(), serverutils.ClientID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Message sent", res))
}
