package controller

import (
	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/pkg/serverutils"
	"trend-finder-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPreferenceController interface {
	RegisterRoutes(r fiber.Router)
	GetPreferences(ctx *fiber.Ctx) error
	UpdatePreferences(ctx *fiber.Ctx) error
}

type preferenceController struct {
	service service.IPreferenceService
	auth    fiber.Handler
}

func NewPreferenceController(service service.IPreferenceService, auth fiber.Handler) IPreferenceController {
	return &preferenceController{service: service, auth: auth}
}

func (c *preferenceController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/preferences", c.auth)
	h.Get("/", c.GetPreferences)
	h.Patch("/", c.UpdatePreferences)
}

func (c *preferenceController) GetPreferences(ctx *fiber.Ctx) error {
	res := c.service.Get(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Preferences", res))
}

func (c *preferenceController) UpdatePreferences(ctx *fiber.Ctx) error {
	var req dto.UpdatePreferencesRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.Update(ctx.UserContext(), serverutils.ClientID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Preferences updated", res))
}
