package controller

import (
	"bytes"

	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/pkg/serverutils"
	"trend-finder-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type ISpeechController interface {
	RegisterRoutes(r fiber.Router)
	Play(ctx *fiber.Ctx) error
	Stop(ctx *fiber.Ctx) error
	Audio(ctx *fiber.Ctx) error
}

type speechController struct {
	service service.ISpeechService
	auth    fiber.Handler
}

func NewSpeechController(service service.ISpeechService, auth fiber.Handler) ISpeechController {
	return &speechController{service: service, auth: auth}
}

func (c *speechController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/speech", c.auth)
	h.Post("/play", c.Play)
	h.Post("/stop", c.Stop)
	h.Post("/audio", c.Audio)
}

func parseSpeakRequest(ctx *fiber.Ctx) (*dto.SpeakRequest, error) {
	var req dto.SpeakRequest
	if err := ctx.BodyParser(&req); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

// Play streams the speech over the client's websocket.
func (c *speechController) Play(ctx *fiber.Ctx) error {
	req, err := parseSpeakRequest(ctx)
	if err != nil {
		return err
	}

	res, err := c.service.Play(ctx.UserContext(), serverutils.ClientID(ctx), req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Playback started", res))
}

func (c *speechController) Stop(ctx *fiber.Ctx) error {
	res := c.service.Stop(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Playback stopped", res))
}

// Audio returns the speech as a WAV file at the reading speed.
func (c *speechController) Audio(ctx *fiber.Ctx) error {
	req, err := parseSpeakRequest(ctx)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := c.service.WriteWAV(ctx.UserContext(), serverutils.ClientID(ctx), req, &buf); err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "audio/wav")
	ctx.Set(fiber.HeaderContentDisposition, `attachment; filename="speech.wav"`)
	return ctx.Send(buf.Bytes())
}
