package controller

import (
	"io"
	"strings"

	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/pkg/serverutils"
	"trend-finder-be/internal/service"
	"trend-finder-be/pkg/analysis"

	"github.com/gofiber/fiber/v2"
)

type IAnalysisController interface {
	RegisterRoutes(r fiber.Router)
	Analyze(ctx *fiber.Ctx) error
	Current(ctx *fiber.Ctx) error
	GetHistory(ctx *fiber.Ctx) error
	SelectHistory(ctx *fiber.Ctx) error
	ClearHistory(ctx *fiber.Ctx) error
	GetFavorites(ctx *fiber.Ctx) error
	ToggleFavorite(ctx *fiber.Ctx) error
	SelectFavorite(ctx *fiber.Ctx) error
	ClearFavorites(ctx *fiber.Ctx) error
}

type analysisController struct {
	service service.IDiscourseService
	auth    fiber.Handler
}

func NewAnalysisController(service service.IDiscourseService, auth fiber.Handler) IAnalysisController {
	return &analysisController{service: service, auth: auth}
}

func (c *analysisController) RegisterRoutes(r fiber.Router) {
	a := r.Group("/analysis", c.auth)
	a.Post("/", c.Analyze)
	a.Get("/current", c.Current)

	h := r.Group("/history", c.auth)
	h.Get("/", c.GetHistory)
	h.Delete("/", c.ClearHistory)
	h.Post("/select", c.SelectHistory)

	f := r.Group("/favorites", c.auth)
	f.Get("/", c.GetFavorites)
	f.Delete("/", c.ClearFavorites)
	f.Post("/toggle", c.ToggleFavorite)
	f.Post("/:id/select", c.SelectFavorite)
}

// Analyze accepts JSON {"text"} or a multipart form with "text" and an
// optional "image" file.
func (c *analysisController) Analyze(ctx *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	var image []byte
	if strings.HasPrefix(ctx.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		if fh, err := ctx.FormFile("image"); err == nil {
			f, err := fh.Open()
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Unreadable image")
			}
			defer f.Close()
			image, err = io.ReadAll(io.LimitReader(f, analysis.MaxImageBytes+1))
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "Unreadable image")
			}
		}
	}

	res, err := c.service.Analyze(ctx.UserContext(), serverutils.ClientID(ctx), &req, image)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Analysis completed", res))
}

func (c *analysisController) Current(ctx *fiber.Ctx) error {
	res := c.service.Current(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Current analysis", res))
}

func (c *analysisController) GetHistory(ctx *fiber.Ctx) error {
	res := c.service.History(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("History", res))
}

// SelectHistory re-runs the analysis of a history entry.
func (c *analysisController) SelectHistory(ctx *fiber.Ctx) error {
	var req dto.SelectHistoryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.SelectHistory(ctx.UserContext(), serverutils.ClientID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Analysis completed", res))
}

func (c *analysisController) ClearHistory(ctx *fiber.Ctx) error {
	c.service.ClearHistory(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse[any]("History cleared", nil))
}

func (c *analysisController) GetFavorites(ctx *fiber.Ctx) error {
	res := c.service.Favorites(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Favorites", res))
}

func (c *analysisController) ToggleFavorite(ctx *fiber.Ctx) error {
	res, err := c.service.ToggleFavorite(ctx.UserContext(), serverutils.ClientID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Favorite toggled", res))
}

func (c *analysisController) SelectFavorite(ctx *fiber.Ctx) error {
	res, err := c.service.SelectFavorite(ctx.UserContext(), serverutils.ClientID(ctx), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Favorite selected", res))
}

func (c *analysisController) ClearFavorites(ctx *fiber.Ctx) error {
	c.service.ClearFavorites(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse[any]("Favorites cleared", nil))
}
