package controller

import (
	"trend-finder-be/internal/dto"
	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/internal/pkg/serverutils"
	"trend-finder-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAuthController interface {
	RegisterRoutes(r fiber.Router)
	Login(ctx *fiber.Ctx) error
	Logout(ctx *fiber.Ctx) error
	Me(ctx *fiber.Ctx) error
	GoogleLogin(ctx *fiber.Ctx) error
	GoogleCallback(ctx *fiber.Ctx) error
}

type authController struct {
	service     service.IAuthService
	auth        fiber.Handler
	frontendURL string
	logger      logger.ILogger
}

func NewAuthController(service service.IAuthService, auth fiber.Handler, frontendURL string, log logger.ILogger) IAuthController {
	return &authController{
		service:     service,
		auth:        auth,
		frontendURL: frontendURL,
		logger:      log,
	}
}

func (c *authController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/auth")
	h.Post("/login", c.auth, c.Login)
	h.Post("/logout", c.auth, c.Logout)
	h.Get("/me", c.auth, c.Me)
	h.Get("/google", c.auth, c.GoogleLogin)
	// Google redirects the browser here; the device is recovered from the state.
	h.Get("/google/callback", c.GoogleCallback)
}

func (c *authController) Login(ctx *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if err := serverutils.ValidateRequest(&req); err != nil {
		return err
	}

	res, err := c.service.Login(ctx.UserContext(), serverutils.ClientID(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Signed in", res))
}

func (c *authController) Logout(ctx *fiber.Ctx) error {
	res := c.service.Logout(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Signed out", res))
}

func (c *authController) Me(ctx *fiber.Ctx) error {
	res := c.service.Me(ctx.UserContext(), serverutils.ClientID(ctx))
	return ctx.JSON(serverutils.SuccessResponse("Current identity", res))
}

func (c *authController) GoogleLogin(ctx *fiber.Ctx) error {
	url, err := c.service.GoogleLoginURL(serverutils.ClientID(ctx))
	if err != nil {
		return err
	}
	return ctx.Redirect(url)
}

// GoogleCallback always lands the browser back on the frontend; the login
// query parameter tells it how the flow ended.
func (c *authController) GoogleCallback(ctx *fiber.Ctx) error {
	code := ctx.Query("code")
	state := ctx.Query("state")
	if code == "" || state == "" {
		return ctx.Redirect(c.frontendURL+"/?login=failed", fiber.StatusTemporaryRedirect)
	}

	clientID, _, err := c.service.HandleGoogleCallback(ctx.UserContext(), state, code)
	if err != nil {
		c.logger.Warn("AuthController", "Google sign-in failed", map[string]interface{}{"error": err.Error()})
		return ctx.Redirect(c.frontendURL+"/?login=failed", fiber.StatusTemporaryRedirect)
	}

	c.logger.Info("AuthController", "Google sign-in completed", map[string]interface{}{"client_id": clientID})
	return ctx.Redirect(c.frontendURL+"/?login=google", fiber.StatusTemporaryRedirect)
}
