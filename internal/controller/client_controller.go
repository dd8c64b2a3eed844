package controller

import (
	"strings"

	"trend-finder-be/internal/pkg/logger"
	"trend-finder-be/internal/pkg/serverutils"
	"trend-finder-be/internal/service"
	internalWS "trend-finder-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// EventSnapshot is the first message of every socket: the full client state.
const EventSnapshot = "SNAPSHOT"

type IClientController interface {
	RegisterRoutes(r fiber.Router)
	Issue(ctx *fiber.Ctx) error
	Snapshot(ctx *fiber.Ctx) error
	ServeWs(ctx *fiber.Ctx) error
}

type clientController struct {
	service    service.IClientService
	workspaces service.IWorkspaceService
	hub        *internalWS.Hub
	auth       fiber.Handler
	logger     logger.ILogger
}

func NewClientController(service service.IClientService, workspaces service.IWorkspaceService, hub *internalWS.Hub, auth fiber.Handler, log logger.ILogger) IClientController {
	return &clientController{
		service:    service,
		workspaces: workspaces,
		hub:        hub,
		auth:       auth,
		logger:     log,
	}
}

func (c *clientController) RegisterRoutes(r fiber.Router) {
	r.Post("/client", c.Issue)
	r.Get("/client/snapshot", c.auth, c.Snapshot)
	r.Get("/ws", c.auth, c.ServeWs)
}

// Issue hands out a device token. A request that still carries a valid token
// renews it for the same device.
func (c *clientController) Issue(ctx *fiber.Ctx) error {
	clientID := ""
	if authHeader := ctx.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		if id, err := c.service.Verify(authHeader[7:]); err == nil {
			clientID = id
		}
	}

	res, err := c.service.Issue(clientID)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Client token issued", res))
}

func (c *clientController) Snapshot(ctx *fiber.Ctx) error {
	clientID := serverutils.ClientID(ctx)
	snapshot := c.workspaces.Get(ctx.UserContext(), clientID).Snapshot(ctx.UserContext())
	return ctx.JSON(serverutils.SuccessResponse("Client state", snapshot))
}

func (c *clientController) ServeWs(ctx *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(ctx) {
		return fiber.ErrUpgradeRequired
	}

	clientID := serverutils.ClientID(ctx)
	snapshot := c.workspaces.Get(ctx.UserContext(), clientID).Snapshot(ctx.UserContext())
	initial, err := internalWS.EncodeJSON(EventSnapshot, snapshot)
	if err != nil {
		return err
	}

	return websocket.New(func(conn *websocket.Conn) {
		c.logger.Info("ClientController", "Starting WebSocket session", map[string]interface{}{"client_id": clientID})
		internalWS.ServeWs(c.hub, conn, clientID, initial)
		c.logger.Info("ClientController", "WebSocket session ended", map[string]interface{}{"client_id": clientID})
	})(ctx)
}
