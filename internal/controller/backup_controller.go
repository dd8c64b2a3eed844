package controller

import (
	"fmt"
	"io"

	"trend-finder-be/internal/pkg/serverutils"
	"trend-finder-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

const maxBackupBytes = 20 << 20

type IBackupController interface {
	RegisterRoutes(r fiber.Router)
	Export(ctx *fiber.Ctx) error
	Import(ctx *fiber.Ctx) error
}

type backupController struct {
	service service.IBackupService
	auth    fiber.Handler
}

func NewBackupController(service service.IBackupService, auth fiber.Handler) IBackupController {
	return &backupController{service: service, auth: auth}
}

func (c *backupController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/backup", c.auth)
	h.Get("/export", c.Export)
	h.Post("/import", c.Import)
}

// Export downloads the backup as trend-finder-backup-YYYY-MM-DD.json.
func (c *backupController) Export(ctx *fiber.Ctx) error {
	data, fileName, err := c.service.Export(ctx.UserContext(), serverutils.ClientID(ctx))
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))
	return ctx.Send(data)
}

// Import takes the document as the raw body or as a multipart "file".
func (c *backupController) Import(ctx *fiber.Ctx) error {
	data := ctx.Body()
	if fh, err := ctx.FormFile("file"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Unreadable file")
		}
		defer f.Close()
		data, err = io.ReadAll(io.LimitReader(f, maxBackupBytes))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Unreadable file")
		}
	}

	res, err := c.service.Import(ctx.UserContext(), serverutils.ClientID(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse(res.Message, res))
}
