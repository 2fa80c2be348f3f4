package export

import (
	"errors"

	"backend-fieldnotes/internal/fieldnote"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the export endpoints on the field-notes group.
// The CSV route must be registered before the group's /:id handler or
// fiber would treat "export.csv" as an id.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/export.csv", authMiddleware, func(c *fiber.Ctx) error {
		data, err := svc.CSV(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "text/csv")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="field-notes.csv"`)
		return c.Send(data)
	})

	r.Get("/:id/export.geojson", func(c *fiber.Ctx) error {
		data, err := svc.GeoJSON(c.Context(), c.Params("id"))
		if errors.Is(err, fieldnote.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "field note not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	})
}
