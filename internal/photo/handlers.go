package photo

import (
	"errors"

	"backend-fieldnotes/internal/objectstore"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, store *objectstore.Store, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		photos, err := svc.List(c.Context(), c.Query("fieldNoteId"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if photos == nil {
			photos = []Photo{}
		}
		return c.JSON(photos)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			FieldNoteID string `json:"field_note_id"`
			Filename    string `json:"filename"`
			ObjectPath  string `json:"object_path"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if body.FieldNoteID == "" || body.ObjectPath == "" {
			return fiber.NewError(fiber.StatusBadRequest, "field_note_id and object_path required")
		}
		p, err := svc.Create(c.Context(), body.FieldNoteID, body.Filename, body.ObjectPath)
		if errors.Is(err, ErrFieldNoteNotFound) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(p)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		err := svc.Delete(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "photo not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Upload is a two-step flow: the client asks for a signed URL here,
	// PUTs the bytes to it, then POSTs the photo record above.
	r.Post("/upload", authMiddleware, func(c *fiber.Ctx) error {
		var body struct {
			Filename string `json:"filename"`
		}
		_ = c.BodyParser(&body)
		if body.Filename == "" {
			body.Filename = "upload"
		}
		objectPath, uploadURL, expiresAt := store.PresignUpload(body.Filename)
		return c.JSON(fiber.Map{
			"object_path": objectPath,
			"upload_url":  uploadURL,
			"expires_at":  expiresAt,
		})
	})
}
