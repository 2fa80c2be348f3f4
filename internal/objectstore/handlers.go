package objectstore

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, store *Store) {
	r.Put("/:path", func(c *fiber.Ctx) error {
		exp, err := strconv.ParseInt(c.Query("exp"), 10, 64)
		if err != nil {
			return fiber.NewError(fiber.StatusForbidden, "missing or invalid exp")
		}
		objectPath := c.Params("path")
		if !store.VerifyUpload(objectPath, exp, c.Query("sig")) {
			return fiber.NewError(fiber.StatusForbidden, "signature invalid or expired")
		}
		if len(c.Body()) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "empty body")
		}
		if err := store.Put(objectPath, c.Body()); err != nil {
			if errors.Is(err, ErrInvalidPath) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{"path": objectPath})
	})

	r.Get("/:path", func(c *fiber.Ctx) error {
		data, err := store.Get(c.Params("path"))
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidPath) {
			return fiber.NewError(fiber.StatusNotFound, "object not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, http.DetectContentType(data))
		return c.Send(data)
	})
}
