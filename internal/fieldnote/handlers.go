package fieldnote

import (
	"errors"
	"time"

	"backend-fieldnotes/internal/gpx"

	"github.com/gofiber/fiber/v2"
)

func isGPXError(err error) bool {
	return errors.Is(err, gpx.ErrNoTrackPoints) ||
		errors.Is(err, gpx.ErrNoValidPoints) ||
		errors.Is(err, gpx.ErrMalformed)
}

type notePayload struct {
	Title           string  `json:"title"`
	Description     string  `json:"description"`
	TripType        string  `json:"trip_type"`
	Date            string  `json:"date"`
	DistanceMiles   float64 `json:"distance_miles"`
	ElevationGainFt float64 `json:"elevation_gain_ft"`
	GPX             string  `json:"gpx"`
}

func (p notePayload) toNote() (FieldNote, error) {
	note := FieldNote{
		Title:           p.Title,
		Description:     p.Description,
		TripType:        p.TripType,
		DistanceMiles:   p.DistanceMiles,
		ElevationGainFt: p.ElevationGainFt,
	}
	if p.Date != "" {
		date, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return FieldNote{}, errors.New("date must be YYYY-MM-DD")
		}
		note.Date = date
	}
	return note, nil
}

func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware fiber.Handler) {
	r.Get("/", func(c *fiber.Ctx) error {
		notes, err := svc.List(c.Context(), c.Query("search"), c.Query("tripType"), c.Query("sortOrder"))
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if notes == nil {
			notes = []FieldNote{}
		}
		return c.JSON(notes)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		note, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "field note not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(note)
	})

	r.Post("/", authMiddleware, func(c *fiber.Ctx) error {
		var req notePayload
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Title == "" {
			return fiber.NewError(fiber.StatusBadRequest, "title required")
		}
		if req.TripType != "" && !ValidTripType(req.TripType) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid trip type")
		}
		input, err := req.toNote()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		note, err := svc.Create(c.Context(), input, []byte(req.GPX))
		if err != nil {
			// A broken GPX payload is a client problem, not a server one.
			if isGPXError(err) {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(note)
	})

	r.Put("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req notePayload
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.TripType != "" && !ValidTripType(req.TripType) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid trip type")
		}
		patch, err := req.toNote()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		note, err := svc.Update(c.Context(), c.Params("id"), patch)
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "field note not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(note)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		err := svc.Delete(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "field note not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
