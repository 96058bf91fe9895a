package inspection

import (
	"errors"
	"time"

	"go-permits/internal/features/permit"
	"go-permits/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type InspectionController struct {
	service InspectionService
}

func NewInspectionController(service InspectionService) *InspectionController {
	return &InspectionController{service: service}
}

func actorFromClaims(ctx *fiber.Ctx) string {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}

func respondErr(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, permit.ErrNotFound):
		status = fiber.StatusNotFound
	case errors.Is(err, ErrWrongStatus),
		errors.Is(err, ErrNoFindings),
		errors.Is(err, permit.ErrInvalidTransition),
		errors.Is(err, permit.ErrDownstreamProgress):
		status = fiber.StatusConflict
	case errors.Is(err, ErrResultRequired):
		status = fiber.StatusUnprocessableEntity
	}
	return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// Schedule godoc
// @Summary Schedule a field inspection for an application
// @Tags inspections
// @Router /api/inspections [post]
func (c *InspectionController) Schedule(ctx *fiber.Ctx) error {
	var input ScheduleInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if input.InspectorID == "" {
		input.InspectorID = actorFromClaims(ctx)
	}

	inspection, err := c.service.Schedule(ctx.Context(), input, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(inspection)
}

// Get godoc
// @Summary Fetch one inspection
// @Tags inspections
// @Router /api/inspections/{id} [get]
func (c *InspectionController) Get(ctx *fiber.Ctx) error {
	inspection, err := c.service.GetInspection(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(inspection)
}

// List godoc
// @Summary List inspections, filterable by status
// @Tags inspections
// @Router /api/inspections [get]
func (c *InspectionController) List(ctx *fiber.Ctx) error {
	if applicationID := ctx.Query("application_id"); applicationID != "" {
		inspection, err := c.service.GetByApplication(ctx.Context(), applicationID)
		if err != nil {
			return respondErr(ctx, err)
		}
		return ctx.JSON(fiber.Map{"data": []Inspection{*inspection}, "total": 1})
	}

	inspections, err := c.service.ListInspections(ctx.Context(), Status(ctx.Query("status")))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": inspections, "total": len(inspections)})
}

type rescheduleRequest struct {
	ScheduledDate time.Time `json:"scheduled_date"`
}

// Reschedule godoc
// @Summary Move an inspection to a new date
// @Tags inspections
// @Router /api/inspections/{id}/reschedule [post]
func (c *InspectionController) Reschedule(ctx *fiber.Ctx) error {
	var body rescheduleRequest
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	inspection, err := c.service.Reschedule(ctx.Context(), ctx.Params("id"), body.ScheduledDate, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(inspection)
}

// Cancel godoc
// @Summary Cancel a pending inspection
// @Tags inspections
// @Router /api/inspections/{id}/cancel [post]
func (c *InspectionController) Cancel(ctx *fiber.Ctx) error {
	inspection, err := c.service.Cancel(ctx.Context(), ctx.Params("id"), actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(inspection)
}

// RecordFindings godoc
// @Summary Record inspection findings and return the permit for review
// @Tags inspections
// @Router /api/inspections/{id}/findings [post]
func (c *InspectionController) RecordFindings(ctx *fiber.Ctx) error {
	var input FindingsInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	inspection, err := c.service.RecordFindings(ctx.Context(), ctx.Params("id"), input, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(inspection)
}

// UndoFindings godoc
// @Summary Reopen a completed inspection
// @Tags inspections
// @Router /api/inspections/{id}/findings [delete]
func (c *InspectionController) UndoFindings(ctx *fiber.Ctx) error {
	inspection, err := c.service.UndoInspectionReport(ctx.Context(), ctx.Params("id"), actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(inspection)
}
