package permit

import (
	"errors"

	"go-permits/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type PermitController struct {
	service PermitService
}

func NewPermitController(service PermitService) *PermitController {
	return &PermitController{service: service}
}

func actorFromClaims(ctx *fiber.Ctx) string {
	claims, ok := ctx.Locals(utils.UserClaimsKey).(*utils.UserClaims)
	if !ok {
		return ""
	}
	return claims.UserID
}

type actionRequest struct {
	Notes string `json:"notes"`
}

func httpStatusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrNotSubmittable),
		errors.Is(err, ErrNotUnsubmittable),
		errors.Is(err, ErrTerminal),
		errors.Is(err, ErrDownstreamProgress),
		errors.Is(err, ErrBackwardGate),
		errors.Is(err, ErrUnknownGate):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func respondErr(ctx *fiber.Ctx, err error) error {
	return ctx.Status(httpStatusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

// Create godoc
// @Summary Create a draft permit application
// @Tags permits
// @Router /api/permits [post]
func (c *PermitController) Create(ctx *fiber.Ctx) error {
	var input CreatePermitInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}
	if input.ApplicantID == "" {
		input.ApplicantID = actorFromClaims(ctx)
	}

	permit, err := c.service.CreatePermit(ctx.Context(), input)
	if err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(permit)
}

// Get godoc
// @Summary Fetch one permit with its full history
// @Tags permits
// @Router /api/permits/{id} [get]
func (c *PermitController) Get(ctx *fiber.Ctx) error {
	permit, err := c.service.GetPermit(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(permit)
}

// List godoc
// @Summary List permits, filterable by applicant, type, stage and status
// @Tags permits
// @Router /api/permits [get]
func (c *PermitController) List(ctx *fiber.Ctx) error {
	filter := ListFilter{
		ApplicantID:     ctx.Query("applicant_id"),
		ApplicationType: ApplicationType(ctx.Query("application_type")),
		Stage:           Stage(ctx.Query("stage")),
		Status:          Status(ctx.Query("status")),
	}

	permits, err := c.service.ListPermits(ctx.Context(), filter)
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": permits, "total": len(permits)})
}

func (c *PermitController) action(ctx *fiber.Ctx, run func(id, notes, actorID string) (*Permit, error)) error {
	var body actionRequest
	// Notes are optional; an empty body is fine.
	_ = ctx.BodyParser(&body)

	permit, err := run(ctx.Params("id"), body.Notes, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(permit)
}

// Submit godoc
// @Summary Submit a draft or returned application for review
// @Tags permits
// @Router /api/permits/{id}/submit [post]
func (c *PermitController) Submit(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, _, actorID string) (*Permit, error) {
		return c.service.SubmitPermit(ctx.Context(), id, actorID)
	})
}

// Unsubmit godoc
// @Summary Withdraw a submitted application back to draft
// @Tags permits
// @Router /api/permits/{id}/unsubmit [post]
func (c *PermitController) Unsubmit(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, _, actorID string) (*Permit, error) {
		return c.service.UnsubmitPermit(ctx.Context(), id, actorID)
	})
}

// Review godoc
// @Summary Mark an application as under technical review
// @Tags permits
// @Router /api/permits/{id}/review [post]
func (c *PermitController) Review(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, _, actorID string) (*Permit, error) {
		return c.service.ReviewApplication(ctx.Context(), id, actorID)
	})
}

// Accept godoc
// @Summary Accept an application after technical review
// @Tags permits
// @Router /api/permits/{id}/accept [post]
func (c *PermitController) Accept(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, notes, actorID string) (*Permit, error) {
		return c.service.AcceptApplication(ctx.Context(), id, notes, actorID)
	})
}

// Return godoc
// @Summary Return an application to the applicant for changes
// @Tags permits
// @Router /api/permits/{id}/return [post]
func (c *PermitController) Return(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, notes, actorID string) (*Permit, error) {
		return c.service.ReturnApplication(ctx.Context(), id, notes, actorID)
	})
}

// Record godoc
// @Summary Record an accepted application into the register
// @Tags permits
// @Router /api/permits/{id}/record [post]
func (c *PermitController) Record(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, notes, actorID string) (*Permit, error) {
		return c.service.RecordApplication(ctx.Context(), id, notes, actorID)
	})
}

// UndoRecord godoc
// @Summary Undo the receiving clerk's record
// @Tags permits
// @Router /api/permits/{id}/undo-record [post]
func (c *PermitController) UndoRecord(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, notes, actorID string) (*Permit, error) {
		return c.service.UndoRecordApplication(ctx.Context(), id, notes, actorID)
	})
}

// ChiefReview godoc
// @Summary Complete the Chief RPS review
// @Tags permits
// @Router /api/permits/{id}/chief-review [post]
func (c *PermitController) ChiefReview(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, notes, actorID string) (*Permit, error) {
		return c.service.ChiefReview(ctx.Context(), id, notes, actorID)
	})
}

// OfficerAccept godoc
// @Summary PENR/CENR officer accepts the application for inspection
// @Tags permits
// @Router /api/permits/{id}/officer-accept [post]
func (c *PermitController) OfficerAccept(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, notes, actorID string) (*Permit, error) {
		return c.service.AcceptByPENRCENROfficer(ctx.Context(), id, notes, actorID)
	})
}

// UndoOfficerAccept godoc
// @Summary Undo the PENR/CENR officer's acceptance
// @Tags permits
// @Router /api/permits/{id}/undo-officer-accept [post]
func (c *PermitController) UndoOfficerAccept(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, notes, actorID string) (*Permit, error) {
		return c.service.UndoAcceptanceCENRPENROfficer(ctx.Context(), id, notes, actorID)
	})
}

// Approve godoc
// @Summary PENR/CENR officer approves the application
// @Tags permits
// @Router /api/permits/{id}/approve [post]
func (c *PermitController) Approve(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, notes, actorID string) (*Permit, error) {
		return c.service.ApproveByPENRCENROfficer(ctx.Context(), id, notes, actorID)
	})
}

// Reject godoc
// @Summary Reject an application terminally
// @Tags permits
// @Router /api/permits/{id}/reject [post]
func (c *PermitController) Reject(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, notes, actorID string) (*Permit, error) {
		return c.service.RejectApplication(ctx.Context(), id, notes, actorID)
	})
}

type updateStageRequest struct {
	Stage       Stage           `json:"stage"`
	Status      Status          `json:"status"`
	Notes       string          `json:"notes"`
	FlagUpdates map[string]bool `json:"flag_updates"`
}

// UpdateStage godoc
// @Summary Apply a guarded stage/status/flag update
// @Tags permits
// @Router /api/permits/{id}/stage [put]
func (c *PermitController) UpdateStage(ctx *fiber.Ctx) error {
	var body updateStageRequest
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	permit, err := c.service.UpdatePermitStage(ctx.Context(), ctx.Params("id"), body.Stage, body.Status, body.Notes, actorFromClaims(ctx), body.FlagUpdates)
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(permit)
}

// Release godoc
// @Summary Release the signed permit to the applicant
// @Tags permits
// @Router /api/permits/{id}/release [post]
func (c *PermitController) Release(ctx *fiber.Ctx) error {
	return c.action(ctx, func(id, _, actorID string) (*Permit, error) {
		return c.service.ReleasePermit(ctx.Context(), id, actorID)
	})
}
