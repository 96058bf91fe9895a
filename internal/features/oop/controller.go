package oop

import (
	"errors"

	"go-permits/internal/features/permit"
	"go-permits/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type OOPController struct {
	service OOPService
}

func NewOOPController(service OOPService) *OOPController {
	return &OOPController{service: service}
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
	case errors.Is(err, ErrSignaturesRequired),
		errors.Is(err, ErrNotCompletedOOP),
		errors.Is(err, ErrWrongStatus),
		errors.Is(err, ErrSignaturesCollected),
		errors.Is(err, permit.ErrDownstreamProgress):
		status = fiber.StatusConflict
	case errors.Is(err, ErrNoItems):
		status = fiber.StatusBadRequest
	}
	return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// Create godoc
// @Summary Create an Order of Payment for an approved application
// @Tags oop
// @Router /api/oops [post]
func (c *OOPController) Create(ctx *fiber.Ctx) error {
	var input CreateOOPInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	oop, err := c.service.CreateOOP(ctx.Context(), input, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(oop)
}

// Get godoc
// @Summary Fetch one Order of Payment
// @Tags oop
// @Router /api/oops/{id} [get]
func (c *OOPController) Get(ctx *fiber.Ctx) error {
	oop, err := c.service.GetOOP(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(oop)
}

// List godoc
// @Summary List Orders of Payment, filterable by status
// @Tags oop
// @Router /api/oops [get]
func (c *OOPController) List(ctx *fiber.Ctx) error {
	if applicationID := ctx.Query("application_id"); applicationID != "" {
		oop, err := c.service.GetByApplication(ctx.Context(), applicationID)
		if err != nil {
			return respondErr(ctx, err)
		}
		return ctx.JSON(fiber.Map{"data": []OOP{*oop}, "total": 1})
	}

	oops, err := c.service.ListOOPs(ctx.Context(), OOPStatus(ctx.Query("status")))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": oops, "total": len(oops)})
}

type signatureRequest struct {
	Kind  SignatureKind `json:"kind"`
	Image string        `json:"image"`
}

// Sign godoc
// @Summary Attach one signatory's signature image
// @Tags oop
// @Router /api/oops/{id}/signature [put]
func (c *OOPController) Sign(ctx *fiber.Ctx) error {
	var body signatureRequest
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	oop, err := c.service.UpdateSignature(ctx.Context(), ctx.Params("id"), body.Kind, body.Image, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(oop)
}

// Forward godoc
// @Summary Forward a fully signed OOP to the accountant
// @Tags oop
// @Router /api/oops/{id}/forward [post]
func (c *OOPController) Forward(ctx *fiber.Ctx) error {
	oop, err := c.service.ForwardToAccountant(ctx.Context(), ctx.Params("id"), actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(oop)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// Approve godoc
// @Summary Accountant approves the OOP for payment
// @Tags oop
// @Router /api/oops/{id}/approve [post]
func (c *OOPController) Approve(ctx *fiber.Ctx) error {
	var body notesRequest
	_ = ctx.BodyParser(&body)

	oop, err := c.service.ApproveOOP(ctx.Context(), ctx.Params("id"), body.Notes, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(oop)
}

// SubmitProof godoc
// @Summary Applicant submits proof of payment
// @Tags oop
// @Router /api/oops/{id}/payment-proof [post]
func (c *OOPController) SubmitProof(ctx *fiber.Ctx) error {
	var input PaymentProofInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	oop, err := c.service.SubmitPaymentProof(ctx.Context(), ctx.Params("id"), input, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(oop)
}

type reviewProofRequest struct {
	Approved bool   `json:"approved"`
	Notes    string `json:"notes"`
}

// ReviewProof godoc
// @Summary Verify or reject a submitted payment proof
// @Tags oop
// @Router /api/oops/{id}/payment-proof/review [post]
func (c *OOPController) ReviewProof(ctx *fiber.Ctx) error {
	var body reviewProofRequest
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	oop, err := c.service.ReviewPaymentProof(ctx.Context(), ctx.Params("id"), body.Approved, body.Notes, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(oop)
}

// IssueOR godoc
// @Summary Issue the official receipt for a completed OOP
// @Tags oop
// @Router /api/oops/{id}/or [post]
func (c *OOPController) IssueOR(ctx *fiber.Ctx) error {
	var input IssueORInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	oop, err := c.service.GenerateOR(ctx.Context(), ctx.Params("id"), input, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(oop)
}

// Undo godoc
// @Summary Delete an OOP created in error
// @Tags oop
// @Router /api/oops/{id} [delete]
func (c *OOPController) Undo(ctx *fiber.Ctx) error {
	if err := c.service.UndoOOPCreation(ctx.Context(), ctx.Params("id"), actorFromClaims(ctx)); err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(fiber.Map{"status": "success"})
}
