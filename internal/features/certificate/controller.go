package certificate

import (
	"errors"

	"go-permits/internal/features/permit"
	"go-permits/pkg/utils"

	"github.com/gofiber/fiber/v2"
)

type CertificateController struct {
	service CertificateService
}

func NewCertificateController(service CertificateService) *CertificateController {
	return &CertificateController{service: service}
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
		errors.Is(err, ErrNotAwaitingCertificate),
		errors.Is(err, permit.ErrInvalidTransition):
		status = fiber.StatusConflict
	}
	return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
}

// Generate godoc
// @Summary Generate the certificate for a paid application
// @Tags certificates
// @Router /api/certificates [post]
func (c *CertificateController) Generate(ctx *fiber.Ctx) error {
	var input GenerateInput
	if err := ctx.BodyParser(&input); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	certificate, err := c.service.GenerateCertificate(ctx.Context(), input, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(certificate)
}

// Get godoc
// @Summary Fetch one certificate
// @Tags certificates
// @Router /api/certificates/{id} [get]
func (c *CertificateController) Get(ctx *fiber.Ctx) error {
	certificate, err := c.service.GetCertificate(ctx.Context(), ctx.Params("id"))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(certificate)
}

// List godoc
// @Summary List certificates, filterable by status
// @Tags certificates
// @Router /api/certificates [get]
func (c *CertificateController) List(ctx *fiber.Ctx) error {
	if applicationID := ctx.Query("application_id"); applicationID != "" {
		certificate, err := c.service.GetByApplication(ctx.Context(), applicationID)
		if err != nil {
			return respondErr(ctx, err)
		}
		return ctx.JSON(fiber.Map{"data": []Certificate{*certificate}, "total": 1})
	}

	certificates, err := c.service.ListCertificates(ctx.Context(), Status(ctx.Query("status")))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(fiber.Map{"data": certificates, "total": len(certificates)})
}

type uploadRequest struct {
	File string `json:"file"`
}

// Upload godoc
// @Summary Attach or replace the certificate file
// @Tags certificates
// @Router /api/certificates/{id}/file [put]
func (c *CertificateController) Upload(ctx *fiber.Ctx) error {
	var body uploadRequest
	if err := ctx.BodyParser(&body); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	certificate, err := c.service.UploadCertificate(ctx.Context(), ctx.Params("id"), body.File, actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(certificate)
}

// Sign godoc
// @Summary Sign the certificate and queue the permit for release
// @Tags certificates
// @Router /api/certificates/{id}/sign [post]
func (c *CertificateController) Sign(ctx *fiber.Ctx) error {
	certificate, err := c.service.SignCertificate(ctx.Context(), ctx.Params("id"), actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(certificate)
}

// Release godoc
// @Summary Release the signed certificate to the applicant
// @Tags certificates
// @Router /api/certificates/{id}/release [post]
func (c *CertificateController) Release(ctx *fiber.Ctx) error {
	certificate, err := c.service.ReleaseCertificate(ctx.Context(), ctx.Params("id"), actorFromClaims(ctx))
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(certificate)
}

// Sweep godoc
// @Summary Run the expiration sweep immediately
// @Tags certificates
// @Router /api/certificates/sweep [post]
func (c *CertificateController) Sweep(ctx *fiber.Ctx) error {
	expired, err := c.service.SweepExpired(ctx.Context())
	if err != nil {
		return respondErr(ctx, err)
	}
	return ctx.JSON(fiber.Map{"expired": expired})
}
