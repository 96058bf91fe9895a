package report

import (
	"fmt"

	"go-permits/internal/features/permit"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	service ReportService
}

func NewReportController(service ReportService) *ReportController {
	return &ReportController{service: service}
}

// ExportPermits godoc
// @Summary Download the permit register as an xlsx workbook
// @Tags reports
// @Router /api/reports/permits/export [get]
func (c *ReportController) ExportPermits(ctx *fiber.Ctx) error {
	filter := permit.ListFilter{
		ApplicationType: permit.ApplicationType(ctx.Query("application_type")),
		Stage:           permit.Stage(ctx.Query("stage")),
		Status:          permit.Status(ctx.Query("status")),
	}

	data, filename, err := c.service.ExportPermitRegister(ctx.Context(), filter)
	if err != nil {
		return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(data)
}
