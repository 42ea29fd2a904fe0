package api

import (
	"fmt"
	"time"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// ExportController serves the flattened projections and xlsx export.
type ExportController struct {
	exportService service.ExportService
}

// NewExportController creates an export controller.
func NewExportController(exportService service.ExportService) *ExportController {
	return &ExportController{exportService: exportService}
}

func exportFilter(ctx *gin.Context) *repository.MaterialRequestFilter {
	filter := &repository.MaterialRequestFilter{}
	if v := ctx.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := ctx.Query("department"); v != "" {
		filter.Department = &v
	}
	if v := ctx.Query("company_code"); v != "" {
		filter.CompanyCode = &v
	}
	return filter
}

// MaterialRequests returns the one-row-per-MR projection
// @Summary      Export material request rows
// @Tags         export
// @Produce      json
// @Success      200  {object}  Response
// @Router       /export/material-requests [get]
// @Security     BearerAuth
func (c *ExportController) MaterialRequests(ctx *gin.Context) {
	rows, err := c.exportService.MRRows(exportFilter(ctx))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, rows)
}

// Items returns the one-row-per-item projection
// @Summary      Export item rows
// @Tags         export
// @Produce      json
// @Success      200  {object}  Response
// @Router       /export/items [get]
// @Security     BearerAuth
func (c *ExportController) Items(ctx *gin.Context) {
	rows, err := c.exportService.ItemRows(exportFilter(ctx))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, rows)
}

// XLSX streams a spreadsheet with both projections
// @Summary      Export xlsx workbook
// @Tags         export
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200
// @Router       /export/xlsx [get]
// @Security     BearerAuth
func (c *ExportController) XLSX(ctx *gin.Context) {
	filename := fmt.Sprintf("material-requests-%s.xlsx", time.Now().Format("20060102"))
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	ctx.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := c.exportService.WriteXLSX(ctx.Writer, exportFilter(ctx)); err != nil {
		HandleError(ctx, err)
		return
	}
}
