package api

import (
	"net/http"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// CostCenterController exposes the budget bucket and ledger endpoints.
type CostCenterController struct {
	ccService service.CostCenterService
}

// NewCostCenterController creates a cost center controller.
func NewCostCenterController(ccService service.CostCenterService) *CostCenterController {
	return &CostCenterController{ccService: ccService}
}

// Create creates a cost center
// @Summary      Create cost center
// @Tags         cost-centers
// @Accept       json
// @Produce      json
// @Param        request body service.CreateCostCenterRequest true "cost center"
// @Success      200  {object}  Response
// @Router       /cost-centers [post]
// @Security     BearerAuth
func (c *CostCenterController) Create(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.CreateCostCenterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	cc, err := c.ccService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, cc)
}

// Get returns one cost center
// @Summary      Get cost center
// @Tags         cost-centers
// @Produce      json
// @Param        id path string true "cost center id"
// @Success      200  {object}  Response
// @Router       /cost-centers/{id} [get]
// @Security     BearerAuth
func (c *CostCenterController) Get(ctx *gin.Context) {
	cc, err := c.ccService.Get(ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, cc)
}

// List returns every cost center
// @Summary      List cost centers
// @Tags         cost-centers
// @Produce      json
// @Success      200  {object}  Response
// @Router       /cost-centers [get]
// @Security     BearerAuth
func (c *CostCenterController) List(ctx *gin.Context) {
	rows, err := c.ccService.List()
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, rows)
}

type adjustmentRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

// Adjust credits or debits a cost center
// @Summary      Adjust budget
// @Tags         cost-centers
// @Accept       json
// @Produce      json
// @Param        id path string true "cost center id"
// @Success      200  {object}  Response
// @Router       /cost-centers/{id}/adjust [post]
// @Security     BearerAuth
func (c *CostCenterController) Adjust(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req adjustmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	row, err := c.ccService.ApplyAdjustment(ctx.Request.Context(), actor, ctx.Param("id"), req.Delta, req.Reason)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, row)
}

// History returns the ledger rows newest-first
// @Summary      Get ledger history
// @Tags         cost-centers
// @Produce      json
// @Param        id path string true "cost center id"
// @Success      200  {object}  Response
// @Router       /cost-centers/{id}/history [get]
// @Security     BearerAuth
func (c *CostCenterController) History(ctx *gin.Context) {
	rows, err := c.ccService.History(ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, rows)
}
