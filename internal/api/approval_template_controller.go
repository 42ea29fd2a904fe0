package api

import (
	"net/http"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/service"
	"github.com/gin-gonic/gin"
)

// ApprovalTemplateController exposes the approval template endpoints.
type ApprovalTemplateController struct {
	templateService service.ApprovalTemplateService
}

// NewApprovalTemplateController creates a template controller.
func NewApprovalTemplateController(templateService service.ApprovalTemplateService) *ApprovalTemplateController {
	return &ApprovalTemplateController{templateService: templateService}
}

// Create creates a template
// @Summary      Create approval template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        request body service.SaveTemplateRequest true "template"
// @Success      200  {object}  Response
// @Router       /templates [post]
// @Security     BearerAuth
func (c *ApprovalTemplateController) Create(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.SaveTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.templateService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Update replaces a template
// @Summary      Update approval template
// @Tags         templates
// @Accept       json
// @Produce      json
// @Param        id path string true "template id"
// @Param        request body service.SaveTemplateRequest true "template"
// @Success      200  {object}  Response
// @Router       /templates/{id} [put]
// @Security     BearerAuth
func (c *ApprovalTemplateController) Update(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.SaveTemplateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.templateService.Update(ctx.Request.Context(), actor, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Get returns one template
// @Summary      Get approval template
// @Tags         templates
// @Produce      json
// @Param        id path string true "template id"
// @Success      200  {object}  Response
// @Router       /templates/{id} [get]
// @Security     BearerAuth
func (c *ApprovalTemplateController) Get(ctx *gin.Context) {
	view, err := c.templateService.Get(ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// List returns every template
// @Summary      List approval templates
// @Tags         templates
// @Produce      json
// @Success      200  {object}  Response
// @Router       /templates [get]
// @Security     BearerAuth
func (c *ApprovalTemplateController) List(ctx *gin.Context) {
	views, err := c.templateService.List()
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, views)
}

// Delete removes a template
// @Summary      Delete approval template
// @Tags         templates
// @Param        id path string true "template id"
// @Success      200  {object}  Response
// @Router       /templates/{id} [delete]
// @Security     BearerAuth
func (c *ApprovalTemplateController) Delete(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	if err := c.templateService.Delete(ctx.Request.Context(), actor, ctx.Param("id")); err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, nil)
}
