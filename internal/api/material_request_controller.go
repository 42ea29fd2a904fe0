package api

import (
	"fmt"
	"net/http"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/auth"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/service"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/storage"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/gin-gonic/gin"
)

// MaterialRequestController exposes the MR workflow endpoints.
type MaterialRequestController struct {
	mrService service.MaterialRequestService
	blobStore storage.BlobStore
}

// NewMaterialRequestController creates an MR controller.
func NewMaterialRequestController(mrService service.MaterialRequestService, blobStore storage.BlobStore) *MaterialRequestController {
	return &MaterialRequestController{
		mrService: mrService,
		blobStore: blobStore,
	}
}

func requireActor(ctx *gin.Context) (workflow.Actor, bool) {
	actor, ok := auth.ActorFromContext(ctx)
	if !ok {
		Error(ctx, http.StatusUnauthorized, "unauthenticated", "")
	}
	return actor, ok
}

// Create creates a material request
// @Summary      Create material request
// @Tags         material-requests
// @Accept       json
// @Produce      json
// @Param        request body service.CreateMRRequest true "material request"
// @Success      200  {object}  Response
// @Router       /material-requests [post]
// @Security     BearerAuth
func (c *MaterialRequestController) Create(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.CreateMRRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.mrService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Get returns one material request
// @Summary      Get material request
// @Tags         material-requests
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /material-requests/{id} [get]
// @Security     BearerAuth
func (c *MaterialRequestController) Get(ctx *gin.Context) {
	view, err := c.mrService.Get(ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// List returns material requests matching the query filters
// @Summary      List material requests
// @Tags         material-requests
// @Produce      json
// @Success      200  {object}  Response
// @Router       /material-requests [get]
// @Security     BearerAuth
func (c *MaterialRequestController) List(ctx *gin.Context) {
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
	if v := ctx.Query("cost_center_id"); v != "" {
		filter.CostCenterID = &v
	}
	if v := ctx.Query("created_by"); v != "" {
		filter.CreatedBy = &v
	}

	views, err := c.mrService.List(filter)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, views)
}

// Update edits the mutable fields of a material request
// @Summary      Update material request
// @Tags         material-requests
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Param        request body service.UpdateMRRequest true "fields"
// @Success      200  {object}  Response
// @Router       /material-requests/{id} [put]
// @Security     BearerAuth
func (c *MaterialRequestController) Update(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.UpdateMRRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.mrService.Update(ctx.Request.Context(), actor, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Delete removes a material request still pending validation
// @Summary      Delete material request
// @Tags         material-requests
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /material-requests/{id} [delete]
// @Security     BearerAuth
func (c *MaterialRequestController) Delete(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	if err := c.mrService.Delete(ctx.Request.Context(), actor, ctx.Param("id")); err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, nil)
}

// Validate assigns the cost center and commits the approval chain
// @Summary      Validate material request
// @Tags         material-requests
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Param        request body service.ValidateMRRequest true "validation"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/validate [post]
// @Security     BearerAuth
func (c *MaterialRequestController) Validate(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.ValidateMRRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.mrService.Validate(ctx.Request.Context(), actor, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

type reasonRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// RejectValidation rejects a document during validation
// @Summary      Reject validation
// @Tags         material-requests
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/reject-validation [post]
// @Security     BearerAuth
func (c *MaterialRequestController) RejectValidation(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req reasonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.mrService.RejectValidation(ctx.Request.Context(), actor, ctx.Param("id"), req.Reason)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Approve records the acting user's approval
// @Summary      Approve material request
// @Tags         material-requests
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Param        request body service.ApproveMRRequest true "approval"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/approve [post]
// @Security     BearerAuth
func (c *MaterialRequestController) Approve(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.ApproveMRRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.mrService.Approve(ctx.Request.Context(), actor, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Reject records the acting user's rejection, terminal for the document
// @Summary      Reject material request
// @Tags         material-requests
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/reject [post]
// @Security     BearerAuth
func (c *MaterialRequestController) Reject(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req reasonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.mrService.Reject(ctx.Request.Context(), actor, ctx.Param("id"), req.Reason)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Close uploads the BAST evidence and completes the MR and its POs
// @Summary      Close material request with BAST
// @Tags         material-requests
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/close [post]
// @Security     BearerAuth
func (c *MaterialRequestController) Close(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var bast *workflow.Attachment
	file, err := ctx.FormFile("bast")
	if err == nil && file != nil {
		view, err := c.mrService.Get(ctx.Param("id"))
		if err != nil {
			HandleError(ctx, err)
			return
		}
		att, err := c.uploadAttachment(ctx, view.KodeMR, file.Filename, "bast")
		if err != nil {
			HandleError(ctx, err)
			return
		}
		bast = att
	}

	view, err := c.mrService.CloseWithBAST(ctx.Request.Context(), actor, ctx.Param("id"), bast)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// UpdateItemStatus moves one line item through its fulfillment states
// @Summary      Update item fulfillment status
// @Tags         material-requests
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Param        request body service.UpdateItemStatusRequest true "item status"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/items/status [post]
// @Security     BearerAuth
func (c *MaterialRequestController) UpdateItemStatus(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.UpdateItemStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.mrService.UpdateItemStatus(ctx.Request.Context(), actor, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

type discussionRequest struct {
	Message string `json:"message" binding:"required"`
}

// AddDiscussion appends a comment to the document's discussion log
// @Summary      Add discussion entry
// @Tags         material-requests
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/discussions [post]
// @Security     BearerAuth
func (c *MaterialRequestController) AddDiscussion(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req discussionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.mrService.AddDiscussion(ctx.Request.Context(), actor, ctx.Param("id"), req.Message)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// UploadAttachment stores a file in the blob store and links it to the MR
// @Summary      Upload attachment
// @Tags         material-requests
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/attachments [post]
// @Security     BearerAuth
func (c *MaterialRequestController) UploadAttachment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		Error(ctx, http.StatusBadRequest, "file is required", err.Error())
		return
	}

	view, err := c.mrService.Get(ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	att, err := c.uploadAttachment(ctx, view.KodeMR, file.Filename, ctx.PostForm("type"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	updated, err := c.mrService.AddAttachment(ctx.Request.Context(), actor, ctx.Param("id"), *att)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, updated)
}

// RemoveAttachment unlinks an attachment and removes the stored file
// @Summary      Remove attachment
// @Tags         material-requests
// @Produce      json
// @Param        id path string true "document id"
// @Param        path query string true "attachment path"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/attachments [delete]
// @Security     BearerAuth
func (c *MaterialRequestController) RemoveAttachment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	path := ctx.Query("path")
	if path == "" {
		Error(ctx, http.StatusBadRequest, "path is required", "")
		return
	}

	view, err := c.mrService.RemoveAttachment(ctx.Request.Context(), actor, ctx.Param("id"), path)
	if err != nil {
		HandleError(ctx, err)
		return
	}

	// blob removal is best-effort; the document no longer references the file
	if c.blobStore != nil {
		_ = c.blobStore.Remove(ctx.Request.Context(), path)
	}
	Success(ctx, view)
}

// ReassignCostCenter is the privileged cost-center correction
// @Summary      Reassign cost center
// @Tags         material-requests
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Param        request body service.ReassignCostCenterRequest true "reassignment"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/cost-center [put]
// @Security     BearerAuth
func (c *MaterialRequestController) ReassignCostCenter(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.ReassignCostCenterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.mrService.ReassignCostCenter(ctx.Request.Context(), actor, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// History returns the document's status-change rows
// @Summary      Get state history
// @Tags         material-requests
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /material-requests/{id}/history [get]
// @Security     BearerAuth
func (c *MaterialRequestController) History(ctx *gin.Context) {
	rows, err := c.mrService.StateHistory(ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, rows)
}

func (c *MaterialRequestController) uploadAttachment(ctx *gin.Context, kode, filename, attType string) (*workflow.Attachment, error) {
	if c.blobStore == nil {
		return nil, workflow.NewValidationError("attachment storage is not configured")
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		file, err = ctx.FormFile("bast")
		if err != nil {
			return nil, workflow.NewValidationError("file is required")
		}
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	path := fmt.Sprintf("%s/%s", kode, filename)
	res, err := c.blobStore.Upload(ctx.Request.Context(), path, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	return &workflow.Attachment{
		Name: filename,
		Path: res.Path,
		URL:  res.PublicURL,
		Type: attType,
	}, nil
}
