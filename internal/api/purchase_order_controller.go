package api

import (
	"fmt"
	"net/http"

	"github.com/AgungSukaAFK/ga-web-sub000/internal/repository"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/service"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/storage"
	"github.com/AgungSukaAFK/ga-web-sub000/internal/workflow"
	"github.com/gin-gonic/gin"
)

// PurchaseOrderController exposes the PO workflow endpoints.
type PurchaseOrderController struct {
	poService service.PurchaseOrderService
	blobStore storage.BlobStore
}

// NewPurchaseOrderController creates a PO controller.
func NewPurchaseOrderController(poService service.PurchaseOrderService, blobStore storage.BlobStore) *PurchaseOrderController {
	return &PurchaseOrderController{
		poService: poService,
		blobStore: blobStore,
	}
}

// Create creates a purchase order
// @Summary      Create purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        request body service.CreatePORequest true "purchase order"
// @Success      200  {object}  Response
// @Router       /purchase-orders [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) Create(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.CreatePORequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.poService.Create(ctx.Request.Context(), actor, &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Get returns one purchase order
// @Summary      Get purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id} [get]
// @Security     BearerAuth
func (c *PurchaseOrderController) Get(ctx *gin.Context) {
	view, err := c.poService.Get(ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// List returns purchase orders matching the query filters
// @Summary      List purchase orders
// @Tags         purchase-orders
// @Produce      json
// @Success      200  {object}  Response
// @Router       /purchase-orders [get]
// @Security     BearerAuth
func (c *PurchaseOrderController) List(ctx *gin.Context) {
	filter := &repository.PurchaseOrderFilter{}
	if v := ctx.Query("status"); v != "" {
		filter.Status = &v
	}
	if v := ctx.Query("mr_id"); v != "" {
		filter.MRID = &v
	}
	if v := ctx.Query("company_code"); v != "" {
		filter.CompanyCode = &v
	}
	if v := ctx.Query("created_by"); v != "" {
		filter.CreatedBy = &v
	}

	views, err := c.poService.List(filter)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, views)
}

// Update edits a draft purchase order
// @Summary      Update purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Param        request body service.UpdatePORequest true "fields"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id} [put]
// @Security     BearerAuth
func (c *PurchaseOrderController) Update(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.UpdatePORequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.poService.Update(ctx.Request.Context(), actor, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Delete removes a draft purchase order
// @Summary      Delete purchase order
// @Tags         purchase-orders
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id} [delete]
// @Security     BearerAuth
func (c *PurchaseOrderController) Delete(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	if err := c.poService.Delete(ctx.Request.Context(), actor, ctx.Param("id")); err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, nil)
}

// Submit moves a draft into validation
// @Summary      Submit purchase order
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/submit [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) Submit(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	view, err := c.poService.Submit(ctx.Request.Context(), actor, ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Validate commits the approval chain
// @Summary      Validate purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Param        request body service.ValidatePORequest true "validation"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/validate [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) Validate(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req service.ValidatePORequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.poService.Validate(ctx.Request.Context(), actor, ctx.Param("id"), &req)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// RejectValidation rejects a purchase order during validation
// @Summary      Reject validation
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/reject-validation [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) RejectValidation(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req reasonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.poService.RejectValidation(ctx.Request.Context(), actor, ctx.Param("id"), req.Reason)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

type noteRequest struct {
	Note string `json:"note"`
}

// Approve records the acting user's approval
// @Summary      Approve purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/approve [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) Approve(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req noteRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.poService.Approve(ctx.Request.Context(), actor, ctx.Param("id"), req.Note)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Reject records the acting user's rejection, terminal for the document
// @Summary      Reject purchase order
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/reject [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) Reject(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req reasonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.poService.Reject(ctx.Request.Context(), actor, ctx.Param("id"), req.Reason)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// MarkOrdered marks the purchase order as sent to the vendor
// @Summary      Mark purchase order as ordered
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/mark-ordered [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) MarkOrdered(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	view, err := c.poService.MarkOrdered(ctx.Request.Context(), actor, ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// Close uploads BAST evidence and completes the purchase order
// @Summary      Close purchase order with BAST
// @Tags         purchase-orders
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/close [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) Close(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var bast *workflow.Attachment
	file, err := ctx.FormFile("bast")
	if err == nil && file != nil && c.blobStore != nil {
		view, err := c.poService.Get(ctx.Param("id"))
		if err != nil {
			HandleError(ctx, err)
			return
		}
		src, err := file.Open()
		if err != nil {
			Error(ctx, http.StatusBadRequest, "failed to open upload", err.Error())
			return
		}
		defer src.Close()

		path := fmt.Sprintf("%s/%s", view.KodePO, file.Filename)
		res, err := c.blobStore.Upload(ctx.Request.Context(), path, src, file.Size, file.Header.Get("Content-Type"))
		if err != nil {
			HandleError(ctx, err)
			return
		}
		bast = &workflow.Attachment{Name: file.Filename, Path: res.Path, URL: res.PublicURL, Type: "bast"}
	}

	view, err := c.poService.CloseWithBAST(ctx.Request.Context(), actor, ctx.Param("id"), bast)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// AddDiscussion appends a comment to the document's discussion log
// @Summary      Add discussion entry
// @Tags         purchase-orders
// @Accept       json
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/discussions [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) AddDiscussion(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}

	var req discussionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	view, err := c.poService.AddDiscussion(ctx.Request.Context(), actor, ctx.Param("id"), req.Message)
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, view)
}

// UploadAttachment stores a file in the blob store and links it to the PO
// @Summary      Upload attachment
// @Tags         purchase-orders
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/attachments [post]
// @Security     BearerAuth
func (c *PurchaseOrderController) UploadAttachment(ctx *gin.Context) {
	actor, ok := requireActor(ctx)
	if !ok {
		return
	}
	if c.blobStore == nil {
		Error(ctx, http.StatusUnprocessableEntity, "attachment storage is not configured", "")
		return
	}

	file, err := ctx.FormFile("file")
	if err != nil {
		Error(ctx, http.StatusBadRequest, "file is required", err.Error())
		return
	}

	view, err := c.poService.Get(ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	src, err := file.Open()
	if err != nil {
		Error(ctx, http.StatusBadRequest, "failed to open upload", err.Error())
		return
	}
	defer src.Close()

	path := fmt.Sprintf("%s/%s", view.KodePO, file.Filename)
	res, err := c.blobStore.Upload(ctx.Request.Context(), path, src, file.Size, file.Header.Get("Content-Type"))
	if err != nil {
		HandleError(ctx, err)
		return
	}

	updated, err := c.poService.AddAttachment(ctx.Request.Context(), actor, ctx.Param("id"), workflow.Attachment{
		Name: file.Filename,
		Path: res.Path,
		URL:  res.PublicURL,
		Type: ctx.PostForm("type"),
	})
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, updated)
}

// History returns the document's status-change rows
// @Summary      Get state history
// @Tags         purchase-orders
// @Produce      json
// @Param        id path string true "document id"
// @Success      200  {object}  Response
// @Router       /purchase-orders/{id}/history [get]
// @Security     BearerAuth
func (c *PurchaseOrderController) History(ctx *gin.Context) {
	rows, err := c.poService.StateHistory(ctx.Param("id"))
	if err != nil {
		HandleError(ctx, err)
		return
	}
	Success(ctx, rows)
}
