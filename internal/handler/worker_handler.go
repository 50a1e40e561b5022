package handler

import (
	"context"
	"net/http"

	"handyhub/internal/middleware"
	"handyhub/internal/service"
	"handyhub/pkg/pagination"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type WorkerHandler struct {
	workerService service.WorkerService
	authn         *middleware.Authenticator
	maxUpload     int64
}

func NewWorkerHandler(workerService service.WorkerService, authn *middleware.Authenticator, maxUpload int64) *WorkerHandler {
	return &WorkerHandler{workerService: workerService, authn: authn, maxUpload: maxUpload}
}

func (h *WorkerHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/workers")
	{
		group.GET("", h.ListWorkers)

		app := group.Group("/application", h.authn.RequireAuth())
		app.GET("", h.GetApplication)
		app.PUT("", h.SaveApplication)
		app.POST("/id-document", h.UploadIDDocument)
		app.POST("/certifications", h.UploadCertification)
		app.POST("/profile-photo", h.UploadProfilePhoto)
		app.POST("/submit", h.SubmitApplication)

		group.GET("/:id", h.GetWorker)
	}
}

// ListWorkers lists approved workers
// @Summary      List workers
// @Tags         workers
// @Produce      json
// @Param        service  query     string  false  "Service category"
// @Param        city     query     string  false  "City"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Items per page (default 20)"
// @Success      200      {object}  response.PaginatedResponse{data=[]service.PublicWorkerResponse}
// @Router       /workers [get]
func (h *WorkerHandler) ListWorkers(c *gin.Context) {
	var q service.WorkerListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := pagination.Parse(c)

	workers, total, err := h.workerService.ListApproved(c.Request.Context(), q, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(workers, pagination.NewMeta(p, total)))
}

// GetWorker returns an approved worker's public profile
// @Summary      Get worker
// @Tags         workers
// @Produce      json
// @Param        id   path      string  true  "Worker ID"
// @Success      200  {object}  response.Response{data=service.PublicWorkerResponse}
// @Failure      404  {object}  response.Response
// @Router       /workers/{id} [get]
func (h *WorkerHandler) GetWorker(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	worker, err := h.workerService.GetPublicProfile(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", worker))
}

// GetApplication returns the caller's worker application, starting one if needed
// @Summary      Get my application
// @Tags         workers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Router       /workers/application [get]
func (h *WorkerHandler) GetApplication(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	app, err := h.workerService.GetApplication(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", app))
}

// SaveApplication saves draft fields of the application
// @Summary      Save application draft
// @Tags         workers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.SaveApplicationRequest  true  "Draft fields"
// @Success      200      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400      {object}  response.Response
// @Router       /workers/application [put]
func (h *WorkerHandler) SaveApplication(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.SaveApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	app, err := h.workerService.SaveDraft(c.Request.Context(), actor.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Application saved", app))
}

// UploadIDDocument uploads the government ID, replacing any earlier one
// @Summary      Upload ID document
// @Tags         workers
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "JPEG, PNG or PDF"
// @Success      200   {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400   {object}  response.Response
// @Failure      409   {object}  response.Response
// @Failure      413   {object}  response.Response
// @Router       /workers/application/id-document [post]
func (h *WorkerHandler) UploadIDDocument(c *gin.Context) {
	h.upload(c, "ID document uploaded", h.workerService.UploadIDDocument)
}

// UploadCertification adds a certification document
// @Summary      Upload certification
// @Tags         workers
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "JPEG, PNG or PDF"
// @Success      200   {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400   {object}  response.Response
// @Failure      413   {object}  response.Response
// @Router       /workers/application/certifications [post]
func (h *WorkerHandler) UploadCertification(c *gin.Context) {
	h.upload(c, "Certification uploaded", h.workerService.UploadCertification)
}

// UploadProfilePhoto replaces the profile photo
// @Summary      Upload profile photo
// @Tags         workers
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file  formData  file  true  "JPEG or PNG"
// @Success      200   {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400   {object}  response.Response
// @Failure      413   {object}  response.Response
// @Router       /workers/application/profile-photo [post]
func (h *WorkerHandler) UploadProfilePhoto(c *gin.Context) {
	h.upload(c, "Profile photo uploaded", h.workerService.UploadProfilePhoto)
}

type uploadFunc func(ctx context.Context, userID uuid.UUID, file service.UploadedFile) (*service.ApplicationResponse, error)

func (h *WorkerHandler) upload(c *gin.Context, message string, fn uploadFunc) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	file, ok := readUpload(c, "file", h.maxUpload)
	if !ok {
		return
	}

	app, err := fn(c.Request.Context(), actor.UserID, file)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(message, app))
}

// SubmitApplication sends the application for review
// @Summary      Submit application
// @Tags         workers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /workers/application/submit [post]
func (h *WorkerHandler) SubmitApplication(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	app, err := h.workerService.Submit(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Application submitted for review", app))
}
