package handler

import (
	"net/http"

	"handyhub/internal/middleware"
	"handyhub/internal/model"
	"handyhub/internal/service"
	"handyhub/pkg/pagination"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type CatalogHandler struct {
	catalogService service.CatalogService
	authn          *middleware.Authenticator
}

func NewCatalogHandler(catalogService service.CatalogService, authn *middleware.Authenticator) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService, authn: authn}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/services")
	{
		group.GET("", h.authn.OptionalAuth(), h.ListServices)
		group.GET("/:id", h.GetService)

		admin := group.Group("", h.authn.RequireRole(model.RoleAdmin))
		admin.POST("", h.CreateService)
		admin.PUT("/:id", h.UpdateService)
		admin.DELETE("/:id", h.DeleteService)
	}
}

// ListServices lists the catalog. Inactive services are only listed for admins.
// @Summary      List services
// @Tags         services
// @Produce      json
// @Param        category  query     string  false  "Category"
// @Param        search    query     string  false  "Name search"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Items per page (default 20)"
// @Success      200       {object}  response.PaginatedResponse{data=[]model.Service}
// @Router       /services [get]
func (h *CatalogHandler) ListServices(c *gin.Context) {
	var q service.ServiceListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := pagination.Parse(c)

	_, role, _ := middleware.CurrentUser(c)
	services, total, err := h.catalogService.List(c.Request.Context(), q, role != model.RoleAdmin, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(services, pagination.NewMeta(p, total)))
}

// GetService returns one service
// @Summary      Get service
// @Tags         services
// @Produce      json
// @Param        id   path      string  true  "Service ID"
// @Success      200  {object}  response.Response{data=model.Service}
// @Failure      404  {object}  response.Response
// @Router       /services/{id} [get]
func (h *CatalogHandler) GetService(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	svc, err := h.catalogService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", svc))
}

// CreateService adds a service to the catalog
// @Summary      Create service
// @Tags         services
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateServiceRequest  true  "Service"
// @Success      201      {object}  response.Response{data=model.Service}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /services [post]
func (h *CatalogHandler) CreateService(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	svc, err := h.catalogService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Service created", svc))
}

// UpdateService changes catalog fields
// @Summary      Update service
// @Tags         services
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Service ID"
// @Param        payload  body      service.UpdateServiceRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=model.Service}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /services/{id} [put]
func (h *CatalogHandler) UpdateService(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	svc, err := h.catalogService.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Service updated", svc))
}

// DeleteService removes a service with no open bookings
// @Summary      Delete service
// @Tags         services
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Service ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /services/{id} [delete]
func (h *CatalogHandler) DeleteService(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.catalogService.Delete(c.Request.Context(), actor, id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Service deleted", nil))
}
