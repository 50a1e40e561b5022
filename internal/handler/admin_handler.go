package handler

import (
	"net/http"

	"handyhub/internal/service"
	"handyhub/pkg/pagination"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

// AdminHandler serves user, booking and worker moderation
type AdminHandler struct {
	userService    service.UserService
	bookingService service.BookingService
	workerService  service.WorkerService
}

func NewAdminHandler(userService service.UserService, bookingService service.BookingService, workerService service.WorkerService) *AdminHandler {
	return &AdminHandler{userService: userService, bookingService: bookingService, workerService: workerService}
}

// RegisterRoutes binds to the admin group; the caller applies the role check
func (h *AdminHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users", h.ListUsers)
	router.PUT("/users/:id/toggle-status", h.ToggleUserStatus)

	router.GET("/bookings", h.ListBookings)

	router.GET("/workers", h.ListApplications)
	router.GET("/workers/:id", h.GetApplication)
	router.PUT("/workers/:id/approve", h.ApproveWorker)
	router.PUT("/workers/:id/reject", h.RejectWorker)
}

// ListUsers lists accounts with optional role and active filters
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        role    query     string  false  "user, worker or admin"
// @Param        active  query     bool    false  "Active flag"
// @Param        search  query     string  false  "Name or email search"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.PaginatedResponse{data=[]service.UserResponse}
// @Router       /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q service.UserListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := pagination.Parse(c)

	users, total, err := h.userService.ListUsers(c.Request.Context(), q, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(users, pagination.NewMeta(p, total)))
}

// ToggleUserStatus activates or deactivates another user
// @Summary      Toggle user status
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/users/{id}/toggle-status [put]
func (h *AdminHandler) ToggleUserStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.ToggleStatus(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	message := "User activated"
	if !user.IsActive {
		message = "User deactivated"
	}
	c.JSON(http.StatusOK, response.Success(message, user))
}

// ListBookings lists every booking
// @Summary      List all bookings
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status      query     string  false  "Status filter"
// @Param        service_id  query     string  false  "Service filter"
// @Param        worker_id   query     string  false  "Worker filter"
// @Param        from        query     string  false  "Scheduled on or after (YYYY-MM-DD)"
// @Param        to          query     string  false  "Scheduled on or before (YYYY-MM-DD)"
// @Param        page        query     int     false  "Page number (default 1)"
// @Param        limit       query     int     false  "Items per page (default 20)"
// @Success      200         {object}  response.PaginatedResponse{data=[]service.BookingResponse}
// @Router       /admin/bookings [get]
func (h *AdminHandler) ListBookings(c *gin.Context) {
	var q service.BookingListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := pagination.Parse(c)

	bookings, total, err := h.bookingService.ListAll(c.Request.Context(), q, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(bookings, pagination.NewMeta(p, total)))
}

// ListApplications lists worker applications by status
// @Summary      List worker applications
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status   query     string  false  "incomplete, pending, approved or rejected"
// @Param        service  query     string  false  "Service category"
// @Param        city     query     string  false  "City"
// @Param        page     query     int     false  "Page number (default 1)"
// @Param        limit    query     int     false  "Items per page (default 20)"
// @Success      200      {object}  response.PaginatedResponse{data=[]service.ApplicationResponse}
// @Router       /admin/workers [get]
func (h *AdminHandler) ListApplications(c *gin.Context) {
	var q service.WorkerListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := pagination.Parse(c)

	apps, total, err := h.workerService.ListApplications(c.Request.Context(), q, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(apps, pagination.NewMeta(p, total)))
}

// GetApplication returns one application with its documents
// @Summary      Get worker application
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worker ID"
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Failure      404  {object}  response.Response
// @Router       /admin/workers/{id} [get]
func (h *AdminHandler) GetApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	app, err := h.workerService.GetApplicationByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", app))
}

// ApproveWorker approves a pending application and promotes the user to worker
// @Summary      Approve worker
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Worker ID"
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Failure      404  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /admin/workers/{id}/approve [put]
func (h *AdminHandler) ApproveWorker(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	app, err := h.workerService.Approve(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Worker approved", app))
}

// RejectWorker rejects a pending application with a reason
// @Summary      Reject worker
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true   "Worker ID"
// @Param        payload  body      service.RejectApplicationRequest  false  "Reason"
// @Success      200      {object}  response.Response{data=service.ApplicationResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /admin/workers/{id}/reject [put]
func (h *AdminHandler) RejectWorker(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.RejectApplicationRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBindError(c, err)
			return
		}
	}

	app, err := h.workerService.Reject(c.Request.Context(), actor, id, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Worker rejected", app))
}
