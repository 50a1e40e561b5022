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

type BookingHandler struct {
	bookingService service.BookingService
	authn          *middleware.Authenticator
}

func NewBookingHandler(bookingService service.BookingService, authn *middleware.Authenticator) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, authn: authn}
}

func (h *BookingHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/bookings")
	{
		group.POST("", h.authn.OptionalAuth(), h.CreateBooking)
		group.GET("/code/:code", h.LookupByCode)
		group.GET("/my-bookings", h.authn.RequireAuth(), h.ListMyBookings)
		group.GET("/worker-bookings", h.authn.RequireRole(model.RoleWorker), h.ListWorkerBookings)
		group.GET("/:id", h.authn.RequireAuth(), h.GetBooking)
		group.GET("/:id/receipt", h.authn.RequireAuth(), h.DownloadReceipt)
		group.PUT("/:id/status", h.authn.RequireAuth(), h.UpdateStatus)
		group.POST("/:id/review", h.authn.RequireAuth(), h.AddReview)
	}
}

// CreateBooking books a worker for a service. Anonymous callers must include guest details.
// @Summary      Create booking
// @Description  Creates a pending booking. Fails with 409 when the worker is unavailable or already booked.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateBookingRequest  true  "Booking"
// @Success      201      {object}  response.Response{data=service.BookingResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	var actor *service.Actor
	if userID, role, ok := middleware.CurrentUser(c); ok {
		actor = &service.Actor{UserID: userID, Role: role}
	}

	booking, err := h.bookingService.Create(c.Request.Context(), actor, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Booking created successfully", booking))
}

// LookupByCode lets guests find their booking with the code and their email
// @Summary      Find booking by code
// @Tags         bookings
// @Produce      json
// @Param        code   path      string  true  "Booking code"
// @Param        email  query     string  true  "Customer email"
// @Success      200    {object}  response.Response{data=service.BookingResponse}
// @Failure      403    {object}  response.Response
// @Failure      404    {object}  response.Response
// @Router       /bookings/code/{code} [get]
func (h *BookingHandler) LookupByCode(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, response.Error("Validation failed", map[string]string{"email": "is required"}))
		return
	}

	booking, err := h.bookingService.LookupByCode(c.Request.Context(), c.Param("code"), email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", booking))
}

// ListMyBookings lists bookings the caller made as a customer
// @Summary      My bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.PaginatedResponse{data=[]service.BookingResponse}
// @Router       /bookings/my-bookings [get]
func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q service.BookingListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := pagination.Parse(c)

	bookings, total, err := h.bookingService.ListForCustomer(c.Request.Context(), actor.UserID, q, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(bookings, pagination.NewMeta(p, total)))
}

// ListWorkerBookings lists bookings assigned to the calling worker
// @Summary      Worker bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Status filter"
// @Param        page    query     int     false  "Page number (default 1)"
// @Param        limit   query     int     false  "Items per page (default 20)"
// @Success      200     {object}  response.PaginatedResponse{data=[]service.BookingResponse}
// @Failure      403     {object}  response.Response
// @Router       /bookings/worker-bookings [get]
func (h *BookingHandler) ListWorkerBookings(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var q service.BookingListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err)
		return
	}
	p := pagination.Parse(c)

	bookings, total, err := h.bookingService.ListForWorker(c.Request.Context(), actor.UserID, q, p)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(bookings, pagination.NewMeta(p, total)))
}

// GetBooking returns one booking to its customer, its worker or an admin
// @Summary      Get booking
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking ID"
// @Success      200  {object}  response.Response{data=service.BookingResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /bookings/{id} [get]
func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	booking, err := h.bookingService.Get(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", booking))
}

// DownloadReceipt renders the booking receipt as a PDF with a QR code of the booking code
// @Summary      Booking receipt
// @Tags         bookings
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path      string  true  "Booking ID"
// @Success      200  {file}    file
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /bookings/{id}/receipt [get]
func (h *BookingHandler) DownloadReceipt(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	pdf, filename, err := h.bookingService.Receipt(c.Request.Context(), actor, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// UpdateStatus moves a booking through its lifecycle
// @Summary      Update booking status
// @Description  Allowed moves depend on the caller: workers confirm, start and complete; customers cancel pending or confirmed bookings; admins may do either.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                              true  "Booking ID"
// @Param        payload  body      service.UpdateBookingStatusRequest  true  "New status"
// @Success      200      {object}  response.Response{data=service.BookingResponse}
// @Failure      403      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /bookings/{id}/status [put]
func (h *BookingHandler) UpdateStatus(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookingService.UpdateStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Booking status updated", booking))
}

// AddReview rates a completed booking once
// @Summary      Review booking
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                    true  "Booking ID"
// @Param        payload  body      service.AddReviewRequest  true  "Review"
// @Success      201      {object}  response.Response{data=service.BookingResponse}
// @Failure      403      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /bookings/{id}/review [post]
func (h *BookingHandler) AddReview(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.AddReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.bookingService.AddReview(c.Request.Context(), actor, id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Review added", booking))
}
