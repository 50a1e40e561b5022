package handler

import (
	"net/http"

	"handyhub/internal/middleware"
	"handyhub/internal/service"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService service.UserService
	authn       *middleware.Authenticator
}

// NewUserHandler sets up the routing dependencies for the caller's own account
func NewUserHandler(userService service.UserService, authn *middleware.Authenticator) *UserHandler {
	return &UserHandler{userService: userService, authn: authn}
}

// RegisterRoutes binds the account endpoints under /auth
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	me := router.Group("", h.authn.RequireAuth())
	{
		me.GET("/me", h.GetMe)
		me.PUT("/me", h.UpdateMe)
		me.PUT("/change-password", h.ChangePassword)
		me.DELETE("/account", h.DeactivateAccount)
	}
}

// GetMe returns the currently authenticated user
// @Summary      Get current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /auth/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}

	user, err := h.userService.GetProfile(c.Request.Context(), actor.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("", user))
}

// UpdateMe updates name, phone and location
// @Summary      Update profile
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateProfileRequest  true  "Profile fields"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Router       /auth/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), actor.UserID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Profile updated", user))
}

// ChangePassword replaces the password and signs out other sessions
// @Summary      Change password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.ChangePasswordRequest  true  "Passwords"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/change-password [put]
func (h *UserHandler) ChangePassword(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.userService.ChangePassword(c.Request.Context(), actor.UserID, req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Password changed successfully", nil))
}

// DeactivateAccount deactivates the caller's own account
// @Summary      Deactivate account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.DeactivateAccountRequest  true  "Password confirmation"
// @Success      200      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /auth/account [delete]
func (h *UserHandler) DeactivateAccount(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		return
	}
	var req service.DeactivateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.userService.Deactivate(c.Request.Context(), actor.UserID, req.Password); err != nil {
		respondError(c, err)
		return
	}

	h.authn.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success("Account deactivated", nil))
}
