package handler

import (
	"net/http"

	"handyhub/internal/config"
	"handyhub/internal/middleware"
	"handyhub/internal/service"
	"handyhub/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	authn       *middleware.Authenticator
	jwt         config.JWTConfig
}

// NewAuthHandler sets up the routing dependencies for authentication endpoints
func NewAuthHandler(authService service.AuthService, authn *middleware.Authenticator, jwt config.JWTConfig) *AuthHandler {
	return &AuthHandler{authService: authService, authn: authn, jwt: jwt}
}

// RegisterRoutes binds the endpoints to the /auth group
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/register", h.Register)
	router.POST("/verify-email", h.VerifyEmail)
	router.POST("/login", h.Login)
	router.POST("/login-otp/request", h.RequestLoginOTP)
	router.POST("/login-otp/verify", h.LoginWithOTP)
	router.POST("/forgot-password", h.ForgotPassword)
	router.POST("/reset-password", h.ResetPassword)
	router.POST("/resend-otp", h.ResendOTP)
	router.POST("/refresh", h.Refresh)
	router.POST("/logout", h.Logout)
}

func (h *AuthHandler) issueCookies(c *gin.Context, res *service.AuthResponse) {
	h.authn.SetTokenCookies(c, res.AccessToken, res.RefreshToken, h.jwt.AccessTTL, h.jwt.RefreshTTL)
}

// Register creates an unverified account and emails a verification code
// @Summary      Register
// @Description  Creates an unverified account and emails a 6-digit verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success("Registration successful. Please check your email for the verification code", user))
}

// VerifyEmail consumes the verification code and signs the user in
// @Summary      Verify email
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.VerifyOTPRequest  true  "Email and code"
// @Success      200      {object}  response.Response{data=service.AuthResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req service.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.authService.VerifyEmail(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.issueCookies(c, res)
	c.JSON(http.StatusOK, response.Success("Email verified successfully", res))
}

// Login authenticates with email and password
// @Summary      Login
// @Description  Returns an access and refresh token, also set as HttpOnly cookies
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Credentials"
// @Success      200      {object}  response.Response{data=service.AuthResponse}
// @Failure      401      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.issueCookies(c, res)
	c.JSON(http.StatusOK, response.Success("Login successful", res))
}

// RequestLoginOTP emails a one-time login code
// @Summary      Request login code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.EmailRequest  true  "Email"
// @Success      200      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /auth/login-otp/request [post]
func (h *AuthHandler) RequestLoginOTP(c *gin.Context) {
	var req service.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.RequestLoginOTP(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(service.GenericOTPMessage, nil))
}

// LoginWithOTP signs in with an emailed code
// @Summary      Login with code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.VerifyOTPRequest  true  "Email and code"
// @Success      200      {object}  response.Response{data=service.AuthResponse}
// @Failure      400      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /auth/login-otp/verify [post]
func (h *AuthHandler) LoginWithOTP(c *gin.Context) {
	var req service.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	res, err := h.authService.LoginWithOTP(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.issueCookies(c, res)
	c.JSON(http.StatusOK, response.Success("Login successful", res))
}

// ForgotPassword emails a reset code. The response is the same whether or not the account exists.
// @Summary      Forgot password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.EmailRequest  true  "Email"
// @Success      200      {object}  response.Response
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req service.EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(service.GenericOTPMessage, nil))
}

// ResetPassword sets a new password using an emailed code
// @Summary      Reset password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ResetPasswordRequest  true  "Reset"
// @Success      200      {object}  response.Response
// @Failure      400      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req service.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success("Password has been reset. Please log in", nil))
}

// ResendOTP issues a fresh code for the given purpose
// @Summary      Resend code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.ResendOTPRequest  true  "Email and purpose"
// @Success      200      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req service.ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	if err := h.authService.ResendOTP(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(service.GenericOTPMessage, nil))
}

// refreshToken reads refresh_token from the cookie first, falling back to the body
func refreshToken(c *gin.Context) string {
	if token, err := c.Cookie(middleware.RefreshCookie); err == nil && token != "" {
		return token
	}
	var req service.RefreshRequest
	_ = c.ShouldBindJSON(&req)
	return req.RefreshToken
}

// Refresh rotates the refresh token and issues a new access token
// @Summary      Refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RefreshRequest  false  "Refresh token when not sent as cookie"
// @Success      200      {object}  response.Response{data=service.AuthResponse}
// @Failure      401      {object}  response.Response
// @Router       /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := refreshToken(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, response.Error("Refresh token is required", nil))
		return
	}

	res, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		respondError(c, err)
		return
	}

	h.issueCookies(c, res)
	c.JSON(http.StatusOK, response.Success("Token refreshed", res))
}

// Logout revokes the refresh token and clears auth cookies
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	if token := refreshToken(c); token != "" {
		if err := h.authService.Logout(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
	}

	h.authn.ClearTokenCookies(c)
	c.JSON(http.StatusOK, response.Success("Logged out", nil))
}
